// Package logger builds the process-wide structured logger.  All server-side
// detail (SQL errors, hashing failures, broker problems) goes through here;
// clients only ever see the generic response envelope.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a zerolog logger writing JSON to stdout.  In dev the output is
// switched to the human-readable console writer and the level lowered to
// debug.
func New(env string) zerolog.Logger {
	level := zerolog.InfoLevel
	var out = zerolog.New(os.Stdout)
	if env == "dev" || env == "local" {
		level = zerolog.DebugLevel
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return out.Level(level).With().Timestamp().Str("service", "marketplace-api").Logger()
}
