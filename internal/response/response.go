// Package response defines the uniform JSON envelope returned by every
// endpoint: {success, message?, data?, error?}.
package response

import "github.com/labstack/echo/v4"

// Envelope is the wire shape of all API responses.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK writes a success envelope with an optional message and payload.
func OK(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope.  The message is the user-visible one;
// server-side detail belongs in logs, never here.
func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Message: message})
}
