// Package auth provides token issuance, verification and password hashing
// for the credential core.  Raw bearer tokens are opaque to callers and are
// never persisted; everything stored at rest is a SHA-256 fingerprint.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Parse for any token that fails signature,
// structure or expiry checks.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the identity payload carried in every access token.  Roles is a
// typed set; membership is tested with HasRole rather than substring checks
// on a joined string.
type Claims struct {
	UserID uint64   `json:"uid"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Phone  string   `json:"phone,omitempty"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the identity holds the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Issue builds and signs an HS256 access token for the given identity.  The
// subject is the user id; exp and iat are set from the ttl.  It returns the
// signed token and its expiry so the caller can record the fingerprint in
// the session ledger.
func Issue(secret string, claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(claims.UserID, 10),
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies the signature and expiry of a raw token and returns its
// claims.  Tokens signed with any method other than HMAC are rejected.  The
// ledger check happens separately; a token that passes Parse may still have
// been revoked.
func Parse(secret, raw string) (*Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// Fingerprint returns the SHA-256 hex digest of a raw token string.  The
// digest is the only form stored in jwt_tokens and password_reset_tokens, so
// a leaked database never yields usable bearer secrets.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewResetToken returns a 256-bit random token as 64 hex characters.  The
// raw value goes to the user (via the reset email); only its fingerprint is
// stored.
func NewResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
