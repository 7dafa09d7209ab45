package middleware // middleware provides reusable HTTP middleware for the API

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/workodr/marketplace-api/internal/auth"
	"github.com/workodr/marketplace-api/internal/response"
	"github.com/workodr/marketplace-api/internal/repository"
)

// Context keys populated by the auth middleware.
const (
	ctxClaims = "claims"
	ctxToken  = "token"
)

// ledgerTimeout bounds the session-ledger lookup, same as the per-request
// database timeout used by the handlers.
const ledgerTimeout = 5 * time.Second

// RequireAuth returns middleware that validates a Bearer access token and
// injects the decoded claims into the request context.  Verification is two
// stage: the token's own signature and expiry first, then the session ledger
// — a token that was logged out fails here even though its signature would
// still pass.  Status codes follow the API contract: 401 for a missing
// token, 403 for anything invalid or revoked.
func RequireAuth(secret string, tokens *repository.TokenRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return response.Fail(c, http.StatusUnauthorized, "Access token required")
			}
			claims, err := auth.Parse(secret, raw)
			if err != nil {
				return response.Fail(c, http.StatusForbidden, "Invalid or expired token")
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), ledgerTimeout)
			live, err := tokens.IsValid(ctx, auth.Fingerprint(raw))
			cancel()
			if err != nil {
				return response.Fail(c, http.StatusInternalServerError, "Server error")
			}
			if !live {
				return response.Fail(c, http.StatusForbidden, "Token has been revoked or expired")
			}
			c.Set(ctxClaims, claims)
			c.Set(ctxToken, raw)
			return next(c)
		}
	}
}

// OptionalAuth is the variant for endpoints with mixed public/authenticated
// behavior: no token (or a token that fails any check) yields an anonymous
// request instead of a hard failure; the verification rules are otherwise
// identical to RequireAuth.
func OptionalAuth(secret string, tokens *repository.TokenRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return next(c)
			}
			claims, err := auth.Parse(secret, raw)
			if err != nil {
				return next(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), ledgerTimeout)
			live, err := tokens.IsValid(ctx, auth.Fingerprint(raw))
			cancel()
			if err != nil || !live {
				return next(c)
			}
			c.Set(ctxClaims, claims)
			c.Set(ctxToken, raw)
			return next(c)
		}
	}
}

// ClaimsFrom returns the identity injected by RequireAuth/OptionalAuth, or
// nil for anonymous requests.
func ClaimsFrom(c echo.Context) *auth.Claims {
	if v, ok := c.Get(ctxClaims).(*auth.Claims); ok {
		return v
	}
	return nil
}

// TokenFrom returns the raw bearer token of the current request.  Needed by
// logout and change-password, which operate on the presented token's
// fingerprint.
func TokenFrom(c echo.Context) string {
	if v, ok := c.Get(ctxToken).(string); ok {
		return v
	}
	return ""
}

func bearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return raw, raw != ""
}
