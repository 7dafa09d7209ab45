package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workodr/marketplace-api/internal/response"
)

// RequireRole enforces that the authenticated identity holds at least one of
// the given roles.  It assumes RequireAuth ran earlier in the chain; an
// anonymous request is rejected the same way as a role mismatch.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return response.Fail(c, http.StatusForbidden, "Forbidden")
			}
			for _, r := range roles {
				if claims.HasRole(r) {
					return next(c)
				}
			}
			return response.Fail(c, http.StatusForbidden, "Forbidden")
		}
	}
}
