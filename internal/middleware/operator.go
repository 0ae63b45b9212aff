package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// OperatorKeyHeader carries operator key of privileged requests
const OperatorKeyHeader = "X-Operator-Key"

// RequireOperator lets through requests carrying operator key. Empty key closes the route for everyone.
func RequireOperator(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return echo.NewHTTPError(http.StatusForbidden, "operator access is disabled")
			}

			provided := c.Request().Header.Get(OperatorKeyHeader)
			if provided == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "operator key is required")
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid operator key")
			}
			return next(c)
		}
	}
}
