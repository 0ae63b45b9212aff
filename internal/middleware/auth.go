package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/umalmyha/inquiries/internal/auth"
)

const userIDKey = "userId"

// Authorize verifies bearer token and remembers its subject as session user.
// Without validator every request is served as anonymous session.
func Authorize(validator *auth.JwtValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if validator == nil {
				c.Set(userIDKey, "")
				return next(c)
			}

			authHdr := c.Request().Header.Get("Authorization")
			hdrSplit := strings.Split(authHdr, " ")
			if len(hdrSplit) != 2 || !strings.EqualFold(hdrSplit[0], "Bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid Authorization header format")
			}

			userID, err := validator.Verify(hdrSplit[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			c.Set(userIDKey, userID)
			c.SetRequest(c.Request().WithContext(auth.WithUserID(c.Request().Context(), userID)))

			return next(c)
		}
	}
}

// UserID returns session user of request, empty for anonymous session
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
