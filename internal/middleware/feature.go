package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/umalmyha/inquiries/internal/model"
	"github.com/umalmyha/inquiries/internal/service"
)

const defaultSafeModeMessage = "Service is temporarily unavailable"

// FlagFetcher gives evaluated flags of user session
type FlagFetcher interface {
	Fetch(context.Context, service.FetchOptions) model.FlagState
}

// SafeMode answers 503 with safe mode message while kill switch is on for session user
func SafeMode(flags FlagFetcher) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state := flags.Fetch(c.Request().Context(), service.FetchOptions{UserID: UserID(c)})
			if !state.KillSwitch {
				return next(c)
			}

			msg := defaultSafeModeMessage
			if state.SafeModeMessage != nil {
				msg = *state.SafeModeMessage
			}
			return echo.NewHTTPError(http.StatusServiceUnavailable, msg)
		}
	}
}
