package infra

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/umalmyha/inquiries/internal/auth"
	_ "github.com/umalmyha/inquiries/internal/docs" // swagger spec
	inqErrors "github.com/umalmyha/inquiries/internal/errors"
	"github.com/umalmyha/inquiries/internal/handlers"
	"github.com/umalmyha/inquiries/internal/middleware"
	"github.com/umalmyha/inquiries/internal/service"
	"github.com/umalmyha/inquiries/internal/validation"
)

// RouterDeps are services exposed over http
type RouterDeps struct {
	Logger       logrus.FieldLogger
	JwtValidator *auth.JwtValidator
	Flags        *service.FeatureFlagRegistry
	Store        service.InquiryStore
	Publisher    handlers.InvalidationPublisher
	Limiter      *middleware.RateLimiter
	OperatorKey  string
}

func Router(deps RouterDeps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	e.HTTPErrorHandler = httpErrorHandler(e, deps.Logger)

	echoValidator, err := validation.English()
	if err != nil {
		return nil, err
	}
	e.Validator = echoValidator

	// Middleware
	authorizeMw := middleware.Authorize(deps.JwtValidator)
	limitMw := deps.Limiter.Limit()
	safeModeMw := middleware.SafeMode(deps.Flags)
	operatorMw := middleware.RequireOperator(deps.OperatorKey)

	// Handlers
	flagHandler := handlers.NewFlagHTTPHandler(deps.Flags, deps.Publisher)
	inquiryHandler := handlers.NewInquiryHTTPHandler(deps.Store)

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API routes
	api := e.Group("/api/v1", authorizeMw, limitMw)

	// flags
	flagsApi := api.Group("/flags")
	flagsApi.GET("", flagHandler.Get)
	flagsApi.POST("/invalidate", flagHandler.Invalidate, operatorMw)

	// inquiries
	inquiriesApi := api.Group("/inquiries")
	inquiriesApi.GET("", inquiryHandler.GetAll)
	inquiriesApi.GET("/state", inquiryHandler.State)
	inquiriesApi.POST("/:id/select", inquiryHandler.Select)
	inquiriesApi.DELETE("/selection", inquiryHandler.ClearSelection)
	inquiriesApi.PATCH("/:id/status", inquiryHandler.UpdateStatus, safeModeMw)

	return e, nil
}

func httpErrorHandler(e *echo.Echo, logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var pldErr *validation.PayloadError
		var businessErr *inqErrors.BusinessErr
		var notFoundErr *inqErrors.EntryNotFoundErr

		switch {
		case errors.As(err, &pldErr):
			err = echo.NewHTTPError(http.StatusBadRequest, pldErr)
		case errors.As(err, &businessErr):
			err = echo.NewHTTPError(http.StatusUnprocessableEntity, businessErr)
		case errors.As(err, &notFoundErr):
			err = echo.NewHTTPError(http.StatusNotFound, notFoundErr.Error())
		}

		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("error occurred on http request processing")
		e.DefaultHTTPErrorHandler(err, c)
	}
}
