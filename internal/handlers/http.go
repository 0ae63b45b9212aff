package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	inqErrors "github.com/umalmyha/inquiries/internal/errors"
	"github.com/umalmyha/inquiries/internal/middleware"
	"github.com/umalmyha/inquiries/internal/model"
	"github.com/umalmyha/inquiries/internal/service"
)

// FlagProvider evaluates feature flags of session user
type FlagProvider interface {
	Fetch(context.Context, service.FetchOptions) model.FlagState
}

// InvalidationPublisher announces that feature flags changed
type InvalidationPublisher interface {
	Publish(ctx context.Context, keys []string) error
}

type fetchQuery struct {
	Force bool `query:"force"`
}

type invalidation struct {
	Keys []string `json:"keys" validate:"omitempty,dive,required"`
}

type inquiryIdentifier struct {
	ID string `param:"id" validate:"required"`
}

type statusChange struct {
	ID     string `param:"id" json:"-" validate:"required"`
	Status string `json:"status" validate:"required,inquiry_status"`
}

// FlagHTTPHandler is http handler for feature flags endpoint
type FlagHTTPHandler struct {
	flags     FlagProvider
	publisher InvalidationPublisher
}

// NewFlagHTTPHandler builds new FlagHTTPHandler
func NewFlagHTTPHandler(flags FlagProvider, publisher InvalidationPublisher) *FlagHTTPHandler {
	return &FlagHTTPHandler{flags: flags, publisher: publisher}
}

// Get evaluates flags
// @Summary     Get feature flags
// @Description Returns feature flags evaluated for session user, cached flags are served unless force is set
// @Tags        flags
// @Security	ApiKeyAuth
// @Produce     json
// @Param       force  query 	bool false "Skip cache"
// @Success     200    {object} model.FlagState
// @Failure     400    {object} echo.HTTPError
// @Failure     401    {object} echo.HTTPError
// @Router      /api/v1/flags [get]
func (h *FlagHTTPHandler) Get(c echo.Context) error {
	var q fetchQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	state := h.flags.Fetch(c.Request().Context(), service.FetchOptions{
		UserID: middleware.UserID(c),
		Force:  q.Force,
	})
	return c.JSON(http.StatusOK, state)
}

// Invalidate announces flags change
// @Summary     Invalidate feature flags
// @Description Every service instance drops cached flags, next read goes to flags store
// @Tags        flags
// @Security	ApiKeyAuth
// @Accept      json
// @Param       X-Operator-Key header string true "Operator key"
// @Param       invalidation body invalidation false "Changed flag keys"
// @Success     202    "Invalidation is published"
// @Failure     400    {object} echo.HTTPError
// @Failure     401    {object} echo.HTTPError
// @Failure     403    {object} echo.HTTPError
// @Failure     500    {object} echo.HTTPError
// @Router      /api/v1/flags/invalidate [post]
func (h *FlagHTTPHandler) Invalidate(c echo.Context) error {
	var inv invalidation
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&inv); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	if err := c.Validate(&inv); err != nil {
		return err
	}

	for _, k := range inv.Keys {
		if !model.KnownFlag(k) {
			return inqErrors.NewBusinessErr("keys", "unknown feature flag "+k)
		}
	}

	if err := h.publisher.Publish(c.Request().Context(), inv.Keys); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

// InquiryHTTPHandler is http handler for inquiries endpoint
type InquiryHTTPHandler struct {
	store service.InquiryStore
}

// NewInquiryHTTPHandler builds new InquiryHTTPHandler
func NewInquiryHTTPHandler(store service.InquiryStore) *InquiryHTTPHandler {
	return &InquiryHTTPHandler{store: store}
}

// GetAll fetches inquiries
// @Summary     Fetch inquiries
// @Description Reloads inquiries unless they were fetched recently and returns inquiries state. Fetch failures are reported in state.
// @Tags        inquiries
// @Security	ApiKeyAuth
// @Produce     json
// @Param       force  query 	bool false "Skip coalescing window"
// @Success     200    {object} model.InquiriesState
// @Failure     400    {object} echo.HTTPError
// @Failure     401    {object} echo.HTTPError
// @Router      /api/v1/inquiries [get]
func (h *InquiryHTTPHandler) GetAll(c echo.Context) error {
	var q fetchQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.store.Fetch(c.Request().Context(), q.Force)
	return c.JSON(http.StatusOK, h.store.State())
}

// State returns inquiries state
// @Summary     Inquiries state
// @Description Returns current inquiries state without fetching
// @Tags        inquiries
// @Security	ApiKeyAuth
// @Produce     json
// @Success     200    {object} model.InquiriesState
// @Failure     401    {object} echo.HTTPError
// @Router      /api/v1/inquiries/state [get]
func (h *InquiryHTTPHandler) State(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.State())
}

// Select selects inquiry
// @Summary     Select inquiry
// @Description Selects inquiry from currently loaded inquiries
// @Tags        inquiries
// @Security	ApiKeyAuth
// @Produce     json
// @Param       id     path 	string true "Inquiry id"
// @Success     200    {object} model.InquiriesState
// @Failure     400    {object} echo.HTTPError
// @Failure     404    {object} echo.HTTPError
// @Router      /api/v1/inquiries/{id}/select [post]
func (h *InquiryHTTPHandler) Select(c echo.Context) error {
	var id inquiryIdentifier
	if err := (&echo.DefaultBinder{}).BindPathParams(c, &id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := c.Validate(&id); err != nil {
		return err
	}

	for _, i := range h.store.State().Inquiries {
		if i.ID == id.ID {
			h.store.Select(i)
			return c.JSON(http.StatusOK, h.store.State())
		}
	}
	return inqErrors.NewEntryNotFoundErr("inquiry " + id.ID + " is not loaded")
}

// ClearSelection clears selected inquiry
// @Summary     Clear selection
// @Tags        inquiries
// @Security	ApiKeyAuth
// @Produce     json
// @Success     200    {object} model.InquiriesState
// @Failure     401    {object} echo.HTTPError
// @Router      /api/v1/inquiries/selection [delete]
func (h *InquiryHTTPHandler) ClearSelection(c echo.Context) error {
	h.store.Select(nil)
	return c.JSON(http.StatusOK, h.store.State())
}

// UpdateStatus changes inquiry status
// @Summary     Update inquiry status
// @Description Applies status optimistically, rejected update is rolled back and reported in state error
// @Tags        inquiries
// @Security	ApiKeyAuth
// @Accept      json
// @Produce     json
// @Param       id     path 	string true "Inquiry id"
// @Param       status body 	statusChange true "New status"
// @Success     200    {object} model.InquiriesState
// @Failure     400    {object} echo.HTTPError
// @Failure     503    {object} echo.HTTPError
// @Router      /api/v1/inquiries/{id}/status [patch]
func (h *InquiryHTTPHandler) UpdateStatus(c echo.Context) error {
	var sc statusChange
	if err := c.Bind(&sc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := c.Validate(&sc); err != nil {
		return err
	}

	h.store.UpdateStatus(c.Request().Context(), sc.ID, model.Status(sc.Status))
	return c.JSON(http.StatusOK, h.store.State())
}
