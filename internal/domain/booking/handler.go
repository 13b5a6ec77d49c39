package booking

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicbook/clinicbook/internal/platform/identity"
	"github.com/clinicbook/clinicbook/pkg/pagination"
	"github.com/clinicbook/clinicbook/pkg/timeofday"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/clinics/:id/available-slots", h.ClinicSlots)
	api.GET("/doctors/:id/available-slots", h.DoctorSlots)
	api.POST("/appointments", h.Book)
	api.GET("/appointments", h.List)
	api.PATCH("/appointments/:id/cancel", h.Cancel)
	api.PATCH("/appointments/:id/confirm", h.Confirm)
	api.PATCH("/appointments/:id/complete", h.Complete)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrSlotTaken), errors.Is(err, ErrBadTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrQuotaExceeded), errors.Is(err, ErrNoHours):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// slotsResponse keeps the field names the existing frontend expects.
type slotsResponse struct {
	Date  string                `json:"fecha"`
	Slots []timeofday.TimeOfDay `json:"horas_disponibles"`
}

func (h *Handler) ClinicSlots(c echo.Context) error {
	return h.slots(c, h.svc.ListAvailableForClinic)
}

func (h *Handler) DoctorSlots(c echo.Context) error {
	return h.slots(c, h.svc.ListAvailableForDoctor)
}

func (h *Handler) slots(c echo.Context, list func(ctx context.Context, id uuid.UUID, date time.Time) ([]timeofday.TimeOfDay, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	raw := c.QueryParam("fecha")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "fecha query parameter is required")
	}
	date, err := timeofday.ParseDate(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "fecha must be YYYY-MM-DD")
	}
	slots, err := list(c.Request().Context(), id, date)
	if err != nil {
		return httpError(err)
	}
	if slots == nil {
		slots = []timeofday.TimeOfDay{}
	}
	return c.JSON(http.StatusOK, slotsResponse{Date: raw, Slots: slots})
}

// bookRequest mirrors the legacy wire contract.
type bookRequest struct {
	ClinicID *uuid.UUID `json:"clinica_id"`
	DoctorID *uuid.UUID `json:"medico_id"`
	Date     string     `json:"fecha"`
	Time     string     `json:"hora"`
	Reason   string     `json:"motivo"`
}

func (h *Handler) Book(c echo.Context) error {
	callerID := identity.CallerIDFromContext(c.Request().Context())
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	appt, err := h.svc.Book(c.Request().Context(), callerID, BookingRequest{
		ClinicID: req.ClinicID,
		DoctorID: req.DoctorID,
		Date:     req.Date,
		Time:     req.Time,
		Reason:   req.Reason,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, appt.View())
}

func (h *Handler) List(c echo.Context) error {
	callerID := identity.CallerIDFromContext(c.Request().Context())
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForCaller(c.Request().Context(), callerID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(Views(items), total, pg.Limit, pg.Offset))
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel)
}

func (h *Handler) Confirm(c echo.Context) error {
	return h.transition(c, h.svc.Confirm)
}

func (h *Handler) Complete(c echo.Context) error {
	return h.transition(c, h.svc.Complete)
}

func (h *Handler) transition(c echo.Context, op func(ctx context.Context, callerID, apptID uuid.UUID) (*Appointment, error)) error {
	callerID := identity.CallerIDFromContext(c.Request().Context())
	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	appt, err := op(c.Request().Context(), callerID, apptID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt.View())
}
