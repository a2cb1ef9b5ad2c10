package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fitgrid/studio-reservation/internal/engine"
	"github.com/fitgrid/studio-reservation/internal/model"
	"github.com/fitgrid/studio-reservation/internal/repository"
)

// CreateOccurrence handles POST /v1/occurrences. Booking windows not
// supplied in the request are derived from the scheduled start; the seat
// inventory is built immediately.
func (h *Handler) CreateOccurrence(c echo.Context) error {
	var body struct {
		ClassID              uint64     `json:"class_id"`
		InstructorID         uint64     `json:"instructor_id"`
		StudioID             uint64     `json:"studio_id"`
		ScheduledDate        string     `json:"scheduled_date"` // YYYY-MM-DD
		StartTime            string     `json:"start_time"`     // HH:MM or HH:MM:SS
		EndTime              string     `json:"end_time"`
		MaxCapacity          int        `json:"max_capacity"`
		BookingOpensAt       *time.Time `json:"booking_opens_at"`
		BookingClosesAt      *time.Time `json:"booking_closes_at"`
		CancellationDeadline *time.Time `json:"cancellation_deadline"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ClassID == 0 || body.InstructorID == 0 || body.StudioID == 0 || body.MaxCapacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "class_id, instructor_id, studio_id and max_capacity are required"})
	}
	date, err := time.Parse("2006-01-02", body.ScheduledDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_date must be YYYY-MM-DD"})
	}
	if !validClock(body.StartTime) || !validClock(body.EndTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time and end_time must be HH:MM or HH:MM:SS"})
	}

	ctx := c.Request().Context()
	if _, err := h.Engine.Studios().GetByID(ctx, body.StudioID); err != nil {
		if errors.Is(err, repository.ErrStudioNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "studio not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	occ := &model.Occurrence{
		ClassID:              body.ClassID,
		InstructorID:         body.InstructorID,
		StudioID:             body.StudioID,
		ScheduledDate:        date,
		StartTime:            body.StartTime,
		EndTime:              body.EndTime,
		MaxCapacity:          body.MaxCapacity,
		BookingOpensAt:       body.BookingOpensAt,
		BookingClosesAt:      body.BookingClosesAt,
		CancellationDeadline: body.CancellationDeadline,
	}
	if err := h.Engine.CreateOccurrence(ctx, occ); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create occurrence"})
	}
	return c.JSON(http.StatusCreated, occ)
}

func validClock(s string) bool {
	if _, err := time.Parse("15:04:05", s); err == nil {
		return true
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// GetOccurrence handles GET /v1/occurrences/:id.
func (h *Handler) GetOccurrence(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	occ, err := h.Engine.Occurrences().GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOccurrenceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, occ)
}

// CancelOccurrence handles POST /v1/occurrences/:id/cancel. Cancelling
// again is a reported no-op; the footwear cascade fires exactly once.
func (h *Handler) CancelOccurrence(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason is required"})
	}
	report, err := h.Engine.CancelOccurrence(c.Request().Context(), id, body.Reason)
	if err != nil {
		if errors.Is(err, repository.ErrOccurrenceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not cancel occurrence"})
	}
	return c.JSON(http.StatusOK, report)
}

// UpdateOccurrence handles PATCH /v1/occurrences/:id for capacity, studio
// and status changes. Setting status to cancelled routes through the full
// cancellation flow.
func (h *Handler) UpdateOccurrence(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		MaxCapacity *int    `json:"max_capacity"`
		StudioID    *uint64 `json:"studio_id"`
		Status      *string `json:"status"`
		Reason      *string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.MaxCapacity != nil && *body.MaxCapacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_capacity must be greater than zero"})
	}
	upd := engine.OccurrenceUpdate{
		MaxCapacity: body.MaxCapacity,
		StudioID:    body.StudioID,
		Reason:      body.Reason,
	}
	if body.Status != nil {
		s := model.OccurrenceStatus(*body.Status)
		switch s {
		case model.OccurrenceScheduled, model.OccurrenceInProgress, model.OccurrenceCompleted, model.OccurrenceCancelled:
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		upd.Status = &s
	}

	result, err := h.Engine.ApplyOccurrenceUpdate(c.Request().Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOccurrenceNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
		case errors.Is(err, repository.ErrStudioNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "studio not found"})
		case errors.Is(err, engine.ErrOccurrenceCancelled):
			return c.JSON(http.StatusConflict, echo.Map{"error": "cancelled occurrence cannot change status"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update occurrence"})
	}
	return c.JSON(http.StatusOK, result)
}

// ReassignStudio handles PUT /v1/occurrences/:id/studio. The inventory is
// rebuilt from the new room; reservations in flight on the old one are
// discarded and reported back.
func (h *Handler) ReassignStudio(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		StudioID uint64 `json:"studio_id"`
	}
	if err := c.Bind(&body); err != nil || body.StudioID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "studio_id is required"})
	}
	result, err := h.Engine.ApplyOccurrenceUpdate(c.Request().Context(), id, engine.OccurrenceUpdate{StudioID: &body.StudioID})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOccurrenceNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
		case errors.Is(err, repository.ErrStudioNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "studio not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not reassign studio"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"occurrence":       result.Occurrence,
		"inventory_rows":   result.InventoryRows,
		"discarded_active": result.DiscardedActive,
	})
}

// BuildInventory handles POST /v1/occurrences/:id/inventory. Idempotent:
// repeated calls only fill gaps.
func (h *Handler) BuildInventory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	created, err := h.Engine.BuildInventory(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOccurrenceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not build inventory"})
	}
	return c.JSON(http.StatusOK, echo.Map{"created": created})
}

// RegenerateInventory handles POST /v1/occurrences/:id/inventory/regenerate,
// the destructive rebuild used after room changes.
func (h *Handler) RegenerateInventory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rebuilt, discarded, err := h.Engine.RegenerateInventory(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOccurrenceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not regenerate inventory"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rebuilt": rebuilt, "discarded_active": discarded})
}

// SeatMap handles GET /v1/occurrences/:id/seat-map.
func (h *Handler) SeatMap(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	m, err := h.Engine.BuildSeatMap(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOccurrenceNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
		case errors.Is(err, repository.ErrStudioNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "studio not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not build seat map"})
	}
	return c.JSON(http.StatusOK, m)
}
