package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fitgrid/studio-reservation/internal/engine"
	"github.com/fitgrid/studio-reservation/internal/repository"
)

// Reserve handles POST /v1/occurrences/:id/reserve and places a timed hold
// on one seat for the authenticated user. A denial (seat taken, booking
// window closed, occurrence full) is 409; only infrastructure failures are
// 500.
func (h *Handler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	occurrenceID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		SeatID uint64 `json:"seat_id"`
	}
	if err := c.Bind(&body); err != nil || body.SeatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id is required"})
	}

	a, err := h.Engine.ReserveSeat(c.Request().Context(), occurrenceID, body.SeatID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOccurrenceNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
		case errors.Is(err, repository.ErrAssignmentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not in this occurrence's inventory"})
		case errors.Is(err, engine.ErrNotBookable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "occurrence is not open for booking"})
		case errors.Is(err, engine.ErrSeatUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is not available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not reserve seat"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"assignment_id": a.ID,
		"seat_id":       a.SeatID,
		"status":        a.Status,
		"expires_at":    a.ExpiresAt,
		"code":          a.Code,
	})
}

// Confirm handles POST /v1/assignments/:id/confirm, promoting a live hold
// to a booking. Only the holder may confirm.
func (h *Handler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	assignmentID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if err := h.requireHolder(ctx, assignmentID, userID); err != nil {
		return err
	}

	a, err := h.Engine.ConfirmSeat(ctx, assignmentID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAssignmentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "assignment not found"})
		case errors.Is(err, engine.ErrHoldNotConfirmable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "hold expired or not held"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not confirm seat"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"assignment_id": a.ID,
		"seat_id":       a.SeatID,
		"status":        a.Status,
		"code":          a.Code,
	})
}

// Release handles POST /v1/assignments/:id/release. Holders release their
// own rows; admins may release anyone's.
func (h *Handler) Release(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	assignmentID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if role, _ := c.Get("role").(string); role != "admin" {
		if err := h.requireHolder(ctx, assignmentID, userID); err != nil {
			return err
		}
	}

	if err := h.Engine.ReleaseSeat(ctx, assignmentID); err != nil {
		if errors.Is(err, repository.ErrAssignmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "assignment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not release seat"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "released"})
}

// BlockSeat handles POST /v1/assignments/:id/block, taking an available
// inventory row out of service. Rows that are held, occupied or already
// blocked are refused with 409.
func (h *Handler) BlockSeat(c echo.Context) error {
	assignmentID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Engine.BlockSeat(c.Request().Context(), assignmentID); err != nil {
		switch {
		case errors.Is(err, repository.ErrAssignmentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "assignment not found"})
		case errors.Is(err, engine.ErrSeatUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is not available to block"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not block seat"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "blocked"})
}

// UnblockSeat handles POST /v1/assignments/:id/unblock.
func (h *Handler) UnblockSeat(c echo.Context) error {
	assignmentID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Engine.UnblockSeat(c.Request().Context(), assignmentID); err != nil {
		switch {
		case errors.Is(err, repository.ErrAssignmentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "assignment not found"})
		case errors.Is(err, engine.ErrSeatNotBlocked):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is not blocked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not unblock seat"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "unblocked"})
}

// requireHolder returns an HTTP error unless the assignment is currently
// held or occupied by the given user. A released row has no holder and is
// treated as not owned.
func (h *Handler) requireHolder(ctx context.Context, assignmentID, userID uint64) error {
	a, err := h.Engine.Assignments().GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrAssignmentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "assignment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if a.HolderID == nil || *a.HolderID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "not your reservation")
	}
	return nil
}
