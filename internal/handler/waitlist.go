package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fitgrid/studio-reservation/internal/engine"
	"github.com/fitgrid/studio-reservation/internal/repository"
)

// JoinWaitlist handles POST /v1/occurrences/:id/waitlist. Position is by
// join time; the entry never holds a seat.
func (h *Handler) JoinWaitlist(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	occurrenceID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		PackageID *uint64 `json:"package_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	entry, err := h.Engine.JoinWaitlist(c.Request().Context(), occurrenceID, userID, body.PackageID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOccurrenceNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "occurrence not found"})
		case errors.Is(err, engine.ErrNotBookable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "occurrence is cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not join waitlist"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"entry_id":  entry.ID,
		"status":    entry.Status,
		"joined_at": entry.JoinedAt,
	})
}
