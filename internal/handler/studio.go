package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fitgrid/studio-reservation/internal/engine"
	"github.com/fitgrid/studio-reservation/internal/model"
	"github.com/fitgrid/studio-reservation/internal/repository"
)

// CreateStudio handles POST /v1/studios. The studio's seat set is
// generated immediately from the grid configuration.
func (h *Handler) CreateStudio(c echo.Context) error {
	var body struct {
		Name            string `json:"name"`
		GridRows        int    `json:"grid_rows"`
		GridCols        int    `json:"grid_cols"`
		CapacityPerSeat int    `json:"capacity_per_seat"`
		Addressing      string `json:"addressing"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" || body.GridRows <= 0 || body.GridCols <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, grid_rows and grid_cols are required and must be greater than zero"})
	}
	addressing := model.Addressing(body.Addressing)
	if body.Addressing == "" {
		addressing = model.AddressingLeftToRight
	}
	if !addressing.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "addressing must be one of left_to_right, right_to_left, center_out"})
	}
	capacity := body.CapacityPerSeat
	if capacity <= 0 {
		capacity = body.GridRows * body.GridCols
	}

	studio := &model.Studio{
		Name:            body.Name,
		GridRows:        body.GridRows,
		GridCols:        body.GridCols,
		CapacityPerSeat: capacity,
		Addressing:      addressing,
		IsActive:        true,
	}
	ctx := c.Request().Context()
	if err := h.Engine.Studios().Create(ctx, studio); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create studio"})
	}
	if err := h.Engine.GenerateSeats(ctx, studio); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not generate seats"})
	}
	return c.JSON(http.StatusCreated, studio)
}

// GetStudio handles GET /v1/studios/:id.
func (h *Handler) GetStudio(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	studio, err := h.Engine.Studios().GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrStudioNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "studio not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, studio)
}

// UpdateStudio handles PUT /v1/studios/:id. A change to the grid shape,
// capacity or addressing regenerates the studio's seats. Occurrences keep
// their existing inventory rows, which still reference the old seat set;
// each one must be rebuilt explicitly via
// POST /v1/occurrences/:id/inventory/regenerate, and the response carries
// that reminder whenever the layout changed.
func (h *Handler) UpdateStudio(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	studio, err := h.Engine.Studios().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStudioNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "studio not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	var body struct {
		Name            *string `json:"name"`
		GridRows        *int    `json:"grid_rows"`
		GridCols        *int    `json:"grid_cols"`
		CapacityPerSeat *int    `json:"capacity_per_seat"`
		Addressing      *string `json:"addressing"`
		IsActive        *bool   `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	layoutChanged := false
	if body.Name != nil && strings.TrimSpace(*body.Name) != "" {
		studio.Name = strings.TrimSpace(*body.Name)
	}
	if body.GridRows != nil && *body.GridRows > 0 && *body.GridRows != studio.GridRows {
		studio.GridRows = *body.GridRows
		layoutChanged = true
	}
	if body.GridCols != nil && *body.GridCols > 0 && *body.GridCols != studio.GridCols {
		studio.GridCols = *body.GridCols
		layoutChanged = true
	}
	if body.CapacityPerSeat != nil && *body.CapacityPerSeat > 0 && *body.CapacityPerSeat != studio.CapacityPerSeat {
		studio.CapacityPerSeat = *body.CapacityPerSeat
		layoutChanged = true
	}
	if body.Addressing != nil {
		a := model.Addressing(*body.Addressing)
		if !a.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "addressing must be one of left_to_right, right_to_left, center_out"})
		}
		if a != studio.Addressing {
			studio.Addressing = a
			layoutChanged = true
		}
	}
	if body.IsActive != nil {
		studio.IsActive = *body.IsActive
	}

	if err := h.Engine.Studios().Update(ctx, studio); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update studio"})
	}
	resp := echo.Map{"studio": studio, "seats_regenerated": layoutChanged}
	if layoutChanged {
		if err := h.Engine.RegenerateSeats(ctx, id); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not regenerate seats"})
		}
		resp["note"] = "existing occurrence inventories still reference the old seats; rebuild each via POST /v1/occurrences/:id/inventory/regenerate"
	}
	return c.JSON(http.StatusOK, resp)
}

// ListSeats handles GET /v1/studios/:id/seats and returns the studio's
// active seats in seat-number order.
func (h *Handler) ListSeats(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	seats, err := h.Engine.Seats().ListActiveByStudio(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats, "count": len(seats)})
}

// RegenerateSeats handles POST /v1/studios/:id/seats/regenerate, replacing
// the seat set after a grid change.
func (h *Handler) RegenerateSeats(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Engine.RegenerateSeats(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrStudioNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "studio not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not regenerate seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "seats regenerated"})
}

// DeleteSeat handles DELETE /v1/seats/:id. Seats already referenced by
// assignment history are refused with 409; the survivors are renumbered
// into a dense sequence.
func (h *Handler) DeleteSeat(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Engine.DeleteSeat(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, engine.ErrSeatInUse):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat has assignment history and can only be deactivated"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete seat"})
	}
	return c.NoContent(http.StatusNoContent)
}
