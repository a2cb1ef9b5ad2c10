// Package handler contains the HTTP handlers for the scheduling and
// reservation API. Handlers validate and bind requests, call into the
// engine and map its sentinel errors onto status codes; no business rules
// live here.
package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fitgrid/studio-reservation/internal/engine"
)

// Handler bundles the engine for all route groups.
type Handler struct {
	Engine *engine.Engine
}

// New constructs a Handler and panics on a nil engine.
func New(eng *engine.Engine) *Handler {
	if eng == nil {
		panic("nil engine passed to handler.New")
	}
	return &Handler{Engine: eng}
}

// getUserID extracts the authenticated user id placed in the context by the
// JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses the named numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
