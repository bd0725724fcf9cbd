package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ryan2kptit/location-based-services-search/internal/geo"
	"github.com/ryan2kptit/location-based-services-search/internal/middleware"
	"github.com/ryan2kptit/location-based-services-search/internal/model"
	"github.com/ryan2kptit/location-based-services-search/internal/repository"
)

// LocationHandler bundles dependencies for the location tracking endpoints.
type LocationHandler struct {
	Locations *repository.LocationRepo
}

func NewLocationHandler(l *repository.LocationRepo) *LocationHandler {
	return &LocationHandler{Locations: l}
}

type trackLocationReq struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Type      string  `json:"type"`
	IsDefault bool    `json:"is_default"`
}

type updateLocationReq struct {
	Name      *string  `json:"name"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Type      *string  `json:"type"`
	IsDefault *bool    `json:"is_default"`
}

func validLocationType(t string) bool {
	switch t {
	case model.LocationHome, model.LocationWork, model.LocationOther:
		return true
	}
	return false
}

// Track records a new position for the caller. Marking it default demotes
// the previous default in the same transaction, so the user always has at
// most one current location.
func (h *LocationHandler) Track(c echo.Context) error {
	var req trackLocationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := geo.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Type == "" {
		req.Type = model.LocationOther
	}
	if !validLocationType(req.Type) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid location type"})
	}
	req.Name = strings.TrimSpace(req.Name)

	userID := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Locations.Track(ctx, model.UserLocation{
		UserID:    userID,
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Type:      req.Type,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "track failed"})
	}

	l, err := h.Locations.GetByID(ctx, userID, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusCreated, l)
}

// Current returns the caller's default location.
func (h *LocationHandler) Current(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Locations.Current(ctx, middleware.UserID(c))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no current location"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, l)
}

// History returns the caller's tracked locations, newest first.
func (h *LocationHandler) History(c echo.Context) error {
	limit := queryInt(c, "limit", repository.DefaultPageSize)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Locations.History(ctx, middleware.UserID(c), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get returns one of the caller's locations.
func (h *LocationHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Locations.GetByID(ctx, middleware.UserID(c), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, l)
}

// Update patches one of the caller's locations. Promoting a location to
// default demotes the others transactionally.
func (h *LocationHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateLocationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "latitude and longitude must be set together"})
	}
	if req.Latitude != nil {
		if err := geo.ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}
	if req.Type != nil && !validLocationType(*req.Type) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid location type"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Locations.Update(ctx, middleware.UserID(c), id, repository.LocationUpdate{
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Type:      req.Type,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, l)
}

// Delete removes one of the caller's locations.
func (h *LocationHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Locations.Delete(ctx, middleware.UserID(c), id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "location deleted"})
}

// NearbyUsers lists default locations of other users around a point.
func (h *LocationHandler) NearbyUsers(c echo.Context) error {
	lat, lon, err := requireCoords(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	radius, _, err := queryFloat(c, "radius")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	limit := queryInt(c, "limit", repository.DefaultPageSize)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Locations.NearbyUsers(ctx, lat, lon, radius, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Distance returns the great-circle distance in meters between two tracked
// locations.
func (h *LocationHandler) Distance(c echo.Context) error {
	from := queryUint(c, "from")
	to := queryUint(c, "to")
	if from == 0 || to == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Locations.DistanceBetween(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"distance": d})
}
