package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ryan2kptit/location-based-services-search/internal/cache"
	"github.com/ryan2kptit/location-based-services-search/internal/middleware"
	"github.com/ryan2kptit/location-based-services-search/internal/queue"
	"github.com/ryan2kptit/location-based-services-search/internal/repository"
	qp "github.com/ryan2kptit/location-based-services-search/internal/service/queue_publisher"
)

// FavoriteHandler bundles dependencies for the favorites endpoints.
type FavoriteHandler struct {
	Favorites *repository.FavoriteRepo
	Services  *repository.ServiceRepo
	Cache     *cache.Cache
}

func NewFavoriteHandler(f *repository.FavoriteRepo, s *repository.ServiceRepo, ch *cache.Cache) *FavoriteHandler {
	return &FavoriteHandler{Favorites: f, Services: s, Cache: ch}
}

type createFavoriteReq struct {
	ServiceID uint64 `json:"service_id"`
}

// Create favorites a service for the caller and bumps the service's counter
// in the same transaction. The created event is published off the request
// path; a broker outage never fails the favorite.
func (h *FavoriteHandler) Create(c echo.Context) error {
	var req createFavoriteReq
	if err := c.Bind(&req); err != nil || req.ServiceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_id required"})
	}

	userID := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fav, err := h.Favorites.Create(ctx, userID, req.ServiceID)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "already favorited"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}

	// Popular ordering depends on favorite counts.
	h.Cache.DeletePrefix(ctx, cache.PopularPrefix)

	if s, err := h.Services.GetByID(ctx, req.ServiceID); err == nil {
		ev := queue.FavoriteCreatedEvent{
			FavoriteID:    fav.ID,
			UserID:        userID,
			ServiceID:     s.ID,
			ServiceName:   s.Name,
			ServiceTypeID: s.ServiceTypeID,
			Latitude:      s.Latitude,
			Longitude:     s.Longitude,
			FavoriteCount: s.FavoriteCount,
			CreatedAt:     fav.CreatedAt.UTC().Format(time.RFC3339),
		}
		go func() {
			pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer pubCancel()
			if err := qp.PublishFavoriteCreated(pubCtx, ev); err != nil {
				log.Printf("favorite: publish event failed: %v", err)
			}
		}()
	}

	return c.JSON(http.StatusCreated, fav)
}

// List returns the caller's favorites with their services, newest first.
func (h *FavoriteHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Favorites.ListByUser(ctx, middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListByType returns the caller's favorites restricted to one service type.
func (h *FavoriteHandler) ListByType(c echo.Context) error {
	typeID, err := strconv.ParseUint(c.Param("typeId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Favorites.ListByServiceType(ctx, middleware.UserID(c), typeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Check reports whether the caller has favorited the service.
func (h *FavoriteHandler) Check(c echo.Context) error {
	serviceID, err := strconv.ParseUint(c.Param("serviceId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fav, err := h.Favorites.IsFavorite(ctx, middleware.UserID(c), serviceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"is_favorite": fav})
}

// Get returns one favorite of the caller with its service.
func (h *FavoriteHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fav, err := h.Favorites.GetByID(ctx, middleware.UserID(c), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "favorite not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, fav)
}

// Delete removes one of the caller's favorites and decrements the service's
// counter in the same transaction.
func (h *FavoriteHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Favorites.Delete(ctx, middleware.UserID(c), id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "favorite not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.Cache.DeletePrefix(ctx, cache.PopularPrefix)
	return c.JSON(http.StatusOK, echo.Map{"message": "favorite removed"})
}
