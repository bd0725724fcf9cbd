package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ryan2kptit/location-based-services-search/internal/cache"
	"github.com/ryan2kptit/location-based-services-search/internal/config"
	"github.com/ryan2kptit/location-based-services-search/internal/geo"
	"github.com/ryan2kptit/location-based-services-search/internal/model"
	"github.com/ryan2kptit/location-based-services-search/internal/repository"
)

// ServiceHandler bundles dependencies for the listing endpoints. Read paths
// go through the cache; every admin write drops the coarse search and popular
// prefixes so no stale page survives a change.
type ServiceHandler struct {
	CacheCfg config.CacheConfig
	Services *repository.ServiceRepo
	Types    *repository.ServiceTypeRepo
	Cache    *cache.Cache
}

func NewServiceHandler(ccfg config.CacheConfig, s *repository.ServiceRepo, t *repository.ServiceTypeRepo, ch *cache.Cache) *ServiceHandler {
	return &ServiceHandler{CacheCfg: ccfg, Services: s, Types: t, Cache: ch}
}

type createServiceReq struct {
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	ServiceTypeID uint64  `json:"service_type_id"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	Country       *string `json:"country"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Website       *string `json:"website"`
	Tags          *string `json:"tags"`
}

type updateServiceReq struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	ServiceTypeID *uint64  `json:"service_type_id"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Address       *string  `json:"address"`
	City          *string  `json:"city"`
	Country       *string  `json:"country"`
	Phone         *string  `json:"phone"`
	Email         *string  `json:"email"`
	Website       *string  `json:"website"`
	Tags          *string  `json:"tags"`
	Status        *string  `json:"status"`
}

type pagedServices struct {
	Items      []model.Service `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int64           `json:"total_pages"`
}

// ----- query param helpers -----

func queryFloat(c echo.Context, name string) (float64, bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s", name)
	}
	return v, true, nil
}

func queryInt(c echo.Context, name string, def int) int {
	if raw := c.QueryParam(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

func queryUint(c echo.Context, name string) uint64 {
	if raw := c.QueryParam(name); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return v
		}
	}
	return 0
}

// requireCoords parses the mandatory lat/lon pair and validates the range.
func requireCoords(c echo.Context) (lat, lon float64, err error) {
	lat, ok, err := queryFloat(c, "lat")
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, fmt.Errorf("lat required")
	}
	lon, ok, err = queryFloat(c, "lon")
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, fmt.Errorf("lon required")
	}
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func pageSizeOf(c echo.Context) (page, pageSize int) {
	page = queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize = queryInt(c, "page_size", repository.DefaultPageSize)
	if pageSize < 1 {
		pageSize = repository.DefaultPageSize
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}
	return page, pageSize
}

// Search runs a filtered radius search around a point. Results are served
// from the cache when an identical query was answered recently.
func (h *ServiceHandler) Search(c echo.Context) error {
	lat, lon, err := requireCoords(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	radius, _, err := queryFloat(c, "radius")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	minRating, hasRating, err := queryFloat(c, "min_rating")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	q := repository.SearchQuery{
		Latitude:      lat,
		Longitude:     lon,
		RadiusMeters:  radius,
		ServiceTypeID: queryUint(c, "type_id"),
		Keyword:       strings.TrimSpace(c.QueryParam("keyword")),
	}
	if hasRating {
		q.MinRating = &minRating
	}
	if raw := strings.TrimSpace(c.QueryParam("tags")); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				q.Tags = append(q.Tags, tag)
			}
		}
	}
	q.Page, q.PageSize = pageSizeOf(c)
	q.Normalize()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	key := cache.SearchPrefix + q.CacheKey()
	var cached repository.SearchResult
	if h.Cache.GetJSON(ctx, key, &cached) {
		return c.JSON(http.StatusOK, cached)
	}

	res, err := h.Services.Search(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	h.Cache.SetJSON(ctx, key, res, h.CacheCfg.SearchTTL)
	return c.JSON(http.StatusOK, res)
}

// Nearby returns the closest active listings to a point, nearest first.
func (h *ServiceHandler) Nearby(c echo.Context) error {
	lat, lon, err := requireCoords(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	radius, ok, err := queryFloat(c, "radius")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !ok || radius <= 0 {
		radius = repository.DefaultRadiusMeters
	}
	limit := queryInt(c, "limit", 10)
	if limit < 1 {
		limit = 10
	}
	if limit > repository.MaxPageSize {
		limit = repository.MaxPageSize
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Services.Nearby(ctx, lat, lon, radius, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Popular returns a cached page of the most engaged listings.
func (h *ServiceHandler) Popular(c echo.Context) error {
	page, pageSize := pageSizeOf(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	key := fmt.Sprintf("%s%d:%d", cache.PopularPrefix, page, pageSize)
	var cached pagedServices
	if h.Cache.GetJSON(ctx, key, &cached) {
		return c.JSON(http.StatusOK, cached)
	}

	items, total, err := h.Services.Popular(ctx, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	resp := pagedServices{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages(total, pageSize)}
	h.Cache.SetJSON(ctx, key, resp, h.CacheCfg.PopularTTL)
	return c.JSON(http.StatusOK, resp)
}

// List returns a page of active listings, newest first.
func (h *ServiceHandler) List(c echo.Context) error {
	page, pageSize := pageSizeOf(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Services.List(ctx, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, pagedServices{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages(total, pageSize)})
}

func totalPages(total int64, pageSize int) int64 {
	if pageSize <= 0 {
		return 0
	}
	return (total + int64(pageSize) - 1) / int64(pageSize)
}

// Get fetches one listing and counts the view.
func (h *ServiceHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	// Best effort; a lost increment never fails the read.
	_ = h.Services.IncrementView(ctx, id)
	s.ViewCount++
	return c.JSON(http.StatusOK, s)
}

// ListTypes returns all active service types, cached under a single key.
func (h *ServiceHandler) ListTypes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	key := cache.TypesPrefix + "all"
	var cached []model.ServiceType
	if h.Cache.GetJSON(ctx, key, &cached) {
		return c.JSON(http.StatusOK, echo.Map{"items": cached})
	}

	types, err := h.Types.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	h.Cache.SetJSON(ctx, key, types, h.CacheCfg.TypesTTL)
	return c.JSON(http.StatusOK, echo.Map{"items": types})
}

// GetType returns one service type.
func (h *ServiceHandler) GetType(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Types.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, st)
}

// invalidateListings drops every cached search and popular page. Coarse, but
// correct: no stale entry can outlive a write.
func (h *ServiceHandler) invalidateListings(ctx context.Context) {
	h.Cache.DeletePrefix(ctx, cache.SearchPrefix, cache.PopularPrefix)
}

// Create registers a new listing. Admin only.
func (h *ServiceHandler) Create(c echo.Context) error {
	var req createServiceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.ServiceTypeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/service_type_id required"})
	}
	if err := geo.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Services.Create(ctx, model.Service{
		Name:          req.Name,
		Description:   req.Description,
		ServiceTypeID: req.ServiceTypeID,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		Phone:         req.Phone,
		Email:         req.Email,
		Website:       req.Website,
		Tags:          req.Tags,
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown service type"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}

	s, err := h.Services.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	h.invalidateListings(ctx)
	return c.JSON(http.StatusCreated, s)
}

// Update patches a listing. Admin only. Latitude and longitude must be given
// together so the indexed point stays consistent with the pair.
func (h *ServiceHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateServiceReq
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
	if req.Status != nil {
		switch *req.Status {
		case model.ServiceActive, model.ServiceInactive, model.ServicePending, model.ServiceClosed:
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.Update(ctx, id, repository.ServiceUpdate{
		Name:          req.Name,
		Description:   req.Description,
		ServiceTypeID: req.ServiceTypeID,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		Phone:         req.Phone,
		Email:         req.Email,
		Website:       req.Website,
		Tags:          req.Tags,
		Status:        req.Status,
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.invalidateListings(ctx)
	return c.JSON(http.StatusOK, s)
}

// Delete soft-deletes a listing. Admin only.
func (h *ServiceHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Services.SoftDelete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.invalidateListings(ctx)
	return c.JSON(http.StatusOK, echo.Map{"message": "service deleted"})
}
