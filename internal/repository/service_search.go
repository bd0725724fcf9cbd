package repository

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ryan2kptit/location-based-services-search/internal/model"
)

// Search defaults and caps.
const (
	DefaultRadiusMeters = 5000.0
	DefaultPageSize     = 20
	MaxPageSize         = 100
)

// distanceExpr computes the great-circle distance in meters between a
// listing's POINT and the query point. POINT(X, Y) is (longitude, latitude).
const distanceExpr = `ST_Distance_Sphere(s.location, ST_SRID(POINT(?, ?), 4326))`

// SearchQuery defines the filters and pagination of a radius search.
// Zero values mean "no filter" for ServiceTypeID, Keyword, Tags and
// MinRating.
type SearchQuery struct {
	Latitude      float64
	Longitude     float64
	RadiusMeters  float64
	ServiceTypeID uint64
	Keyword       string
	Tags          []string
	MinRating     *float64
	Page          int
	PageSize      int
}

// Normalize applies the documented defaults and caps in place.
func (q *SearchQuery) Normalize() {
	if q.RadiusMeters <= 0 {
		q.RadiusMeters = DefaultRadiusMeters
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
}

// CacheKey renders every parameter that shapes the result set into a stable
// key suffix; callers prepend the search cache prefix. Two queries share an
// entry only when all parameters match.
func (q SearchQuery) CacheKey() string {
	typePart := "all"
	if q.ServiceTypeID != 0 {
		typePart = fmt.Sprintf("%d", q.ServiceTypeID)
	}
	keywordPart := "none"
	if q.Keyword != "" {
		keywordPart = q.Keyword
	}
	ratingPart := "none"
	if q.MinRating != nil {
		ratingPart = fmt.Sprintf("%g", *q.MinRating)
	}
	tagsPart := "none"
	if len(q.Tags) > 0 {
		tagsPart = strings.Join(q.Tags, ",")
	}
	// The radius is rendered at full precision: it bounds the SQL result
	// set, so two radii that round to the same value must not share an
	// entry.
	return fmt.Sprintf("%.7f:%.7f:%s:%s:%s:%s:%s:%d:%d",
		q.Latitude, q.Longitude, strconv.FormatFloat(q.RadiusMeters, 'g', -1, 64),
		typePart, keywordPart, ratingPart, tagsPart, q.Page, q.PageSize)
}

// buildSearchFilters renders the non-spatial WHERE conditions of a search.
// Keyword substring-matches name or description; tags are OR-matched against
// the tag blob; MinRating is a numeric floor. The distance bound is appended
// by the caller because its placeholder order differs between the count and
// page queries.
func buildSearchFilters(q SearchQuery) (string, []any) {
	where := []string{"s.status = ?", "s.deleted_at IS NULL"}
	args := []any{model.ServiceActive}

	if q.ServiceTypeID != 0 {
		where = append(where, "s.service_type_id = ?")
		args = append(args, q.ServiceTypeID)
	}
	if q.Keyword != "" {
		where = append(where, "(s.name LIKE ? OR s.description LIKE ?)")
		kw := "%" + q.Keyword + "%"
		args = append(args, kw, kw)
	}
	if q.MinRating != nil {
		where = append(where, "s.rating >= ?")
		args = append(args, *q.MinRating)
	}
	if len(q.Tags) > 0 {
		tagConds := make([]string, len(q.Tags))
		for i, tag := range q.Tags {
			tagConds[i] = "s.tags LIKE ?"
			args = append(args, "%"+tag+"%")
		}
		where = append(where, "("+strings.Join(tagConds, " OR ")+")")
	}
	return strings.Join(where, " AND "), args
}

// ServiceWithDistance is a listing annotated with its distance in meters from
// the query point.
type ServiceWithDistance struct {
	model.Service
	DistanceMeters float64 `json:"distance"`
}

// SearchResult is one page of a radius search.
type SearchResult struct {
	Items      []ServiceWithDistance `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int64                 `json:"total_pages"`
}

// Search runs a radius-bounded, filtered, distance-ordered page query.
// Ordering is by non-decreasing distance with id as the deterministic
// tie-break.
func (r *ServiceRepo) Search(ctx context.Context, q SearchQuery) (SearchResult, error) {
	q.Normalize()
	cond, filterArgs := buildSearchFilters(q)

	var total int64
	countSQL := `SELECT COUNT(*) FROM services s WHERE ` + cond + ` AND ` + distanceExpr + ` <= ?`
	countArgs := append(append([]any{}, filterArgs...), q.Longitude, q.Latitude, q.RadiusMeters)
	if err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return SearchResult{}, err
	}

	dataSQL := `SELECT ` + serviceColumns + `, ` + distanceExpr + ` AS distance
		FROM services s
		WHERE ` + cond + ` AND ` + distanceExpr + ` <= ?
		ORDER BY distance ASC, s.id ASC
		LIMIT ? OFFSET ?`
	dataArgs := []any{q.Longitude, q.Latitude}
	dataArgs = append(dataArgs, filterArgs...)
	dataArgs = append(dataArgs, q.Longitude, q.Latitude, q.RadiusMeters,
		q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.DB.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return SearchResult{}, err
	}
	defer rows.Close()

	items := make([]ServiceWithDistance, 0, q.PageSize)
	for rows.Next() {
		var it ServiceWithDistance
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.ServiceTypeID,
			&it.Latitude, &it.Longitude, &it.Address, &it.City, &it.Country,
			&it.Phone, &it.Email, &it.Website, &it.Rating, &it.ReviewCount,
			&it.Tags, &it.Status, &it.IsVerified, &it.IsFeatured,
			&it.ViewCount, &it.FavoriteCount, &it.CreatedAt, &it.UpdatedAt,
			&it.DistanceMeters); err != nil {
			return SearchResult{}, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return SearchResult{}, err
	}

	return SearchResult{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int64(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

// Nearby returns the top-N active listings by distance, without pagination
// bookkeeping; it is the low-latency path behind "nearby" widgets.
func (r *ServiceRepo) Nearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]ServiceWithDistance, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+serviceColumns+`, `+distanceExpr+` AS distance
		 FROM services s
		 WHERE s.status = ? AND s.deleted_at IS NULL AND `+distanceExpr+` <= ?
		 ORDER BY distance ASC, s.id ASC
		 LIMIT ?`,
		lon, lat, model.ServiceActive, lon, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ServiceWithDistance, 0, limit)
	for rows.Next() {
		var it ServiceWithDistance
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.ServiceTypeID,
			&it.Latitude, &it.Longitude, &it.Address, &it.City, &it.Country,
			&it.Phone, &it.Email, &it.Website, &it.Rating, &it.ReviewCount,
			&it.Tags, &it.Status, &it.IsVerified, &it.IsFeatured,
			&it.ViewCount, &it.FavoriteCount, &it.CreatedAt, &it.UpdatedAt,
			&it.DistanceMeters); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
