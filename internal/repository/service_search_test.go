package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryan2kptit/location-based-services-search/internal/model"
)

func TestSearchQueryNormalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		q := SearchQuery{Latitude: 21.0285, Longitude: 105.8542}
		q.Normalize()
		assert.Equal(t, DefaultRadiusMeters, q.RadiusMeters)
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, DefaultPageSize, q.PageSize)
	})
	t.Run("page size is capped", func(t *testing.T) {
		q := SearchQuery{PageSize: 5000}
		q.Normalize()
		assert.Equal(t, MaxPageSize, q.PageSize)
	})
	t.Run("explicit values survive", func(t *testing.T) {
		q := SearchQuery{RadiusMeters: 250, Page: 3, PageSize: 50}
		q.Normalize()
		assert.Equal(t, 250.0, q.RadiusMeters)
		assert.Equal(t, 3, q.Page)
		assert.Equal(t, 50, q.PageSize)
	})
}

func TestSearchQueryCacheKey(t *testing.T) {
	base := SearchQuery{Latitude: 21.0285, Longitude: 105.8542}
	base.Normalize()

	t.Run("stable for identical queries", func(t *testing.T) {
		other := base
		assert.Equal(t, base.CacheKey(), other.CacheKey())
	})

	t.Run("placeholders for unset filters", func(t *testing.T) {
		key := base.CacheKey()
		assert.Contains(t, key, ":all:")
		assert.Contains(t, key, ":none:")
	})

	t.Run("fractional radii do not collide", func(t *testing.T) {
		a := SearchQuery{Latitude: 21.0285, Longitude: 105.8542, RadiusMeters: 1000}
		b := SearchQuery{Latitude: 21.0285, Longitude: 105.8542, RadiusMeters: 1000.4}
		a.Normalize()
		b.Normalize()
		assert.NotEqual(t, a.CacheKey(), b.CacheKey())
	})

	t.Run("every filter shapes the key", func(t *testing.T) {
		rating := 4.0
		variants := []SearchQuery{
			{Latitude: 21.03, Longitude: 105.8542},
			{Latitude: 21.0285, Longitude: 105.8542, RadiusMeters: 1000},
			{Latitude: 21.0285, Longitude: 105.8542, ServiceTypeID: 2},
			{Latitude: 21.0285, Longitude: 105.8542, Keyword: "pho"},
			{Latitude: 21.0285, Longitude: 105.8542, Tags: []string{"wifi"}},
			{Latitude: 21.0285, Longitude: 105.8542, MinRating: &rating},
			{Latitude: 21.0285, Longitude: 105.8542, Page: 2},
			{Latitude: 21.0285, Longitude: 105.8542, PageSize: 50},
		}
		seen := map[string]bool{base.CacheKey(): true}
		for _, v := range variants {
			v.Normalize()
			key := v.CacheKey()
			assert.False(t, seen[key], "key collision: %s", key)
			seen[key] = true
		}
	})
}

func TestBuildSearchFilters(t *testing.T) {
	t.Run("base conditions", func(t *testing.T) {
		cond, args := buildSearchFilters(SearchQuery{})
		assert.Contains(t, cond, "s.status = ?")
		assert.Contains(t, cond, "s.deleted_at IS NULL")
		require.Len(t, args, 1)
		assert.Equal(t, model.ServiceActive, args[0])
	})

	t.Run("keyword matches name or description", func(t *testing.T) {
		cond, args := buildSearchFilters(SearchQuery{Keyword: "pho"})
		assert.Contains(t, cond, "s.name LIKE ?")
		assert.Contains(t, cond, "s.description LIKE ?")
		assert.Contains(t, args, "%pho%")
	})

	t.Run("type and rating", func(t *testing.T) {
		rating := 4.5
		cond, args := buildSearchFilters(SearchQuery{ServiceTypeID: 3, MinRating: &rating})
		assert.Contains(t, cond, "s.service_type_id = ?")
		assert.Contains(t, cond, "s.rating >= ?")
		assert.Contains(t, args, uint64(3))
		assert.Contains(t, args, 4.5)
	})

	t.Run("tags are OR-matched", func(t *testing.T) {
		cond, args := buildSearchFilters(SearchQuery{Tags: []string{"wifi", "parking"}})
		assert.Equal(t, 2, strings.Count(cond, "s.tags LIKE ?"))
		assert.Contains(t, cond, " OR ")
		assert.Contains(t, args, "%wifi%")
		assert.Contains(t, args, "%parking%")
	})

	t.Run("filters are ANDed", func(t *testing.T) {
		cond, _ := buildSearchFilters(SearchQuery{ServiceTypeID: 1, Keyword: "x"})
		assert.Equal(t, 3, strings.Count(cond, " AND "))
	})
}
