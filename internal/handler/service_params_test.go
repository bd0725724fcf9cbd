package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueryContext(t *testing.T, query string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("GET", "/v1/services/search?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestRequireCoords(t *testing.T) {
	t.Run("valid pair", func(t *testing.T) {
		lat, lon, err := requireCoords(newQueryContext(t, "lat=21.0285&lon=105.8542"))
		require.NoError(t, err)
		assert.Equal(t, 21.0285, lat)
		assert.Equal(t, 105.8542, lon)
	})
	t.Run("missing lat", func(t *testing.T) {
		_, _, err := requireCoords(newQueryContext(t, "lon=105.8542"))
		assert.Error(t, err)
	})
	t.Run("missing lon", func(t *testing.T) {
		_, _, err := requireCoords(newQueryContext(t, "lat=21.0285"))
		assert.Error(t, err)
	})
	t.Run("not a number", func(t *testing.T) {
		_, _, err := requireCoords(newQueryContext(t, "lat=north&lon=105.8542"))
		assert.Error(t, err)
	})
	t.Run("out of range", func(t *testing.T) {
		_, _, err := requireCoords(newQueryContext(t, "lat=91&lon=105.8542"))
		assert.Error(t, err)
	})
}

func TestPageSizeOf(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		page     int
		pageSize int
	}{
		{name: "defaults", query: "", page: 1, pageSize: 20},
		{name: "explicit", query: "page=3&page_size=50", page: 3, pageSize: 50},
		{name: "capped", query: "page_size=500", page: 1, pageSize: 100},
		{name: "zero page", query: "page=0", page: 1, pageSize: 20},
		{name: "garbage ignored", query: "page=abc&page_size=xyz", page: 1, pageSize: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, pageSize := pageSizeOf(newQueryContext(t, tt.query))
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.pageSize, pageSize)
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int64(0), totalPages(0, 20))
	assert.Equal(t, int64(1), totalPages(1, 20))
	assert.Equal(t, int64(1), totalPages(20, 20))
	assert.Equal(t, int64(2), totalPages(21, 20))
	assert.Equal(t, int64(0), totalPages(10, 0))
}

func TestQueryUint(t *testing.T) {
	assert.Equal(t, uint64(7), queryUint(newQueryContext(t, "type_id=7"), "type_id"))
	assert.Equal(t, uint64(0), queryUint(newQueryContext(t, "type_id=-1"), "type_id"))
	assert.Equal(t, uint64(0), queryUint(newQueryContext(t, ""), "type_id"))
}
