package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ryan2kptit/location-based-services-search/internal/cache"
)

// Without a Redis client every operation must degrade to a no-op so the
// service keeps answering from the database.
func TestNilClientDegradesGracefully(t *testing.T) {
	ctx := context.Background()
	c := cache.New(nil)

	assert.False(t, c.Enabled())

	var dest map[string]string
	assert.False(t, c.GetJSON(ctx, "some:key", &dest))

	assert.NotPanics(t, func() {
		c.SetJSON(ctx, "some:key", map[string]string{"a": "b"}, time.Minute)
		c.Delete(ctx, "some:key", "other:key")
		c.DeletePrefix(ctx, cache.SearchPrefix, cache.PopularPrefix)
	})
}

func TestNilCacheValueDegradesGracefully(t *testing.T) {
	var c *cache.Cache
	assert.False(t, c.Enabled())
	assert.False(t, c.GetJSON(context.Background(), "k", new(int)))
	assert.NotPanics(t, func() {
		c.Delete(context.Background(), "k")
	})
}

// Key prefixes are part of the invalidation contract: writes drop whole
// prefixes, so readers and writers must agree on them exactly.
func TestKeyPrefixes(t *testing.T) {
	assert.Equal(t, "services:search:", cache.SearchPrefix)
	assert.Equal(t, "services:popular:", cache.PopularPrefix)
	assert.Equal(t, "service-types:", cache.TypesPrefix)
	assert.Equal(t, "user:jwt-validation:", cache.JWTValidationKey)
	assert.Equal(t, "user:refresh-token-validation:", cache.TokenValidationKey)
}
