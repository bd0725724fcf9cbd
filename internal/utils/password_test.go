package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryan2kptit/location-based-services-search/internal/utils"
)

// Tests use a low cost; production uses the configured default.
const testCost = 4

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := utils.HashPassword("s3cret-passw0rd", testCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret-passw0rd", hash)

	assert.True(t, utils.VerifyPassword(hash, "s3cret-passw0rd"))
	assert.False(t, utils.VerifyPassword(hash, "wrong-password"))
	assert.False(t, utils.VerifyPassword(hash, ""))
}

func TestHashesAreSalted(t *testing.T) {
	a, err := utils.HashPassword("same-input", testCost)
	require.NoError(t, err)
	b, err := utils.HashPassword("same-input", testCost)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashCostOutOfRangeFallsBack(t *testing.T) {
	for _, cost := range []int{-1, 0, 99} {
		hash, err := utils.HashPassword("s3cret-passw0rd", cost)
		require.NoError(t, err)
		assert.True(t, utils.VerifyPassword(hash, "s3cret-passw0rd"))
	}
}

func TestVerifyGarbageHash(t *testing.T) {
	assert.False(t, utils.VerifyPassword("not-a-bcrypt-hash", "anything"))
}
