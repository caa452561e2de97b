package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetInvalidate(t *testing.T) {
	cache := NewMemoryCache(0) // no expiry

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Set("k", 42)
	v, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	cache.Invalidate("k")
	_, ok = cache.Get("k")
	assert.False(t, ok)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	cache := NewMemoryCache(10 * time.Millisecond)
	cache.Set("k", "v")

	_, ok := cache.Get("k")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get("k")
	assert.False(t, ok)
}
