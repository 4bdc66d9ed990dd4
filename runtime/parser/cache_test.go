package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheHitReturnsSameResult(t *testing.T) {
	c := newTestConstructor("v")
	cache := NewCache(2)
	defer cache.Close()

	opts := []Opt{WithConstructor(c), WithEnvMap(nil)}

	first, hit, err := cache.Get("$v", opts...)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := cache.Get("$v", opts...)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)
	assert.Len(t, c.calls, 1, "a hit must not recompile")

	hits, misses := cache.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestCacheKeyIncludesOptions(t *testing.T) {
	assert.Equal(t, Key("$v"), Key("$v"))
	assert.NotEqual(t, Key("$v"), Key("$w"))
	assert.NotEqual(t, Key("$v"), Key("$v", WithStartLine(2)))
	assert.NotEqual(t, Key("$v"), Key("$v", WithMaxNameLength(8)))
	assert.NotEqual(t, Key("$v"), Key("$v", WithMaxTemplateSize(0)))
}

func TestCacheEvictsAndTearsDown(t *testing.T) {
	c := newTestConstructor("v")
	cache := NewCache(1)
	opts := []Opt{WithConstructor(c), WithEnvMap(nil)}

	old, _, err := cache.Get("$v", opts...)
	require.NoError(t, err)
	assert.Equal(t, 1, c.live)

	_, _, err = cache.Get("$v $v", opts...)
	require.NoError(t, err)
	assert.Equal(t, 2, c.live, "evicted template must be torn down")
	assert.Nil(t, old.Chain)
	assert.Equal(t, 1, cache.Len())

	cache.Close()
	assert.Equal(t, 0, c.live)
	assert.Equal(t, 0, cache.Len())
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	c := newTestConstructor()
	cache := NewCache(4)
	defer cache.Close()

	_, _, err := cache.Get("$missing", WithConstructor(c), WithEnvMap(nil))
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestNewCacheMinimumCapacity(t *testing.T) {
	cache := NewCache(0)
	assert.Equal(t, 1, cache.capacity)
}
