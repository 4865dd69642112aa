package ai

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingCache_PutGet(t *testing.T) {
	c := NewEmbeddingCache(10)

	c.Put("gemini/test", "hello", []float32{1, 2, 3})

	got, ok := c.Get("gemini/test", "hello")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got)

	_, ok = c.Get("gemini/test", "other")
	assert.False(t, ok)
}

func TestEmbeddingCache_KeyedByProviderIdentity(t *testing.T) {
	c := NewEmbeddingCache(10)

	c.Put("gemini/test", "hello", []float32{1})
	c.Put("ollama/test", "hello", []float32{2})

	gemini, ok := c.Get("gemini/test", "hello")
	require.True(t, ok)
	ollama, ok2 := c.Get("ollama/test", "hello")
	require.True(t, ok2)
	assert.NotEqual(t, gemini, ollama)
}

func TestEmbeddingCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewEmbeddingCache(3)

	for i := 0; i < 3; i++ {
		c.Put("p", fmt.Sprintf("text-%d", i), []float32{float32(i)})
	}

	// Touch text-0 so text-1 becomes the eviction candidate.
	_, ok := c.Get("p", "text-0")
	require.True(t, ok)

	c.Put("p", "text-3", []float32{3})

	assert.Equal(t, 3, c.Len())
	_, ok = c.Get("p", "text-1")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("p", "text-0")
	assert.True(t, ok)
	_, ok = c.Get("p", "text-3")
	assert.True(t, ok)
}

func TestEmbeddingCache_StaysBounded(t *testing.T) {
	c := NewEmbeddingCache(50)

	for i := 0; i < 500; i++ {
		c.Put("p", fmt.Sprintf("text-%d", i), []float32{float32(i)})
	}

	assert.Equal(t, 50, c.Len())
}
