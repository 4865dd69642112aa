package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder implements port.Embedder with canned results.
type fakeEmbedder struct {
	identity string
	vector   []float32
	err      error
	calls    int
}

func (f *fakeEmbedder) Identity() string { return f.identity }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func TestFallbackEmbedder_UsesPrimaryWhenHealthy(t *testing.T) {
	primary := &fakeEmbedder{identity: "gemini/test", vector: []float32{1}}
	fallback := &fakeEmbedder{identity: "ollama/test", vector: []float32{2}}
	e := NewFallbackEmbedder(primary, fallback, NewEmbeddingCache(10))

	vector, identity, err := e.EmbedTagged(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vector)
	assert.Equal(t, "gemini/test", identity)
	assert.Zero(t, fallback.calls)
}

func TestFallbackEmbedder_FallsBackOnPrimaryFailure(t *testing.T) {
	primary := &fakeEmbedder{identity: "gemini/test", err: errors.New("429 quota exceeded")}
	fallback := &fakeEmbedder{identity: "ollama/test", vector: []float32{2}}
	e := NewFallbackEmbedder(primary, fallback, NewEmbeddingCache(10))

	vector, identity, err := e.EmbedTagged(context.Background(), "hello")

	require.NoError(t, err, "primary failure must not propagate")
	assert.Equal(t, []float32{2}, vector)
	assert.Equal(t, "ollama/test", identity)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestFallbackEmbedder_NoPrimaryRetryWithinACall(t *testing.T) {
	primary := &fakeEmbedder{identity: "gemini/test", err: errors.New("network error")}
	fallback := &fakeEmbedder{identity: "ollama/test", vector: []float32{2}}
	e := NewFallbackEmbedder(primary, fallback, NewEmbeddingCache(10))

	_, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)

	// The next call attempts the primary again: no circuit breaking.
	_, err = e.Embed(context.Background(), "world")
	require.NoError(t, err)
	assert.Equal(t, 2, primary.calls)
}

func TestFallbackEmbedder_BothFailPropagates(t *testing.T) {
	primary := &fakeEmbedder{identity: "gemini/test", err: errors.New("down")}
	fallback := &fakeEmbedder{identity: "ollama/test", err: errors.New("also down")}
	e := NewFallbackEmbedder(primary, fallback, NewEmbeddingCache(10))

	_, err := e.Embed(context.Background(), "hello")

	require.Error(t, err)
}

func TestFallbackEmbedder_NilPrimaryGoesStraightToFallback(t *testing.T) {
	fallback := &fakeEmbedder{identity: "ollama/test", vector: []float32{2}}
	e := NewFallbackEmbedder(nil, fallback, NewEmbeddingCache(10))

	vector, identity, err := e.EmbedTagged(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{2}, vector)
	assert.Equal(t, "ollama/test", identity)
	assert.Equal(t, []string{"ollama/test"}, e.Identities())
}

func TestFallbackEmbedder_MemoizesRepeatedQueries(t *testing.T) {
	primary := &fakeEmbedder{identity: "gemini/test", vector: []float32{1}}
	fallback := &fakeEmbedder{identity: "ollama/test", vector: []float32{2}}
	e := NewFallbackEmbedder(primary, fallback, NewEmbeddingCache(10))

	for i := 0; i < 5; i++ {
		_, err := e.Embed(context.Background(), "same question")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, primary.calls, "repeated queries should be served from the cache")
}

func TestFallbackEmbedder_BatchCachesPerText(t *testing.T) {
	primary := &fakeEmbedder{identity: "gemini/test", vector: []float32{1}}
	fallback := &fakeEmbedder{identity: "ollama/test", vector: []float32{2}}
	cache := NewEmbeddingCache(10)
	e := NewFallbackEmbedder(primary, fallback, cache)

	vectors, identity, err := e.EmbedBatchTagged(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, "gemini/test", identity)

	// A fully cached batch needs no provider call at all.
	before := primary.calls
	_, _, err = e.EmbedBatchTagged(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, before, primary.calls)
}

func TestFallbackEmbedder_BatchFallbackReportsFallbackIdentity(t *testing.T) {
	primary := &fakeEmbedder{identity: "gemini/test", err: errors.New("quota")}
	fallback := &fakeEmbedder{identity: "ollama/test", vector: []float32{2}}
	e := NewFallbackEmbedder(primary, fallback, NewEmbeddingCache(10))

	_, identity, err := e.EmbedBatchTagged(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, "ollama/test", identity)
}
