package ai

import (
	"context"
	"log/slog"

	"github.com/gryork-engineers/grybot/internal/metrics"
	"github.com/gryork-engineers/grybot/internal/port"
)

// FallbackEmbedder tries the primary (remote, quota-limited) embedder and, on
// any failure, retries the same call against the local fallback. Failure
// subtypes are not distinguished and the primary is never retried within a
// call; each call independently attempts primary-then-fallback. Results are
// memoized in a shared LRU cache keyed by provider identity.
//
// The two providers produce vectors in different embedding spaces; callers
// that persist vectors must record which provider produced them.
type FallbackEmbedder struct {
	primary  port.Embedder // may be nil when no credential is available
	fallback port.Embedder
	cache    *EmbeddingCache
}

// NewFallbackEmbedder wraps a primary and a fallback embedder. primary may be
// nil, in which case every call goes straight to the fallback.
func NewFallbackEmbedder(primary, fallback port.Embedder, cache *EmbeddingCache) *FallbackEmbedder {
	return &FallbackEmbedder{primary: primary, fallback: fallback, cache: cache}
}

// Identities returns the embedding-space identifiers this pair can produce,
// primary first.
func (e *FallbackEmbedder) Identities() []string {
	var ids []string
	if e.primary != nil {
		ids = append(ids, e.primary.Identity())
	}
	return append(ids, e.fallback.Identity())
}

// Embed embeds one text via the primary, falling back to the local embedder
// on any primary failure. No error from the primary propagates.
func (e *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, _, err := e.EmbedTagged(ctx, text)
	return vector, err
}

// EmbedTagged is Embed plus the identity of the provider that served the call.
func (e *FallbackEmbedder) EmbedTagged(ctx context.Context, text string) ([]float32, string, error) {
	if e.primary != nil {
		if vector, ok := e.cache.Get(e.primary.Identity(), text); ok {
			return vector, e.primary.Identity(), nil
		}
		vector, err := e.primary.Embed(ctx, text)
		if err == nil {
			e.cache.Put(e.primary.Identity(), text, vector)
			return vector, e.primary.Identity(), nil
		}
		slog.Warn("primary embedder failed, using fallback", "primary", e.primary.Identity(), "fallback", e.fallback.Identity(), "error", err)
		metrics.EmbeddingFallbacks.Inc()
	}

	if vector, ok := e.cache.Get(e.fallback.Identity(), text); ok {
		return vector, e.fallback.Identity(), nil
	}
	vector, err := e.fallback.Embed(ctx, text)
	if err != nil {
		return nil, "", err
	}
	e.cache.Put(e.fallback.Identity(), text, vector)
	return vector, e.fallback.Identity(), nil
}

// EmbedBatchTagged embeds a batch via the primary, retrying the whole batch
// against the fallback on any primary failure. It returns the identity of the
// provider that produced the vectors so index builders can pin the embedding
// space.
func (e *FallbackEmbedder) EmbedBatchTagged(ctx context.Context, texts []string) ([][]float32, string, error) {
	if e.primary != nil {
		vectors, err := e.embedBatchCached(ctx, e.primary, texts)
		if err == nil {
			return vectors, e.primary.Identity(), nil
		}
		slog.Warn("primary embedder failed on batch, using fallback", "primary", e.primary.Identity(), "fallback", e.fallback.Identity(), "error", err)
		metrics.EmbeddingFallbacks.Inc()
	}

	vectors, err := e.embedBatchCached(ctx, e.fallback, texts)
	if err != nil {
		return nil, "", err
	}
	return vectors, e.fallback.Identity(), nil
}

// EmbedBatch embeds a batch with primary-then-fallback semantics.
func (e *FallbackEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, _, err := e.EmbedBatchTagged(ctx, texts)
	return vectors, err
}

// embedBatchCached serves cached texts from the memo cache and embeds only the
// misses through the given provider.
func (e *FallbackEmbedder) embedBatchCached(ctx context.Context, provider port.Embedder, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if vector, ok := e.cache.Get(provider.Identity(), text); ok {
			vectors[i] = vector
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		embedded, err := provider.EmbedBatch(ctx, missing)
		if err != nil {
			return nil, err
		}
		for j, vector := range embedded {
			vectors[missingIdx[j]] = vector
			e.cache.Put(provider.Identity(), missing[j], vector)
		}
	}

	return vectors, nil
}
