// Package embcache is a read-through Redis cache in front of an embedding
// provider, keyed by model and text digest.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopsense/searchcore/internal/db"
	"github.com/shopsense/searchcore/internal/domain"
	"github.com/shopsense/searchcore/internal/logger"
	"github.com/shopsense/searchcore/internal/metrics"
)

// kvStore is the key-value surface this cache needs.
type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
}

// Embedder caches embeddings produced by an inner provider. Cache hits report
// zero token usage.
type Embedder struct {
	inner     domain.Embedder
	store     kvStore
	keyPrefix string
	model     string
	ttl       time.Duration
}

// New wraps an embedding provider with a read-through cache.
func New(inner domain.Embedder, store kvStore, keyPrefix, model string, ttl time.Duration) *Embedder {
	return &Embedder{inner: inner, store: store, keyPrefix: keyPrefix, model: model, ttl: ttl}
}

func (e *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%semb:%s:%s", e.keyPrefix, e.model, hex.EncodeToString(sum[:]))
}

// Embed returns the cached vector when present, otherwise asks the inner
// provider and stores the result. Cache failures degrade to the provider
// rather than failing the request.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	log := logger.FromContext(ctx)
	key := e.key(text)

	blob, err := e.store.Get(ctx, key)
	switch {
	case err == nil:
		vector, decErr := db.DecodeVector(blob)
		if decErr == nil {
			metrics.ObserveEmbeddingCache("hit")
			return domain.EmbeddingResult{Embedding: vector}, nil
		}
		log.Warn("discarding corrupt cached embedding", zap.String("key", key), zap.Error(decErr))
	case !errors.Is(err, db.ErrKeyNotFound):
		log.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
	}

	metrics.ObserveEmbeddingCache("miss")
	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	if err := e.store.SetWithTTL(ctx, key, db.EncodeVector(res.Embedding), e.ttl); err != nil {
		log.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
	return res, nil
}
