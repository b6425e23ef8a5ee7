// Package db defines the storage facade over Redis. Consumers depend on the
// narrow sub-interfaces, not on Store itself.
package db

import (
	"context"
	"time"
)

// Store is the database facade combining all sub-interfaces.
type Store interface {
	Pinger
	HashStore
	KVStore
	ZSetStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// KVStore provides plain key-value operations; used by the embedding cache.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
}

// ZMember is one sorted-set entry; the event log stores event ids scored by
// their unix-millisecond timestamp.
type ZMember struct {
	Member string
	Score  float64
}

// ZSetStore provides sorted-set operations backing the append-only event log.
type ZSetStore interface {
	ZAdd(ctx context.Context, key string, members []ZMember) error
	ZRangeByScore(ctx context.Context, key string, min, max float64) ([]ZMember, error)
	ZRemRangeByScore(ctx context.Context, key string, min, max float64) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*SearchResult, error)
}
