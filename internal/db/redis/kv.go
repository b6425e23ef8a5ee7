package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/shopsense/searchcore/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", db.ErrKeyNotFound
		}
		return "", &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	cmd := s.b().Set().Key(key).Value(value).Ex(ttl).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
