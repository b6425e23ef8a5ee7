package redis

import (
	"context"
	"math"
	"strconv"

	"github.com/shopsense/searchcore/internal/db"
)

// ZAdd appends members to a sorted set.
func (s *Store) ZAdd(ctx context.Context, key string, members []db.ZMember) error {
	if len(members) == 0 {
		return nil
	}

	cmd := s.b().Zadd().Key(key).ScoreMember()
	for _, m := range members {
		cmd = cmd.ScoreMember(m.Score, m.Member)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZRangeByScore returns members whose score lies in [min, max]. Infinite
// bounds are supported via math.Inf.
func (s *Store) ZRangeByScore(ctx context.Context, key string, min, max float64) ([]db.ZMember, error) {
	cmd := s.b().Zrangebyscore().Key(key).Min(scoreBound(min)).Max(scoreBound(max)).Withscores().Build()
	scores, err := s.do(ctx, cmd).AsZScores()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRangeByScore, Err: err}
	}

	out := make([]db.ZMember, len(scores))
	for i, z := range scores {
		out[i] = db.ZMember{Member: z.Member, Score: z.Score}
	}
	return out, nil
}

// ZRemRangeByScore removes members whose score lies in [min, max]; the event
// log uses it to drop entries past retention.
func (s *Store) ZRemRangeByScore(ctx context.Context, key string, min, max float64) error {
	cmd := s.b().Zremrangebyscore().Key(key).Min(scoreBound(min)).Max(scoreBound(max)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZRemRangeByScore, Err: err}
	}
	return nil
}

func scoreBound(v float64) string {
	switch {
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "+inf"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}
