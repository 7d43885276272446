// Package cache holds the redis read-through cache for professor aggregate
// stats. The database row stays the source of truth; the cache is only a
// fast read path and is invalidated whenever a recomputation commits.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/profpulse/profpulse-backend/internal/platform/envutil"
	"github.com/profpulse/profpulse-backend/internal/platform/logger"
)

type ProfessorStats struct {
	AvgQuality    float64 `json:"avg_quality"`
	AvgDifficulty float64 `json:"avg_difficulty"`
	ReviewCount   int     `json:"review_count"`
}

type StatsCache interface {
	Get(ctx context.Context, professorID uuid.UUID) (*ProfessorStats, error)
	Set(ctx context.Context, professorID uuid.UUID, stats ProfessorStats) error
	Invalidate(ctx context.Context, professorID uuid.UUID) error
	Close() error
}

type statsCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewStatsCache(log *logger.Logger) (StatsCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(envutil.Str("REDIS_ADDR", ""))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttlSeconds := envutil.Int("STATS_CACHE_TTL", 300)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	cacheLog := log.With("service", "StatsCache")
	return &statsCache{
		log: cacheLog,
		rdb: rdb,
		ttl: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func key(professorID uuid.UUID) string {
	return "professor:stats:" + professorID.String()
}

// Get returns nil without error on a cache miss.
func (sc *statsCache) Get(ctx context.Context, professorID uuid.UUID) (*ProfessorStats, error) {
	raw, err := sc.rdb.Get(ctx, key(professorID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats ProfessorStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		// A corrupt entry is treated as a miss; the next Set repairs it.
		sc.log.Warn("dropping corrupt stats cache entry", "professor_id", professorID, "error", err)
		_ = sc.rdb.Del(ctx, key(professorID)).Err()
		return nil, nil
	}
	return &stats, nil
}

func (sc *statsCache) Set(ctx context.Context, professorID uuid.UUID, stats ProfessorStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return sc.rdb.Set(ctx, key(professorID), raw, sc.ttl).Err()
}

func (sc *statsCache) Invalidate(ctx context.Context, professorID uuid.UUID) error {
	return sc.rdb.Del(ctx, key(professorID)).Err()
}

func (sc *statsCache) Close() error {
	return sc.rdb.Close()
}
