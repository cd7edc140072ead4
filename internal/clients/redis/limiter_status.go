package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"github.com/yungbote/fulltheme-backend/internal/ratelimit"
)

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// TTL bounds how long a published status is visible; use the limiter's
	// reset window.
	TTL time.Duration
}

// LimiterStatusStore mirrors provider backoff status so every replica skips
// optional LLM stages while one of them is being throttled.
type LimiterStatusStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewLimiterStatusStore(ctx context.Context, log *logger.Logger, cfg Config) (*LimiterStatusStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newLimiterStatusStore(log, rdb, cfg), nil
}

func newLimiterStatusStore(log *logger.Logger, rdb *goredis.Client, cfg Config) *LimiterStatusStore {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "fulltheme:ratelimit:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LimiterStatusStore{
		log:    log.With("service", "RedisLimiterStatusStore"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *LimiterStatusStore) key(provider string) string {
	return s.prefix + provider
}

func (s *LimiterStatusStore) Publish(ctx context.Context, st ratelimit.Status) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis limiter status store not initialized")
	}
	if st.Healthy {
		return s.rdb.Del(ctx, s.key(st.Provider)).Err()
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(st.Provider), raw, s.ttl).Err()
}

func (s *LimiterStatusStore) Fetch(ctx context.Context, provider string) (*ratelimit.Status, error) {
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("redis limiter status store not initialized")
	}
	raw, err := s.rdb.Get(ctx, s.key(provider)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st ratelimit.Status
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode limiter status: %w", err)
	}
	return &st, nil
}

func (s *LimiterStatusStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
