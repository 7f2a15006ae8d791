package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/config"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

// RateLimitStore counts attempts per key in fixed windows.
type RateLimitStore interface {
	// IncrementAndCheck bumps the counter for key and reports whether it is
	// still within limit. The window starts with the first attempt.
	IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	CleanupExpired(ctx context.Context) error
}

// RateLimiterService guards the endpoints that can be abused to guess
// passwords or to send mail on someone else's behalf.
type RateLimiterService interface {
	CheckLoginRateLimits(ctx context.Context, ip, email string) error
	CheckEmailRateLimits(ctx context.Context, ip, email string) error
}

type rateLimiterService struct {
	store RateLimitStore
	cfg   *config.Config
}

func NewRateLimiterService(store RateLimitStore, cfg *config.Config) RateLimiterService {
	return &rateLimiterService{store: store, cfg: cfg}
}

type rateLimit struct {
	key   string
	limit int
}

func (s *rateLimiterService) CheckLoginRateLimits(ctx context.Context, ip, email string) error {
	return s.check(ctx, []rateLimit{
		{"login:ip:" + ip, s.cfg.LoginLimitPerIPPerHour},
		{"login:email:" + strings.ToLower(email), s.cfg.LoginLimitPerEmailPerHour},
	})
}

func (s *rateLimiterService) CheckEmailRateLimits(ctx context.Context, ip, email string) error {
	return s.check(ctx, []rateLimit{
		{"email:global", s.cfg.GlobalEmailLimitPerHour},
		{"email:ip:" + ip, s.cfg.EmailLimitPerIPPerHour},
		{"email:address:" + strings.ToLower(email), s.cfg.EmailLimitPerEmailPerHour},
	})
}

// check stops at the first exhausted limit. A limit of zero or less is off.
func (s *rateLimiterService) check(ctx context.Context, limits []rateLimit) error {
	for _, l := range limits {
		if l.limit <= 0 {
			continue
		}
		allowed, err := s.store.IncrementAndCheck(ctx, l.key, l.limit, s.cfg.RateLimitWindow)
		if err != nil {
			// Limiter outages must not lock everyone out.
			utils.Logger.WithError(err).WithField("key", l.key).Error("rate limit check failed")
			continue
		}
		if !allowed {
			utils.Logger.Warnf("Rate limit exceeded (key: %s)", l.key)
			return utils.ErrRateLimitExceeded
		}
	}
	return nil
}

// ---------------------------------------------------------------------
// In-process store
// ---------------------------------------------------------------------

type memoryCounter struct {
	count     int
	expiresAt time.Time
}

type memoryRateLimitStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	now      func() time.Time
}

// NewMemoryRateLimitStore keeps counters in process. Limits are then per
// instance.
func NewMemoryRateLimitStore() RateLimitStore {
	return &memoryRateLimitStore{counters: make(map[string]*memoryCounter), now: time.Now}
}

func (s *memoryRateLimitStore) IncrementAndCheck(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		c = &memoryCounter{expiresAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++
	return c.count <= limit, nil
}

func (s *memoryRateLimitStore) CleanupExpired(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, c := range s.counters {
		if !now.Before(c.expiresAt) {
			delete(s.counters, k)
		}
	}
	return nil
}

// ---------------------------------------------------------------------
// Redis store
// ---------------------------------------------------------------------

const rateLimitKeyPrefix = "ratelimit:"

type redisRateLimitStore struct {
	rdb *redis.Client
}

// NewRedisRateLimitStore shares counters between instances. Keys expire on
// their own so CleanupExpired has nothing to do.
func NewRedisRateLimitStore(rdb *redis.Client) RateLimitStore {
	return &redisRateLimitStore{rdb: rdb}
}

func (s *redisRateLimitStore) IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := rateLimitKeyPrefix + key
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		ttl = p.TTL(ctx, k)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	// A key without a TTL is either new or lost its expiry to a crash.
	if ttl.Val() < 0 {
		if err := s.rdb.Expire(ctx, k, window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return incr.Val() <= int64(limit), nil
}

func (s *redisRateLimitStore) CleanupExpired(context.Context) error { return nil }
