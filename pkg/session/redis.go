package session

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultRedisKey is the Redis key holding the shared token.
const DefaultRedisKey = "sight:session:token"

// KeyFor returns the token key of account. Stores of different accounts
// sharing one Redis must use different keys.
func KeyFor(account string) string {
	if account == "" {
		return DefaultRedisKey
	}
	return "sight:session:account:" + account
}

var sessionStoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sight_session_store_errors_total",
	Help: "Total number of Redis session store errors by operation",
}, []string{"operation"})

// RedisStore shares the token across processes through Redis.
type RedisStore struct {
	redis  *redis.Client
	key    string
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKey overrides the Redis key (default DefaultRedisKey).
func WithKey(key string) RedisOption {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithAccount stores the token under KeyFor(account).
func WithAccount(account string) RedisOption {
	return WithKey(KeyFor(account))
}

// WithTTL expires the stored token after ttl. Zero keeps it until cleared.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a Redis-backed token store.
func NewRedisStore(redisClient *redis.Client, logger zerolog.Logger, opts ...RedisOption) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}

	s := &RedisStore{
		redis:  redisClient,
		key:    DefaultRedisKey,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token implements Store.
func (s *RedisStore) Token(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoToken
		}
		sessionStoreErrorsTotal.WithLabelValues("get").Inc()
		return "", errors.Wrap(err, "get session token")
	}
	return token, nil
}

// SetToken implements Store.
func (s *RedisStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}

	if err := s.redis.Set(ctx, s.key, token, s.ttl).Err(); err != nil {
		sessionStoreErrorsTotal.WithLabelValues("set").Inc()
		return errors.Wrap(err, "store session token in redis")
	}

	s.logger.Debug().
		Str("key", s.key).
		Dur("ttl", s.ttl).
		Msg("Session token stored")
	return nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		sessionStoreErrorsTotal.WithLabelValues("delete").Inc()
		return errors.Wrap(err, "delete session token")
	}
	return nil
}
