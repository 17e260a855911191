package store

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/guarzo/repolookup/common"
	"github.com/guarzo/repolookup/common/config"
)

const defaultOpTimeout = 2 * time.Second

var (
	_ common.CacheRepository = (*RedisStore)(nil)
	_ common.PairSetter      = (*RedisStore)(nil)
)

// RedisStore keeps one session's keys in Redis under
// "repolookup:{sessionID}:". Redis failures are logged and behave as misses.
type RedisStore struct {
	client     redis.UniversalClient
	prefix     string
	sessionTTL time.Duration
	opTimeout  time.Duration
	log        *logrus.Entry
}

// NewRedisStore dials Redis with cfg. An empty SessionID gets a random one.
func NewRedisStore(cfg config.RedisConfig, sessionTTL time.Duration) *RedisStore {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	return NewRedisStoreWithClient(redis.NewClient(opts), cfg.SessionID, sessionTTL)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, sessionID string, sessionTTL time.Duration) *RedisStore {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if sessionTTL < 0 {
		sessionTTL = 0
	}
	return &RedisStore{
		client:     client,
		prefix:     fmt.Sprintf("repolookup:%s:", sessionID),
		sessionTTL: sessionTTL,
		opTimeout:  defaultOpTimeout,
		log:        logrus.WithFields(logrus.Fields{"store": "redis", "session": sessionID}),
	}
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.opTimeout)
}

func (r *RedisStore) Get(key string) ([]byte, bool) {
	ctx, cancel := r.ctx()
	defer cancel()

	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.log.WithError(err).WithField("key", key).Warn("redis get failed")
		return nil, false
	}
	return val, true
}

func (r *RedisStore) Set(key string, value []byte) {
	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.client.Set(ctx, r.key(key), value, r.sessionTTL).Err(); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("redis set failed")
	}
}

// SetPair writes both keys in one MULTI/EXEC transaction.
func (r *RedisStore) SetPair(key1 string, value1 []byte, key2 string, value2 []byte) {
	ctx, cancel := r.ctx()
	defer cancel()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(key1), value1, r.sessionTTL)
		pipe.Set(ctx, r.key(key2), value2, r.sessionTTL)
		return nil
	})
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{"key": key1, "pair": key2}).Warn("redis pair write failed")
	}
}

func (r *RedisStore) Delete(key string) {
	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("redis delete failed")
	}
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
