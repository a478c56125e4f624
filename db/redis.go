package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"blog-api/config"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DialTimeout = cfg.DialTimeout
	opt.PoolSize = cfg.PoolSize
	opt.MinIdleConns = cfg.MinIdleConns
	opt.ReadTimeout = cfg.ReadTimeout
	opt.MaxRetries = cfg.MaxRetries

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis server: %w", err)
	}

	return client, nil
}

// SessionStore records live login sessions in Redis. A token is only
// honoured while its session key exists, so deleting the key revokes it.
type SessionStore struct {
	Client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{Client: client}
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

// Create stores a session for userID that expires after ttl.
func (s *SessionStore) Create(ctx context.Context, userID int64, ttl time.Duration) (uuid.UUID, error) {
	id := uuid.New()
	if err := s.Client.Set(ctx, sessionKey(id), userID, ttl).Err(); err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to store session")
	}
	return id, nil
}

// Lookup returns the owner of session id; ok is false when it does not exist.
func (s *SessionStore) Lookup(ctx context.Context, id uuid.UUID) (userID int64, ok bool, err error) {
	val, err := s.Client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, "failed to read session")
	}

	userID, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, errors.Wrap(err, "corrupt session value")
	}
	return userID, true, nil
}

func (s *SessionStore) Revoke(ctx context.Context, id uuid.UUID) error {
	return errors.Wrap(s.Client.Del(ctx, sessionKey(id)).Err(), "failed to revoke session")
}

// PingContext lets the session store take part in health checks.
func (s *SessionStore) PingContext(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}
