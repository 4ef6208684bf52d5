package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"servicebook/internal/platform/redis"
	id "servicebook/pkg/domain"
	"servicebook/pkg/platform/sentinel"
)

// RedisStore keeps sessions in Redis with the session TTL as the key TTL, so
// expired sessions vanish without a sweeper.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(sessionID id.SessionID) string {
	return "session:" + sessionID.String()
}

func (s *RedisStore) Save(ctx context.Context, session Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), payload, TTL).Err(); err != nil {
		return fmt.Errorf("save session: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID id.SessionID) (Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Session{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w: %w", sentinel.ErrUnavailable, err)
	}
	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID id.SessionID) error {
	deleted, err := s.client.Del(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("clear session: %w: %w", sentinel.ErrUnavailable, err)
	}
	if deleted == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
