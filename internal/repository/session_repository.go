package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/facility-tickets/internal/domain"
)

const sessionKeyPrefix = "session:"

// SessionRepository stores live login sessions. Entries expire on their own
// at ExpiresAt; Delete revokes one early.
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type sessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewSessionRepository returns a Redis-backed implementation.
func NewSessionRepository(client *redis.Client) SessionRepository {
	return &sessionRepository{client: client, now: time.Now}
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return ErrSessionNotFound
	}
	return r.client.Set(ctx, sessionKeyPrefix+session.ID, session.UserID, ttl).Err()
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	key := sessionKeyPrefix + id
	userID, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	return &domain.Session{ID: id, UserID: userID, ExpiresAt: r.now().Add(ttl)}, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKeyPrefix+id).Err()
}
