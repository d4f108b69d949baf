package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
)

type sessionRepository struct {
	client      redislib.Cmdable
	prefix      string
	indexPrefix string
	ttl         time.Duration
}

// NewSessionRepository creates a Redis-backed auth session repository.
func NewSessionRepository(client redislib.Cmdable, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionRepository{
		client:      client,
		prefix:      "auth:session:",
		indexPrefix: "auth:user-sessions:",
		ttl:         ttl,
	}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	result, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(result, &session); err != nil {
		return nil, fmt.Errorf("session %s: decode: %w", id, err)
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" || session.Email == "" {
		return domain.ErrInvalidPayload
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = r.ttl
	}
	index := r.indexKey(session.Email)
	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Set(ctx, r.key(session.ID), payload, ttl)
		pipe.SAdd(ctx, index, session.ID)
		pipe.Expire(ctx, index, max(ttl, r.ttl))
		return nil
	})
	return err
}

// Delete is a no-op for unknown ids.
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

// DeleteByEmail removes every indexed session of email together with the index itself.
func (r *sessionRepository) DeleteByEmail(ctx context.Context, email string) error {
	index := r.indexKey(email)
	ids, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, r.key(id))
	}
	keys = append(keys, index)
	return r.client.Del(ctx, keys...).Err()
}

func (r *sessionRepository) Extend(ctx context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		duration = r.ttl
	}
	ok, err := r.client.Expire(ctx, r.key(id), duration).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	session, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	index := r.indexKey(session.Email)
	if ttl, err := r.client.TTL(ctx, index).Result(); err == nil && ttl < duration {
		return r.client.Expire(ctx, index, duration).Err()
	}
	return nil
}

func (r *sessionRepository) key(id string) string {
	return r.prefix + id
}

func (r *sessionRepository) indexKey(email string) string {
	return r.indexPrefix + strings.ToLower(strings.TrimSpace(email))
}
