package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
)

type draftRepository struct {
	client redislib.Cmdable
	prefix string
	ttl    time.Duration
}

// NewDraftRepository keeps wizard drafts under wizard:draft:<email> with a sliding TTL.
func NewDraftRepository(client redislib.Cmdable, ttl time.Duration) repository.DraftRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &draftRepository{
		client: client,
		prefix: "wizard:draft:",
		ttl:    ttl,
	}
}

func (r *draftRepository) Get(ctx context.Context, email string) (*domain.WizardDraft, error) {
	raw, err := r.client.Get(ctx, r.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, err
	}
	var draft domain.WizardDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepository) Save(ctx context.Context, draft *domain.WizardDraft) error {
	if draft == nil || draft.Email == "" {
		return domain.ErrInvalidPayload
	}
	draft.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(draft.Email), payload, r.ttl).Err()
}

func (r *draftRepository) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.key(email)).Err()
}

func (r *draftRepository) key(email string) string {
	return r.prefix + strings.ToLower(email)
}
