package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
)

type credentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository returns the auth_credentials store.
func NewCredentialRepository(pool *pgxpool.Pool) repository.CredentialRepository {
	return &credentialRepository{pool: pool}
}

func (r *credentialRepository) Get(ctx context.Context, email string) (*domain.Credential, error) {
	const query = `
	SELECT email, password_hash, confirmed_at, last_sign_in_at, created_at
	FROM auth_credentials
	WHERE email = $1
	`
	var c domain.Credential
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&c.Email, &c.PasswordHash, &c.ConfirmedAt, &c.LastSignIn, &c.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("credentials: get: %w", err)
	}
	return &c, nil
}

func (r *credentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	if c == nil || c.Email == "" || c.PasswordHash == "" {
		return domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO auth_credentials (email, password_hash, confirmed_at)
	VALUES ($1, $2, $3)
	RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query, c.Email, c.PasswordHash, c.ConfirmedAt).Scan(&c.CreatedAt); err != nil {
		if mapped := mapWriteError(err, "credential exists"); domain.IsDomainError(mapped, domain.ErrCodeConflict) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("credentials: create: %w", err)
	}
	return nil
}

func (r *credentialRepository) TouchSignIn(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `UPDATE auth_credentials SET last_sign_in_at = NOW() WHERE email = $1`, email)
	return err
}

func (r *credentialRepository) Confirm(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE auth_credentials SET confirmed_at = COALESCE(confirmed_at, NOW()) WHERE email = $1`, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *credentialRepository) Delete(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_credentials WHERE email = $1`, email)
	return err
}
