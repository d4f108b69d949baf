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

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Get(ctx context.Context, email string) (*domain.User, error) {
	const query = `
		SELECT email, full_name, phone, position, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var (
		user            domain.User
		phone, position *string
	)
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.Email, &user.FullName, &phone, &position, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("users: get: %w", err)
	}
	user.Phone = derefString(phone)
	user.Position = derefString(position)
	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.Email == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO users (email, full_name, phone, position, created_at, updated_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), NOW())
	ON CONFLICT (email) DO UPDATE
	SET full_name = EXCLUDED.full_name,
		phone = EXCLUDED.phone,
		position = EXCLUDED.position,
		updated_at = NOW()
	RETURNING created_at, updated_at;
	`

	if err := r.pool.QueryRow(ctx, query,
		user.Email,
		user.FullName,
		nullString(user.Phone),
		nullString(user.Position),
		nullTime(user.CreatedAt),
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return mapWriteError(err, "user already exists")
	}
	return nil
}

func (r *userRepository) ListMembers(ctx context.Context, filter repository.MemberFilter) ([]domain.Member, error) {
	const query = `
	SELECT p.email, COALESCE(u.full_name, ''), u.phone, u.position,
		COALESCE(u.created_at, p.created_at), COALESCE(u.updated_at, p.updated_at),
		p.role, p.organization_name, p.organization_level, p.filiere_name, p.filiale_name,
		p.site_name, p.original_role, p.created_at, p.updated_at
	FROM profiles p
	LEFT JOIN users u ON u.email = p.email
	WHERE ($1 = '' OR p.organization_name = $1)
	  AND ($2 = '' OR p.role = $2)
	ORDER BY p.email
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.OrganizationName, filter.Role, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("users: list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var (
			m               domain.Member
			phone, position *string
		)
		profile, err := scanProfileInto(rows, &m.Email, &m.FullName, &phone, &position, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, err
		}
		m.Phone = derefString(phone)
		m.Position = derefString(position)
		m.Profile = *profile
		m.Profile.Email = m.Email
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *userRepository) Delete(ctx context.Context, email string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE email = $1`, email); err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM profiles WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("profiles: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return tx.Commit(ctx)
}
