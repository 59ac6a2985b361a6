package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/lostfound/internal/domain"
)

const userColumns = `id, provider, provider_id, email, display_name, avatar_url, created_at, updated_at`

// upsertUserQuery keys users on their OAuth identity; profile fields follow
// the provider on every login.
const upsertUserQuery = `
INSERT INTO users (provider, provider_id, email, display_name, avatar_url)
VALUES (:provider, :provider_id, :email, :display_name, :avatar_url)
ON CONFLICT (provider, provider_id) DO UPDATE
SET email        = EXCLUDED.email,
    display_name = EXCLUDED.display_name,
    avatar_url   = EXCLUDED.avatar_url,
    updated_at   = NOW()
RETURNING ` + userColumns

// UserRepository stores campus users signed in through OAuth.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID retrieves a user by their ID.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, fmt.Sprintf("user %d", id), `id = $1`, id)
}

// FindByProviderID retrieves a user by their OAuth provider and provider ID.
func (r *UserRepository) FindByProviderID(ctx context.Context, provider domain.AuthProvider, providerID string) (*domain.User, error) {
	return r.findOne(ctx, fmt.Sprintf("user %s/%s", provider, providerID),
		`provider = $1 AND provider_id = $2`, provider, providerID)
}

func (r *UserRepository) findOne(ctx context.Context, what, where string, args ...any) (*domain.User, error) {
	var user domain.User
	if err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE `+where, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", what, err)
	}
	return &user, nil
}

// Upsert creates the user on first login and refreshes the profile after.
func (r *UserRepository) Upsert(ctx context.Context, user domain.User) (*domain.User, error) {
	rows, err := r.db.NamedQueryContext(ctx, upsertUserQuery, user)
	if err != nil {
		return nil, fmt.Errorf("upsert user %s/%s: %w", user.Provider, user.ProviderID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("upsert user %s/%s: %w", user.Provider, user.ProviderID, err)
		}
		return nil, fmt.Errorf("upsert user %s/%s: no row returned", user.Provider, user.ProviderID)
	}
	var out domain.User
	if err := rows.StructScan(&out); err != nil {
		return nil, fmt.Errorf("scan upserted user: %w", err)
	}
	return &out, nil
}
