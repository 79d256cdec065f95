package store

import (
	"context"
	"database/sql"
	"errors"

	"commerce-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = "id, email, username, password_hash, password_salt, created_at"

// UserRepository maps users rows.
type UserRepository struct {
	store *Store
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, email, username, password_hash, password_salt, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			user.ID, user.Email, user.Username, user.PasswordHash, user.PasswordSalt, user.CreatedAt)
		return translateError(err)
	})
}

// GetByID returns nil when no user has the id
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

// GetByUsername returns nil when no user has the username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
}

// GetByEmail returns nil when no user has the email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.store.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
