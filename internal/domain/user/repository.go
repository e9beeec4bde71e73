package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines user data access interface
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	// FindOrCreateByEmail returns the account for email, creating a citizen account if none exists.
	FindOrCreateByEmail(ctx context.Context, email string) (*User, error)
	// FindOrCreateByPhone returns the account for an E.164 phone, creating a citizen account if none exists.
	FindOrCreateByPhone(ctx context.Context, phone string) (*User, error)
}

// repository implements Repository
type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, email, phone, role, created_at, updated_at`

// GetByID returns user by ID
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail returns user by email
func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByPhone returns user by phone
func (r *repository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
}

func (r *repository) getOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	var u User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("user repository get: %w", err)
	}
	return &u, nil
}

// FindOrCreateByEmail upserts on the unique email column so concurrent first sign-ins converge
func (r *repository) FindOrCreateByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		INSERT INTO users (email, role)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING ` + userColumns
	return r.upsert(ctx, query, email)
}

// FindOrCreateByPhone upserts on the unique phone column
func (r *repository) FindOrCreateByPhone(ctx context.Context, phone string) (*User, error) {
	query := `
		INSERT INTO users (phone, role)
		VALUES ($1, $2)
		ON CONFLICT (phone) DO UPDATE SET updated_at = NOW()
		RETURNING ` + userColumns
	return r.upsert(ctx, query, phone)
}

func (r *repository) upsert(ctx context.Context, query, identifier string) (*User, error) {
	var u User
	if err := r.db.GetContext(ctx, &u, query, identifier, RoleCitizen); err != nil {
		return nil, fmt.Errorf("user repository find or create: %w", err)
	}
	return &u, nil
}

// UpdateRole changes an account's role. It is operator tooling and not part of Repository.
func UpdateRole(ctx context.Context, db *sqlx.DB, id uuid.UUID, role Role) (*User, error) {
	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns

	var u User
	if err := db.GetContext(ctx, &u, query, id, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository update role: %w", err)
	}
	return &u, nil
}
