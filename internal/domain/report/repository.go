package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// NewReport is the data the caller supplies when filing a report.
// ID, status and timestamps are assigned by the database.
type NewReport struct {
	Title       string
	Description string
	Location    *Location
	Images      []string
	UserID      uuid.UUID
}

// Repository defines report data access interface
type Repository interface {
	// List returns every report, newest first with ties broken by id.
	List(ctx context.Context) ([]Row, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Row, error)
	Create(ctx context.Context, in NewReport) (*Row, error)
	// UpdateStatus returns nil when no report has the id.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Row, error)
}

type repository struct {
	db *sqlx.DB
}

const reportColumns = `id, title, description, location, images, status, created_at, updated_at, user_id`

// NewRepository creates new report repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Row, error) {
	query := `SELECT ` + reportColumns + ` FROM reports ORDER BY created_at DESC, id DESC`

	var rows []Row
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("report repository list: %w", err)
	}
	return rows, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Row, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	var row Row
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("report repository get: %w", err)
	}
	return &row, nil
}

func (r *repository) Create(ctx context.Context, in NewReport) (*Row, error) {
	query := `
		INSERT INTO reports (title, description, location, images, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + reportColumns

	// jsonb takes text; lib/pq would send []byte as bytea
	var location sql.NullString
	if in.Location != nil {
		b, err := json.Marshal(in.Location)
		if err != nil {
			return nil, fmt.Errorf("report repository create: %w", err)
		}
		location = sql.NullString{String: string(b), Valid: true}
	}

	var row Row
	err := r.db.GetContext(ctx, &row, query,
		in.Title,
		in.Description,
		location,
		pq.StringArray(in.Images),
		uuid.NullUUID{UUID: in.UserID, Valid: in.UserID != uuid.Nil},
	)
	if err != nil {
		return nil, fmt.Errorf("report repository create: %w", err)
	}
	return &row, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Row, error) {
	query := `
		UPDATE reports SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + reportColumns

	var row Row
	if err := r.db.GetContext(ctx, &row, query, id, string(status)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("report repository update status: %w", err)
	}
	return &row, nil
}
