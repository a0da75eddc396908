package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/avolkov/goblog/internal/apperror"
	"github.com/avolkov/goblog/internal/model"
	"github.com/avolkov/goblog/internal/repository"
)

// compile-time check that *DB implements repository.LocationRepository
var _ repository.LocationRepository = (*DB)(nil)

// CreateLocation inserts a new location.
func (db *DB) CreateLocation(ctx context.Context, location *model.Location) error {
	location.ID = xid.New().String()
	location.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO locations (id, name, is_published, created_at)
		 VALUES (?, ?, ?, ?)`,
		location.ID,
		location.Name,
		location.IsPublished,
		location.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating location: %w", err)
	}
	return nil
}

// GetLocationByID retrieves a location by ID.
func (db *DB) GetLocationByID(ctx context.Context, id string) (*model.Location, error) {
	var l model.Location
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, is_published, created_at FROM locations WHERE id = ?`,
		id,
	).Scan(&l.ID, &l.Name, &l.IsPublished, &l.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("location", id)
		}
		return nil, fmt.Errorf("sqlite: getting location %s: %w", id, err)
	}
	return &l, nil
}

// ListPublishedLocations returns published locations ordered by name, for the
// post form's location choices.
func (db *DB) ListPublishedLocations(ctx context.Context) ([]model.Location, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, is_published, created_at
		 FROM locations WHERE is_published = 1 ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing locations: %w", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.IsPublished, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning location row: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating locations: %w", err)
	}

	return locations, nil
}
