package existing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
)

// PostgresStore reads from the planner's PostGIS database.
type PostgresStore struct {
	db *pgxpool.Pool
}

// Connect opens a pool for databaseURL and checks that it answers.
func Connect(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("existing: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("existing: failed to reach database: %w", err)
	}
	return NewPostgresStore(pool), nil
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

func (s *PostgresStore) ListRivers(ctx context.Context) ([]accesspoint.River, error) {
	sql := `
		SELECT
			id::text,
			slug,
			name,
			COALESCE(length_miles, 0)::float8,
			COALESCE(region, '')
		FROM rivers
		ORDER BY name
	`

	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("existing: failed to query rivers: %w", err)
	}
	rivers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (accesspoint.River, error) {
		var r accesspoint.River
		err := row.Scan(&r.ID, &r.Slug, &r.Name, &r.LengthMiles, &r.Region)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("existing: failed to scan river: %w", err)
	}
	return rivers, nil
}

// ListAccessPoints projects the stored geometry to plain coordinates. Points
// without geometry come back as 0/0.
func (s *PostgresStore) ListAccessPoints(ctx context.Context, riverID string) ([]accesspoint.Existing, error) {
	sql := `
		SELECT
			id::text,
			river_id::text,
			name,
			slug,
			type,
			approved,
			COALESCE(description, ''),
			COALESCE(ST_Y(location_orig), 0) as latitude,
			COALESCE(ST_X(location_orig), 0) as longitude
		FROM access_points
		WHERE river_id = $1::uuid
		ORDER BY name
	`

	rows, err := s.db.Query(ctx, sql, riverID)
	if err != nil {
		return nil, fmt.Errorf("existing: failed to query access points: %w", err)
	}
	points, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (accesspoint.Existing, error) {
		var ap accesspoint.Existing
		err := row.Scan(&ap.ID, &ap.RiverID, &ap.Name, &ap.Slug, &ap.Type, &ap.Approved,
			&ap.Description, &ap.Latitude, &ap.Longitude)
		return ap, err
	})
	if err != nil {
		return nil, fmt.Errorf("existing: failed to scan access point: %w", err)
	}
	return points, nil
}
