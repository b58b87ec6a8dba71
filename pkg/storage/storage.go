package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/floatplanner/apscrape/pkg/accesspoint"
)

var ErrRunNotFound = errors.New("run not found")

// Fixed-width so that timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id               TEXT PRIMARY KEY,
  river_slug       TEXT NOT NULL,
  river_name       TEXT NOT NULL,
  started_at       TEXT NOT NULL,
  sources          TEXT NOT NULL,
  total_scraped    INTEGER NOT NULL,
  verified         INTEGER NOT NULL,
  duplicates       INTEGER NOT NULL,
  flagged          INTEGER NOT NULL,
  ready_to_import  INTEGER NOT NULL,
  warnings         TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_runs_river ON runs(river_slug, started_at);
CREATE TABLE IF NOT EXISTS run_points (
  id                  INTEGER PRIMARY KEY,
  run_id              TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  name                TEXT NOT NULL,
  source              TEXT NOT NULL,
  type                TEXT NOT NULL,
  disposition         TEXT NOT NULL CHECK (disposition IN ('unique','flagged','duplicate')),
  verification_status TEXT NOT NULL,
  latitude            REAL,
  longitude           REAL,
  existing_id         TEXT,
  recommendation      TEXT,
  notes               TEXT
);
CREATE INDEX IF NOT EXISTS idx_points_run ON run_points(run_id);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveRun records a finished run and one row per exported or duplicate point.
func (d *DB) SaveRun(ctx context.Context, out accesspoint.Output) (err error) {
	if out.RunID == "" {
		return errors.New("run has no id")
	}
	warnings, err := json.Marshal(nonNil(out.Warnings))
	if err != nil {
		return err
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs(id, river_slug, river_name, started_at, sources, total_scraped, verified, duplicates, flagged, ready_to_import, warnings) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		out.RunID, out.River.Slug, out.River.Name, out.Timestamp.UTC().Format(timeLayout), joinSources(out.Sources),
		out.Stats.TotalScraped, out.Stats.Verified, out.Stats.Duplicates, out.Stats.Flagged, out.Stats.ReadyToImport, string(warnings))
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_points(run_id, name, source, type, disposition, verification_status, latitude, longitude, existing_id, recommendation, notes) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range pointsOf(out) {
		_, err = stmt.ExecContext(ctx, out.RunID, p.Name, p.Source, p.Type, p.Disposition, p.VerificationStatus,
			nullFloat(p.Latitude), nullFloat(p.Longitude), nullIfEmpty(p.ExistingID), nullIfEmpty(string(p.Recommendation)), nullIfEmpty(p.Notes))
		if err != nil {
			return fmt.Errorf("inserting point %q: %w", p.Name, err)
		}
	}

	return tx.Commit()
}

func pointsOf(out accesspoint.Output) []RunPoint {
	points := make([]RunPoint, 0, len(out.AccessPoints)+len(out.Duplicates))
	for _, ap := range out.AccessPoints {
		disp := DispositionUnique
		if ap.NeedsReview {
			disp = DispositionFlagged
		}
		p := RunPoint{
			Name:               ap.Name,
			Source:             ap.Source,
			Type:               ap.Type,
			Disposition:        disp,
			VerificationStatus: ap.VerificationStatus,
			Notes:              strings.Join(ap.ReviewNotes, "; "),
		}
		if ap.Location != nil {
			p.Latitude, p.Longitude = &ap.Location.Lat, &ap.Location.Lng
		}
		points = append(points, p)
	}
	for _, dup := range out.Duplicates {
		p := RunPoint{
			Name:               dup.Scraped.Name,
			Source:             dup.Scraped.Source,
			Type:               dup.Scraped.Type,
			Disposition:        DispositionDuplicate,
			VerificationStatus: dup.Scraped.VerificationStatus,
			ExistingID:         dup.Existing.ID,
			Recommendation:     dup.Recommendation,
			Notes:              dup.Notes,
		}
		if dup.Scraped.Location != nil {
			p.Latitude, p.Longitude = &dup.Scraped.Location.Lat, &dup.Scraped.Location.Lng
		}
		points = append(points, p)
	}
	return points
}

// ListOptions controls selection when listing runs.
type ListOptions struct {
	RiverSlug string
	Limit     int
}

// ListRuns returns the most recent runs first.
func (d *DB) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.RiverSlug != "" {
		where += " AND river_slug = ?"
		args = append(args, opts.RiverSlug)
	}
	args = append(args, opts.Limit)

	q := "SELECT " + runColumns + " FROM runs " + where + " ORDER BY started_at DESC, id LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRun returns a single run or ErrRunNotFound.
func (d *DB) GetRun(ctx context.Context, id string) (Run, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

const runColumns = "id, river_slug, river_name, started_at, sources, total_scraped, verified, duplicates, flagged, ready_to_import, warnings"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r                  Run
		startedAt, sources string
		warnings           string
	)
	if err := s.Scan(&r.ID, &r.RiverSlug, &r.RiverName, &startedAt, &sources,
		&r.Stats.TotalScraped, &r.Stats.Verified, &r.Stats.Duplicates, &r.Stats.Flagged, &r.Stats.ReadyToImport, &warnings); err != nil {
		return Run{}, err
	}
	r.StartedAt = parseTime(startedAt)
	r.Sources = splitSources(sources)
	if err := json.Unmarshal([]byte(warnings), &r.Warnings); err != nil {
		return Run{}, fmt.Errorf("decoding warnings of run %s: %w", r.ID, err)
	}
	return r, nil
}

// ListRunPoints returns the points of a run in the order they were saved.
func (d *DB) ListRunPoints(ctx context.Context, runID string) ([]RunPoint, error) {
	q := "SELECT id, run_id, name, source, type, disposition, verification_status, latitude, longitude, existing_id, recommendation, notes FROM run_points WHERE run_id = ? ORDER BY id"
	rows, err := d.sql.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []RunPoint{}
	for rows.Next() {
		var p RunPoint
		var lat, lng sql.NullFloat64
		var existingID, rec, notesNS sql.NullString
		if err := rows.Scan(&p.ID, &p.RunID, &p.Name, &p.Source, &p.Type, &p.Disposition, &p.VerificationStatus,
			&lat, &lng, &existingID, &rec, &notesNS); err != nil {
			return nil, err
		}
		if lat.Valid && lng.Valid {
			p.Latitude, p.Longitude = &lat.Float64, &lng.Float64
		}
		p.ExistingID = existingID.String
		p.Recommendation = accesspoint.Recommendation(rec.String)
		p.Notes = notesNS.String
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// GetStats aggregates the run history per river.
func (d *DB) GetStats(ctx context.Context) ([]RiverStats, error) {
	query := `
		SELECT
			river_slug,
			MAX(river_name),
			COUNT(*),
			MAX(started_at),
			SUM(total_scraped),
			SUM(ready_to_import),
			SUM(duplicates),
			SUM(flagged)
		FROM
			runs
		GROUP BY
			river_slug
		ORDER BY
			river_slug;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []RiverStats
	for rows.Next() {
		var s RiverStats
		var lastRun string
		if err := rows.Scan(&s.RiverSlug, &s.RiverName, &s.Runs, &lastRun, &s.TotalScraped, &s.ReadyToImport, &s.Duplicates, &s.Flagged); err != nil {
			return nil, err
		}
		s.LastRun = parseTime(lastRun)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}

func joinSources(sources []accesspoint.Source) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return strings.Join(names, ",")
}

func splitSources(s string) []accesspoint.Source {
	out := []accesspoint.Source{}
	for _, name := range strings.Split(s, ",") {
		if name != "" {
			out = append(out, accesspoint.Source(name))
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
