// Package history persists completed scan reports and compares them.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/target"
)

//go:embed schema_*.sql
var schemaFS embed.FS

var ErrNotFound = errors.New("scan not found")

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// Store keeps one row per successful scan with the full report as JSON.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  logging.Logger
	newID   func() string
}

// NewStore runs the dialect's schema and returns a Store.
func NewStore(ctx context.Context, db *sql.DB, dialect Dialect, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	schemaSQL, err := schemaFS.ReadFile("schema_" + string(dialect) + ".sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema for %s: %w", dialect, err)
	}
	for _, stmt := range statements(string(schemaSQL)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to execute schema: %w", err)
		}
	}
	return &Store{
		db:      db,
		dialect: dialect,
		logger:  logging.OrNop(logger).With(logging.Field{Key: "component", Value: "history"}),
		newID:   func() string { return uuid.New().String() },
	}, nil
}

// Record stores res under a new id and returns a copy carrying that id.
func (s *Store) Record(ctx context.Context, res *model.ScanResult) (*model.ScanResult, error) {
	if res == nil {
		return nil, fmt.Errorf("nil scan result")
	}
	stored := *res
	stored.ID = s.newID()

	report, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	const q = `
INSERT INTO scans
(id, url, host, score, total_issues, critical_issues, platform,
 scanned_at_ms, duration_ms, report)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, rebind(s.dialect, q),
		stored.ID, stored.URL, target.Host(stored.URL),
		stored.Score, stored.TotalIssues, stored.CriticalIssues, stored.Platform,
		stored.ScannedAt.UnixMilli(), stored.Meta.ScanDuration, string(report),
	)
	if err != nil {
		return nil, fmt.Errorf("insert scan: %w", err)
	}

	s.logger.Debug("scan recorded",
		logging.Field{Key: "id", Value: stored.ID},
		logging.Field{Key: "url", Value: stored.URL})
	return &stored, nil
}

// Get returns the stored report for id.
func (s *Store) Get(ctx context.Context, id string) (*model.ScanResult, error) {
	const q = `SELECT report FROM scans WHERE id = ?`
	var report string
	err := s.db.QueryRowContext(ctx, rebind(s.dialect, q), id).Scan(&report)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query scan %s: %w", id, err)
	}
	return decode(report)
}

// Query filters List. Zero values match everything.
type Query struct {
	URL   string
	Host  string
	Since time.Time
	Limit int
}

// List returns reports newest first.
func (s *Store) List(ctx context.Context, f Query) ([]*model.ScanResult, error) {
	q := `SELECT report FROM scans WHERE 1=1`
	var args []any
	if f.URL != "" {
		q += ` AND url = ?`
		args = append(args, f.URL)
	}
	if f.Host != "" {
		q += ` AND host = ?`
		args = append(args, f.Host)
	}
	if !f.Since.IsZero() {
		q += ` AND scanned_at_ms >= ?`
		args = append(args, f.Since.UnixMilli())
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	q += ` ORDER BY scanned_at_ms DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, q), args...)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	out := make([]*model.ScanResult, 0, limit)
	for rows.Next() {
		var report string
		if err := rows.Scan(&report); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		res, err := decode(report)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Previous returns the newest report for the same URL scanned strictly
// before res, or ErrNotFound. Scans sharing res's millisecond are never
// treated as earlier.
func (s *Store) Previous(ctx context.Context, res *model.ScanResult) (*model.ScanResult, error) {
	const q = `
SELECT report FROM scans
WHERE url = ? AND scanned_at_ms < ?
ORDER BY scanned_at_ms DESC, id DESC
LIMIT 1`
	var report string
	err := s.db.QueryRowContext(ctx, rebind(s.dialect, q), res.URL, res.ScannedAt.UnixMilli()).Scan(&report)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query previous scan: %w", err)
	}
	return decode(report)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func decode(report string) (*model.ScanResult, error) {
	var res model.ScanResult
	if err := json.Unmarshal([]byte(report), &res); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if res.TopIssues == nil {
		res.TopIssues = []model.Violation{}
	}
	return &res, nil
}
