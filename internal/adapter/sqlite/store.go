package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/evapower-etl/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/upsert-assessment.sql
var upsertAssessmentSQL string

//go:embed sql/top-assessments.sql
var topAssessmentsSQL string

//go:embed sql/count-assessments.sql
var countAssessmentsSQL string

// Store persists site assessments for ranking queries.
// It implements pipeline.BatchLoader.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" on one database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// LoadBatch upserts the assessments in one transaction, replacing earlier
// assessments of the same site.
func (s *Store) LoadBatch(ctx context.Context, assessments []domain.SiteAssessment) error {
	if len(assessments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertAssessmentSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range assessments {
		a := &assessments[i]
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("serialize assessment %s: %w", a.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			a.ID, a.Site.Name, a.Site.Country, a.Site.Lat, a.Site.Lon,
			a.Power, string(a.Category.Level), string(a.Source),
			a.AssessedAt.UTC().Format(time.RFC3339), string(payload),
		); err != nil {
			return fmt.Errorf("upsert assessment %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("assessments stored", "count", len(assessments))
	return nil
}

// Top returns the n highest-power assessments, best first. A negative n returns
// all of them.
func (s *Store) Top(ctx context.Context, n int) ([]domain.SiteAssessment, error) {
	rows, err := s.db.QueryContext(ctx, topAssessmentsSQL, n)
	if err != nil {
		return nil, fmt.Errorf("query top assessments: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("close assessment rows", "error", err)
		}
	}()

	var out []domain.SiteAssessment
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var a domain.SiteAssessment
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("decode stored assessment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns the number of stored assessments.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countAssessmentsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func buildDSN(path string) (string, error) {
	if path == ":memory:" || strings.HasPrefix(path, "file::memory:") {
		return path, nil
	}

	dir := filepath.Dir(strings.TrimPrefix(path, "file:"))
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
