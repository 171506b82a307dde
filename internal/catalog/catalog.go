// File path: internal/catalog/catalog.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Run is a single conversion recorded in the catalog. One row is written per
// pipeline invocation regardless of whether the conversion succeeded.
type Run struct {
	ID           string    `db:"id" json:"id"`
	ProjectID    string    `db:"project_id" json:"project_id"`
	Title        string    `db:"title" json:"title"`
	SourceName   string    `db:"source_name" json:"source_name"`
	SplitMode    string    `db:"split_mode" json:"split_mode"`
	Extraction   string    `db:"extraction" json:"extraction"`
	Renderer     string    `db:"renderer" json:"renderer"`
	Format       string    `db:"format" json:"format"`
	Sections     int       `db:"sections" json:"sections"`
	Steps        int       `db:"steps" json:"steps"`
	Nodes        int       `db:"nodes" json:"nodes"`
	Edges        int       `db:"edges" json:"edges"`
	Valid        bool      `db:"valid" json:"valid"`
	Tier         string    `db:"tier" json:"tier"`
	Confidence   float64   `db:"confidence" json:"confidence"`
	ErrorCount   int       `db:"error_count" json:"error_count"`
	WarningCount int       `db:"warning_count" json:"warning_count"`
	FallbackUsed bool      `db:"fallback_used" json:"fallback_used"`
	OutputPath   string    `db:"output_path" json:"output_path"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RunPage is one page of catalog runs plus the total row count so callers can
// paginate.
type RunPage struct {
	Runs   []Run `json:"runs"`
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// ProjectSummary aggregates catalog rows for a single project.
type ProjectSummary struct {
	ProjectID     string  `db:"project_id" json:"project_id"`
	Runs          int     `db:"runs" json:"runs"`
	Certified     int     `db:"certified" json:"certified"`
	AvgConfidence float64 `db:"avg_confidence" json:"avg_confidence"`
}

var schemaStatements = []string{
	`PRAGMA journal_mode = WAL`,
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS runs (
                id TEXT PRIMARY KEY,
                project_id TEXT NOT NULL,
                title TEXT NOT NULL DEFAULT '',
                source_name TEXT NOT NULL DEFAULT '',
                split_mode TEXT NOT NULL DEFAULT '',
                extraction TEXT NOT NULL DEFAULT '',
                renderer TEXT NOT NULL DEFAULT '',
                format TEXT NOT NULL DEFAULT '',
                sections INTEGER NOT NULL DEFAULT 0,
                steps INTEGER NOT NULL DEFAULT 0,
                nodes INTEGER NOT NULL DEFAULT 0,
                edges INTEGER NOT NULL DEFAULT 0,
                valid INTEGER NOT NULL DEFAULT 0,
                tier TEXT NOT NULL DEFAULT '',
                confidence REAL NOT NULL DEFAULT 0,
                error_count INTEGER NOT NULL DEFAULT 0,
                warning_count INTEGER NOT NULL DEFAULT 0,
                fallback_used INTEGER NOT NULL DEFAULT 0,
                output_path TEXT NOT NULL DEFAULT '',
                created_at TIMESTAMP NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_tier ON runs(tier)`,
	`CREATE VIEW IF NOT EXISTS project_summaries AS
                SELECT project_id,
                       COUNT(*) AS runs,
                       SUM(CASE WHEN tier = 'certified' THEN 1 ELSE 0 END) AS certified,
                       AVG(confidence) AS avg_confidence
                FROM runs
                GROUP BY project_id`,
}

// Store wraps a pooled sqlx.DB connection to the SQLite run catalog.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the provided path.
// The schema is migrated on first use.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("catalog path required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingTimeout := cfg.BusyTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sqlx.DB for advanced callers.
func (s *Store) DB() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("catalog store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// RecordRun persists a run row. Missing identifiers and timestamps are filled
// in, and the stored run is returned.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if s == nil || s.db == nil {
		return Run{}, errors.New("catalog store not initialised")
	}
	if strings.TrimSpace(run.ID) == "" {
		run.ID = uuid.NewString()
	}
	if strings.TrimSpace(run.ProjectID) == "" {
		run.ProjectID = "default"
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO runs (
                id, project_id, title, source_name, split_mode, extraction, renderer, format,
                sections, steps, nodes, edges, valid, tier, confidence,
                error_count, warning_count, fallback_used, output_path, created_at
        ) VALUES (
                :id, :project_id, :title, :source_name, :split_mode, :extraction, :renderer, :format,
                :sections, :steps, :nodes, :edges, :valid, :tier, :confidence,
                :error_count, :warning_count, :fallback_used, :output_path, :created_at
        )`
	if _, err := s.db.NamedExecContext(ctx, query, run); err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// GetRun retrieves a single run by identifier.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("catalog store not initialised")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("run id required")
	}
	var run Run
	if err := s.db.GetContext(ctx, &run, `SELECT * FROM runs WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s not found", id)
		}
		return nil, fmt.Errorf("select run: %w", err)
	}
	return &run, nil
}

// ListRuns returns a page of runs ordered newest first. An empty projectID
// lists runs across all projects.
func (s *Store) ListRuns(ctx context.Context, projectID string, limit, offset int) (RunPage, error) {
	if s == nil || s.db == nil {
		return RunPage{}, errors.New("catalog store not initialised")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	page := RunPage{Runs: []Run{}, Limit: limit, Offset: offset}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		if err := s.db.GetContext(ctx, &page.Total, `SELECT COUNT(*) FROM runs`); err != nil {
			return RunPage{}, fmt.Errorf("count runs: %w", err)
		}
		if err := s.db.SelectContext(ctx, &page.Runs,
			`SELECT * FROM runs ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset); err != nil {
			return RunPage{}, fmt.Errorf("select runs: %w", err)
		}
		return page, nil
	}
	if err := s.db.GetContext(ctx, &page.Total, `SELECT COUNT(*) FROM runs WHERE project_id = ?`, projectID); err != nil {
		return RunPage{}, fmt.Errorf("count runs: %w", err)
	}
	if err := s.db.SelectContext(ctx, &page.Runs,
		`SELECT * FROM runs WHERE project_id = ? ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		projectID, limit, offset); err != nil {
		return RunPage{}, fmt.Errorf("select runs: %w", err)
	}
	return page, nil
}

// Projects summarises catalog contents per project via the project_summaries view.
func (s *Store) Projects(ctx context.Context) ([]ProjectSummary, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("catalog store not initialised")
	}
	summaries := []ProjectSummary{}
	if err := s.db.SelectContext(ctx, &summaries,
		`SELECT project_id, runs, certified, avg_confidence FROM project_summaries ORDER BY project_id`); err != nil {
		return nil, fmt.Errorf("select project summaries: %w", err)
	}
	return summaries, nil
}
