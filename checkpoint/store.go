// Package checkpoint persists quadrature data to a SQLite database so a
// simulation can restart from a saved cycle.
package checkpoint

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - runs and records tables
const currentSchemaVersion = 1

var (
	ErrNotFound           = errors.New("checkpoint: record not found")
	ErrLayoutMismatch     = errors.New("checkpoint: layout does not match saved record")
	ErrAlreadyInitialized = errors.New("checkpoint: run already initialized")
	ErrNoRun              = errors.New("checkpoint: no run in progress")
	ErrInvalidField       = errors.New("checkpoint: invalid field name")
)

// Store reads and writes checkpoint records for one run at a time.
// A Store begins or resumes exactly one run.
type Store struct {
	db *sql.DB

	mu  sync.Mutex
	run string
}

// Open creates or opens the database at path and applies the schema.
//
// The database is configured with:
//   - WAL mode so readers can list records during a save
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental migrations based on user_version
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d",
			version, currentSchemaVersion)
	}
	// version 0 databases only lack the version stamp
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// BeginRun starts a new run and returns its id
func (s *Store) BeginRun(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != "" {
		return "", fmt.Errorf("%w: %s", ErrAlreadyInitialized, s.run)
	}
	id := uuid.Must(uuid.NewV7()).String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at) VALUES (?, ?)`,
		id, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	s.run = id
	slog.Info("checkpoint run started", "run", id)
	return id, nil
}

// Resume continues an existing run
func (s *Store) Resume(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != "" {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, s.run)
	}
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs WHERE id = ?`, runID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("resume run: %w", err)
	}
	s.run = id
	slog.Info("checkpoint run resumed", "run", id)
	return nil
}

// Run returns the id of the current run, empty before BeginRun or Resume
func (s *Store) Run() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

func (s *Store) currentRun() (string, error) {
	run := s.Run()
	if run == "" {
		return "", ErrNoRun
	}
	return run, nil
}

// Runs returns every run id in the database, oldest first
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LatestRun returns the most recently started run
func (s *Store) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no runs", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return id, nil
}
