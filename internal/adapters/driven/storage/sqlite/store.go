package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/debtscan/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BuildCatalog = (*Store)(nil)

// DBFile is the catalog database file name.
const DBFile = "catalog.db"

// Store is the SQLite build catalog.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the catalog in dataDir.
// If dataDir is empty, defaults to ~/.debtscan/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".debtscan", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Record stores the manifest of a published snapshot.
// Recording the same version twice updates the row.
func (s *Store) Record(ctx context.Context, m domain.IndexManifest) error {
	if m.Version == "" {
		return fmt.Errorf("%w: manifest has no version", domain.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_builds (version, created_at, model, dimensions, chunk_count, source)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(version) DO UPDATE SET
			created_at = excluded.created_at,
			model = excluded.model,
			dimensions = excluded.dimensions,
			chunk_count = excluded.chunk_count,
			source = excluded.source
	`, m.Version, m.CreatedAt.UTC(), m.Model, m.Dimensions, m.ChunkCount, m.Source)
	if err != nil {
		return fmt.Errorf("recording build: %w", err)
	}
	return nil
}

// List returns the most recent builds, newest first.
// A non-positive limit returns all builds.
func (s *Store) List(ctx context.Context, limit int) ([]domain.IndexManifest, error) {
	query := `
		SELECT version, created_at, model, dimensions, chunk_count, source
		FROM index_builds
		ORDER BY created_at DESC, version DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	defer rows.Close()

	var builds []domain.IndexManifest
	for rows.Next() {
		var m domain.IndexManifest
		var createdAt sql.NullTime
		if err := rows.Scan(&m.Version, &createdAt, &m.Model, &m.Dimensions, &m.ChunkCount, &m.Source); err != nil {
			return nil, fmt.Errorf("scanning build: %w", err)
		}
		if createdAt.Valid {
			m.CreatedAt = createdAt.Time
		}
		builds = append(builds, m)
	}
	return builds, rows.Err()
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
