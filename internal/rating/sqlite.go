package rating

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"rawcull/internal/errors"
	"rawcull/internal/log"
	"rawcull/pkg/types"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore persists ratings in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending schema migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.NewDatabaseError("no database path", nil).WithOperation("open")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.NewDatabaseError("failed to create database directory", err).WithOperation("open")
	}
	if err := runMigrations(path); err != nil {
		return nil, errors.NewDatabaseError("failed to migrate ratings database", err).WithOperation("migrate")
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, errors.NewDatabaseError("failed to open ratings database", err).WithOperation("open")
	}
	// SQLite allows one writer; serialise through a single connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("failed to open ratings database", err).WithOperation("open")
	}

	log.LogWithFields(log.F("database", path)).Debug("Ratings database opened")
	return &SQLiteStore{db: db, path: path}, nil
}

func runMigrations(path string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+path)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if err == migrate.ErrNoChange {
		return nil
	}
	return err
}

// Set records r for path.
func (s *SQLiteStore) Set(path string, r types.Rating) error {
	if !r.Valid() {
		return errors.NewRatingError(int(r))
	}
	_, err := s.db.Exec(`
		INSERT INTO ratings (path, rating, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(path) DO UPDATE SET rating = excluded.rating, updated_at = excluded.updated_at`,
		path, int(r))
	if err != nil {
		return errors.NewDatabaseError("failed to save rating", err).WithOperation("set")
	}
	return nil
}

// Get returns the stored rating, or 0 when the path was never rated or the
// lookup fails.
func (s *SQLiteStore) Get(path string) types.Rating {
	var r int
	err := s.db.QueryRow(`SELECT rating FROM ratings WHERE path = ?`, path).Scan(&r)
	if err != nil {
		if err != sql.ErrNoRows {
			log.LogWithError(err, log.F("path", path)).Warn("Failed to read rating")
		}
		return 0
	}
	return types.Rating(r)
}

// All returns every stored rating.
func (s *SQLiteStore) All() map[string]types.Rating {
	out := make(map[string]types.Rating)
	rows, err := s.db.Query(`SELECT path, rating FROM ratings`)
	if err != nil {
		log.LogWithError(err).Warn("Failed to list ratings")
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var path string
		var r int
		if err := rows.Scan(&path, &r); err != nil {
			log.LogWithError(err).Warn("Failed to scan rating")
			continue
		}
		out[path] = types.Rating(r)
	}
	return out
}

// Path returns the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
