package database

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Migrator applies the SQL files in a migrations directory exactly once,
// tracking applied versions in a schema_migrations table.
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a migrator bound to the given database.
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

type migrationFile struct {
	version  int
	name     string
	filename string
	sql      string
}

// RunMigrations applies every pending .sql file in dir, lowest version
// first. Filenames follow NNNN_name.sql.
func (m *Migrator) RunMigrations(dir string) error {
	if _, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := m.appliedVersions()
	if err != nil {
		return err
	}

	files, err := m.readDir(dir)
	if err != nil {
		return err
	}

	pending := 0
	for _, mig := range files {
		if _, ok := applied[mig.version]; ok {
			continue
		}
		m.logger.Info("Applying migration",
			zap.Int("version", mig.version),
			zap.String("name", mig.name))
		if err := m.apply(mig); err != nil {
			return fmt.Errorf("migration %s: %w", mig.filename, err)
		}
		pending++
	}

	m.logger.Info("Migrations up to date",
		zap.Int("applied", pending),
		zap.Int("total", len(files)))
	return nil
}

func (m *Migrator) appliedVersions() (map[int]struct{}, error) {
	rows, err := m.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]struct{})
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = struct{}{}
	}
	return applied, rows.Err()
}

func (m *Migrator) readDir(dir string) ([]migrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var files []migrationFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		prefix, rest, found := strings.Cut(entry.Name(), "_")
		if !found {
			return nil, fmt.Errorf("migration filename %s: want NNNN_name.sql", entry.Name())
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration filename %s: %w", entry.Name(), err)
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, migrationFile{
			version:  version,
			name:     strings.TrimSuffix(rest, ".sql"),
			filename: entry.Name(),
			sql:      string(content),
		})
	}

	slices.SortFunc(files, func(a, b migrationFile) int { return a.version - b.version })
	return files, nil
}

// apply runs one migration and records its version in the same transaction.
func (m *Migrator) apply(mig migrationFile) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.Exec(mig.sql); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("execute: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`,
		mig.version, mig.name,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record version %d: %w", mig.version, err)
	}
	return tx.Commit()
}
