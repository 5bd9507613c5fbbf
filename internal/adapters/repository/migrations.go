package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/expanders360/vendormatch/pkg/logger"
)

// ExpectedSchemaVersion is the schema version this build requires.
const ExpectedSchemaVersion = 2

// Migration is one forward-only schema change.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS clients (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					company_name TEXT NOT NULL,
					contact_email TEXT NOT NULL UNIQUE,
					created_at TEXT NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS projects (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					client_id INTEGER REFERENCES clients(id) ON DELETE SET NULL,
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					country TEXT NOT NULL,
					services_needed TEXT NOT NULL DEFAULT '[]',
					budget TEXT NOT NULL DEFAULT '0',
					status TEXT NOT NULL DEFAULT 'active',
					start_date TEXT,
					end_date TEXT,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,
				`CREATE INDEX idx_projects_status ON projects(status)`,
				`CREATE INDEX idx_projects_client ON projects(client_id)`,

				`CREATE TABLE IF NOT EXISTS vendors (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					countries_supported TEXT NOT NULL DEFAULT '[]',
					services_offered TEXT NOT NULL DEFAULT '[]',
					rating REAL NOT NULL DEFAULT 0,
					response_sla_hours INTEGER NOT NULL DEFAULT 24,
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,
				`CREATE INDEX idx_vendors_active ON vendors(is_active)`,

				`CREATE TABLE IF NOT EXISTS matches (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
					vendor_id INTEGER NOT NULL REFERENCES vendors(id) ON DELETE CASCADE,
					score REAL NOT NULL,
					created_at TEXT NOT NULL,
					UNIQUE(project_id, vendor_id)
				)`,
				`CREATE INDEX idx_matches_vendor ON matches(vendor_id)`,
				`CREATE INDEX idx_matches_created ON matches(created_at)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Vendor contact details and match notes",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`ALTER TABLE vendors ADD COLUMN description TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE vendors ADD COLUMN contact_email TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE vendors ADD COLUMN phone TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE vendors ADD COLUMN website TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE matches ADD COLUMN notes TEXT NOT NULL DEFAULT ''`,
			})
		},
	},
}

// SchemaVersion reports the database's current schema version.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		s.log.Info(ctx, "applied migration",
			logger.Int("version", migration.Version),
			logger.String("description", migration.Description))
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}
	return nil
}
