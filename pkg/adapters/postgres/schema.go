package postgres

import (
	"context"
	"fmt"

	"github.com/aretw0/quire/pkg/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS quire_facility_types (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS quire_service_lines (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS quire_scenarios (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'draft',
    facilities TEXT[] NOT NULL DEFAULT '{}',
    services   TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_quire_scenarios_name ON quire_scenarios (lower(name));

CREATE TABLE IF NOT EXISTS quire_scenario_versions (
    scenario_id   TEXT NOT NULL REFERENCES quire_scenarios(id) ON DELETE CASCADE,
    version       INT NOT NULL,
    questionnaire JSONB NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (scenario_id, version)
);
`

// CreateSchema creates the tables if they don't exist.
func (b *Backend) CreateSchema(ctx context.Context) error {
	_, err := b.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops every quire table.
func (b *Backend) DropSchema(ctx context.Context) error {
	_, err := b.db.Exec(ctx, `DROP TABLE IF EXISTS quire_scenario_versions, quire_scenarios, quire_service_lines, quire_facility_types CASCADE;`)
	return err
}

// SeedCatalog upserts facility types and service lines.
func (b *Backend) SeedCatalog(ctx context.Context, facilities, services []domain.Lookup) error {
	tx, err := b.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, f := range facilities {
		if _, err := tx.Exec(ctx,
			`INSERT INTO quire_facility_types (id, name) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, f.ID, f.Name); err != nil {
			return fmt.Errorf("postgres: seed facility %s: %w", f.ID, err)
		}
	}
	for _, s := range services {
		if _, err := tx.Exec(ctx,
			`INSERT INTO quire_service_lines (id, name) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, s.ID, s.Name); err != nil {
			return fmt.Errorf("postgres: seed service %s: %w", s.ID, err)
		}
	}
	return tx.Commit(ctx)
}
