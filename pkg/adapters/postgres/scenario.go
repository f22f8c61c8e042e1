package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/jackc/pgx/v5"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CreateScenario inserts a scenario with its first questionnaire version.
func (b *Backend) CreateScenario(ctx context.Context, in domain.CreateScenarioInput) (*domain.MutationResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return failure(400, "Scenario name is required"), nil
	}
	if msg, err := b.checkCatalog(ctx, b.db, in.Facilities, in.Services); err != nil {
		return nil, err
	} else if msg != "" {
		return failure(400, msg), nil
	}

	doc, err := json.Marshal(in.Questionnaire)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode questionnaire: %w", err)
	}

	tx, err := b.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	id := b.newID()
	_, err = tx.Exec(ctx,
		`INSERT INTO quire_scenarios (id, name, status, facilities, services) VALUES ($1, $2, $3, $4, $5)`,
		id, name, domain.ScenarioStatusDraft, nonNil(in.Facilities), nonNil(in.Services),
	)
	if isUniqueViolation(err) {
		return failure(409, fmt.Sprintf("A scenario named %q already exists", name)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: insert scenario: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO quire_scenario_versions (scenario_id, version, questionnaire) VALUES ($1, 1, $2)`,
		id, doc,
	); err != nil {
		return nil, fmt.Errorf("postgres: insert version: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: commit: %w", err)
	}

	return &domain.MutationResult{
		Code:    201,
		Message: "Scenario created successfully",
		Type:    "success",
		Data:    &domain.ScenarioRef{ID: id, Name: name},
	}, nil
}

func failure(code int, msg string) *domain.MutationResult {
	return &domain.MutationResult{Code: code, Message: msg, Type: "error"}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// GetScenarioByID returns the scenario with its latest questionnaire.
func (b *Backend) GetScenarioByID(ctx context.Context, id string) (*domain.ScenarioRecord, error) {
	var (
		rec domain.ScenarioRecord
		doc []byte
	)
	err := b.db.QueryRow(ctx, `
		SELECT s.id, s.name, s.status, s.facilities, s.services, v.version, v.questionnaire
		FROM quire_scenarios s
		JOIN quire_scenario_versions v ON v.scenario_id = s.id
		WHERE s.id = $1
		ORDER BY v.version DESC
		LIMIT 1`, id,
	).Scan(&rec.Scenario.ID, &rec.Scenario.Name, &rec.Status, &rec.Facilities, &rec.Services, &rec.Version, &doc)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get scenario: %w", err)
	}
	if err := json.Unmarshal(doc, &rec.Questionnaire); err != nil {
		return nil, fmt.Errorf("postgres: decode questionnaire of %s: %w", id, err)
	}
	return &rec, nil
}

// UpdateTemplate overwrites the provided fields. A questionnaire creates a
// new version.
func (b *Backend) UpdateTemplate(ctx context.Context, in domain.UpdateTemplateInput) (*domain.UpdateTemplateResult, error) {
	tx, err := b.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var ref domain.ScenarioRef
	err = tx.QueryRow(ctx, `SELECT id, name FROM quire_scenarios WHERE id = $1 FOR UPDATE`, in.ID).Scan(&ref.ID, &ref.Name)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, in.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: lock scenario: %w", err)
	}

	if msg, err := b.checkCatalog(ctx, tx, in.Facilities, in.Services); err != nil {
		return nil, err
	} else if msg != "" {
		return nil, &domain.APIError{Code: 400, Message: msg}
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, &domain.APIError{Code: 400, Message: "Scenario name is required"}
		}
		_, err := tx.Exec(ctx, `UPDATE quire_scenarios SET name = $2, updated_at = NOW() WHERE id = $1`, in.ID, name)
		if isUniqueViolation(err) {
			return nil, &domain.APIError{Code: 409, Message: fmt.Sprintf("A scenario named %q already exists", name)}
		}
		if err != nil {
			return nil, fmt.Errorf("postgres: rename scenario: %w", err)
		}
		ref.Name = name
	}
	if in.Facilities != nil {
		if _, err := tx.Exec(ctx, `UPDATE quire_scenarios SET facilities = $2, updated_at = NOW() WHERE id = $1`, in.ID, in.Facilities); err != nil {
			return nil, fmt.Errorf("postgres: update facilities: %w", err)
		}
	}
	if in.Services != nil {
		if _, err := tx.Exec(ctx, `UPDATE quire_scenarios SET services = $2, updated_at = NOW() WHERE id = $1`, in.ID, in.Services); err != nil {
			return nil, fmt.Errorf("postgres: update services: %w", err)
		}
	}

	created := false
	version := 0
	if in.Questionnaire != nil {
		doc, err := json.Marshal(in.Questionnaire)
		if err != nil {
			return nil, fmt.Errorf("postgres: encode questionnaire: %w", err)
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO quire_scenario_versions (scenario_id, version, questionnaire)
			SELECT $1, COALESCE(MAX(version), 0) + 1, $2 FROM quire_scenario_versions WHERE scenario_id = $1
			RETURNING version`, in.ID, doc,
		).Scan(&version)
		if err != nil {
			return nil, fmt.Errorf("postgres: insert version: %w", err)
		}
		created = true
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: commit: %w", err)
	}

	msg := "Template updated"
	if created {
		msg = fmt.Sprintf("Template updated, version %d created", version)
	}
	return &domain.UpdateTemplateResult{Scenario: ref, NewVersionCreated: created, Message: msg}, nil
}

// checkCatalog returns a user message naming the first unknown id.
func (b *Backend) checkCatalog(ctx context.Context, q querier, facilities, services []string) (string, error) {
	if id, err := firstUnknown(ctx, q, "quire_facility_types", facilities); err != nil {
		return "", err
	} else if id != "" {
		return fmt.Sprintf("Unknown facility type %q", id), nil
	}
	if id, err := firstUnknown(ctx, q, "quire_service_lines", services); err != nil {
		return "", err
	} else if id != "" {
		return fmt.Sprintf("Unknown service line %q", id), nil
	}
	return "", nil
}

func firstUnknown(ctx context.Context, q querier, table string, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	var missing *string
	err := q.QueryRow(ctx, `
		SELECT u.id FROM unnest($1::text[]) AS u(id)
		WHERE NOT EXISTS (SELECT 1 FROM `+table+` t WHERE t.id = u.id)
		LIMIT 1`, ids,
	).Scan(&missing)
	if isNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("postgres: check %s: %w", table, err)
	}
	return *missing, nil
}

// GetAllFacilityTypes lists the facility catalog ordered by name.
func (b *Backend) GetAllFacilityTypes(ctx context.Context) ([]domain.Lookup, error) {
	return b.lookups(ctx, "quire_facility_types")
}

// GetServiceLines lists the service line catalog ordered by name.
func (b *Backend) GetServiceLines(ctx context.Context) ([]domain.Lookup, error) {
	return b.lookups(ctx, "quire_service_lines")
}

func (b *Backend) lookups(ctx context.Context, table string) ([]domain.Lookup, error) {
	rows, err := b.db.Query(ctx, `SELECT id, name FROM `+table+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list %s: %w", table, err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Lookup, error) {
		var l domain.Lookup
		err := r.Scan(&l.ID, &l.Name)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan %s: %w", table, err)
	}
	return out, nil
}
