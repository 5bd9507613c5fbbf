package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/shopspring/decimal"
)

const projectColumns = `p.id, p.client_id, p.name, p.description, p.country, p.services_needed,
	p.budget, p.status, p.start_date, p.end_date, p.created_at, p.updated_at`

// CreateProject inserts p and assigns its ID.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *model.Project) (err error) {
	defer s.track("create_project")(&err)
	services, err := encodeList(p.ServicesNeeded)
	if err != nil {
		return err
	}
	now := s.stamp()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = model.StatusActive
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (client_id, name, description, country, services_needed,
			budget, status, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, nullID(p.ClientID), p.Name, p.Description, p.Country, services,
		p.Budget, string(p.Status), formatNullTime(p.StartDate), formatNullTime(p.EndDate),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("client %d: %w", p.ClientID, ErrNotFound)
		}
		return fmt.Errorf("failed to insert project: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// GetProject returns the project with id.
func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (p model.Project, err error) {
	defer s.track("get_project")(&err)
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id)
	p, err = scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return p, err
}

// ListProjects returns projects matching f ordered by id.
func (s *SQLiteStore) ListProjects(ctx context.Context, f ProjectFilter) (out []model.Project, err error) {
	defer s.track("list_projects")(&err)
	var (
		where []string
		args  []any
	)
	if f.ClientID != 0 {
		where = append(where, "p.client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.Status != "" {
		where = append(where, "p.status = ?")
		args = append(args, string(f.Status))
	}
	query := `SELECT ` + projectColumns + ` FROM projects p`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProject overwrites the mutable fields of p.
func (s *SQLiteStore) UpdateProject(ctx context.Context, p *model.Project) (err error) {
	defer s.track("update_project")(&err)
	services, err := encodeList(p.ServicesNeeded)
	if err != nil {
		return err
	}
	p.UpdatedAt = s.stamp()

	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET client_id = ?, name = ?, description = ?, country = ?,
			services_needed = ?, budget = ?, status = ?, start_date = ?, end_date = ?,
			updated_at = ?
		WHERE id = ?
	`, nullID(p.ClientID), p.Name, p.Description, p.Country, services, p.Budget,
		string(p.Status), formatNullTime(p.StartDate), formatNullTime(p.EndDate),
		formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("client %d: %w", p.ClientID, ErrNotFound)
		}
		return fmt.Errorf("failed to update project: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("project %d: %w", p.ID, err)
	}
	return nil
}

// DeleteProject removes the project; its matches cascade.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id int64) (err error) {
	defer s.track("delete_project")(&err)
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("project %d: %w", id, err)
	}
	return nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// projectRow holds the raw columns of a project for scans that join other tables.
type projectRow struct {
	p                model.Project
	clientID         sql.NullInt64
	services, status string
	budget           decimal.Decimal
	start, end       sql.NullString
	created, updated string
}

func (r *projectRow) dest() []any {
	return []any{&r.p.ID, &r.clientID, &r.p.Name, &r.p.Description, &r.p.Country, &r.services,
		&r.budget, &r.status, &r.start, &r.end, &r.created, &r.updated}
}

func (r *projectRow) finish() (model.Project, error) {
	var err error
	p := r.p
	p.ClientID = r.clientID.Int64
	p.Budget = r.budget
	p.Status = model.ProjectStatus(r.status)
	if p.ServicesNeeded, err = decodeList(r.services); err != nil {
		return model.Project{}, err
	}
	if p.StartDate, err = parseNullTime(r.start); err != nil {
		return model.Project{}, err
	}
	if p.EndDate, err = parseNullTime(r.end); err != nil {
		return model.Project{}, err
	}
	if p.CreatedAt, err = parseTime(r.created); err != nil {
		return model.Project{}, err
	}
	if p.UpdatedAt, err = parseTime(r.updated); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

func scanProject(sc scanner) (model.Project, error) {
	var r projectRow
	if err := sc.Scan(r.dest()...); err != nil {
		return model.Project{}, err
	}
	return r.finish()
}
