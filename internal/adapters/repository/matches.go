package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/shopspring/decimal"
)

const matchDetailSelect = `
	SELECT m.id, m.project_id, m.vendor_id, m.score, m.notes, m.created_at,
		` + projectColumns + `,
		` + vendorColumns + `,
		COALESCE(c.contact_email, '')
	FROM matches m
	JOIN projects p ON p.id = m.project_id
	JOIN vendors v ON v.id = m.vendor_id
	LEFT JOIN clients c ON c.id = p.client_id`

// CreateMatch inserts m and assigns its ID and creation time.
func (s *SQLiteStore) CreateMatch(ctx context.Context, m *model.Match) (err error) {
	defer s.track("create_match")(&err)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.stamp()
	}
	m.ID, err = insertMatch(ctx, s.db, *m)
	return err
}

// ReplaceMatches swaps the project's match set for ms inside one immediate
// transaction. IDs and creation times are written back to ms only after commit.
func (s *SQLiteStore) ReplaceMatches(ctx context.Context, projectID int64, ms []model.Match) (removed int64, err error) {
	defer s.track("replace_matches")(&err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE project_id = ?`, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches: %w", err)
	}
	if removed, err = res.RowsAffected(); err != nil {
		return 0, err
	}

	stamp := s.stamp()
	staged := make([]model.Match, len(ms))
	for i, m := range ms {
		if m.ProjectID != projectID {
			return 0, fmt.Errorf("match %d/%d outside project %d: %w", m.ProjectID, m.VendorID, projectID, ErrConflict)
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = stamp
		}
		if m.ID, err = insertMatch(ctx, tx, m); err != nil {
			return 0, err
		}
		staged[i] = m
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit matches: %w", err)
	}
	copy(ms, staged)
	return removed, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMatch(ctx context.Context, ex execer, m model.Match) (int64, error) {
	res, err := ex.ExecContext(ctx, `
		INSERT INTO matches (project_id, vendor_id, score, notes, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ProjectID, m.VendorID, m.Score, m.Notes, formatTime(m.CreatedAt))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return 0, fmt.Errorf("match %d/%d: %w", m.ProjectID, m.VendorID, ErrConflict)
		case isForeignKeyViolation(err):
			return 0, fmt.Errorf("match %d/%d: %w", m.ProjectID, m.VendorID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to insert match: %w", err)
	}
	return res.LastInsertId()
}

// ListMatchesByProject returns the project's matches, best score first.
func (s *SQLiteStore) ListMatchesByProject(ctx context.Context, projectID int64) ([]model.MatchDetail, error) {
	var err error
	defer s.track("list_matches_by_project")(&err)
	out, err := s.queryMatchDetails(ctx,
		matchDetailSelect+` WHERE m.project_id = ? ORDER BY m.score DESC, m.id`, projectID)
	return out, err
}

// ListMatches returns every match, newest first.
func (s *SQLiteStore) ListMatches(ctx context.Context) ([]model.MatchDetail, error) {
	var err error
	defer s.track("list_matches")(&err)
	out, err := s.queryMatchDetails(ctx, matchDetailSelect+` ORDER BY m.created_at DESC, m.id DESC`)
	return out, err
}

// ListMatchesSince returns matches created at or after since, newest first.
func (s *SQLiteStore) ListMatchesSince(ctx context.Context, since time.Time) ([]model.MatchDetail, error) {
	var err error
	defer s.track("list_matches_since")(&err)
	out, err := s.queryMatchDetails(ctx,
		matchDetailSelect+` WHERE m.created_at >= ? ORDER BY m.created_at DESC, m.id DESC`,
		formatTime(since))
	return out, err
}

// Totals aggregates project and match counts in one round trip.
func (s *SQLiteStore) Totals(ctx context.Context, since time.Time) (t Totals, err error) {
	defer s.track("totals")(&err)
	var avg decimal.NullDecimal
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM projects),
			(SELECT COUNT(*) FROM projects WHERE status = ?),
			(SELECT COUNT(*) FROM matches),
			(SELECT COUNT(*) FROM matches WHERE created_at >= ?),
			(SELECT AVG(score) FROM matches)
	`, string(model.StatusActive), formatTime(since)).Scan(
		&t.Projects, &t.ActiveProjects, &t.Matches, &t.RecentMatches, &avg)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to aggregate totals: %w", err)
	}
	t.AverageScore = decimal.Zero
	if avg.Valid {
		t.AverageScore = avg.Decimal.Round(2)
	}
	return t, nil
}

func (s *SQLiteStore) queryMatchDetails(ctx context.Context, query string, args ...any) ([]model.MatchDetail, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.MatchDetail
	for rows.Next() {
		d, err := scanMatchDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanMatchDetail(sc scanner) (model.MatchDetail, error) {
	var (
		d       model.MatchDetail
		created string
		pr      projectRow
		vr      vendorRow
	)
	dest := []any{&d.ID, &d.ProjectID, &d.VendorID, &d.Score, &d.Notes, &created}
	dest = append(dest, pr.dest()...)
	dest = append(dest, vr.dest()...)
	dest = append(dest, &d.ClientEmail)
	if err := sc.Scan(dest...); err != nil {
		return model.MatchDetail{}, err
	}

	var err error
	if d.CreatedAt, err = parseTime(created); err != nil {
		return model.MatchDetail{}, err
	}
	if d.Project, err = pr.finish(); err != nil {
		return model.MatchDetail{}, err
	}
	if d.Vendor, err = vr.finish(); err != nil {
		return model.MatchDetail{}, err
	}
	return d, nil
}

var _ Store = (*SQLiteStore)(nil)
