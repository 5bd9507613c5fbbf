package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/expanders360/vendormatch/internal/domain/model"
)

// CreateClient inserts c and assigns its ID.
func (s *SQLiteStore) CreateClient(ctx context.Context, c *model.Client) (err error) {
	defer s.track("create_client")(&err)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.stamp()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (company_name, contact_email, created_at)
		VALUES (?, ?, ?)
	`, c.CompanyName, c.ContactEmail, formatTime(c.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("client %s: %w", c.ContactEmail, ErrConflict)
		}
		return fmt.Errorf("failed to insert client: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// GetClient returns the client with id.
func (s *SQLiteStore) GetClient(ctx context.Context, id int64) (c model.Client, err error) {
	defer s.track("get_client")(&err)
	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_name, contact_email, created_at
		FROM clients WHERE id = ?
	`, id)
	c, err = scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Client{}, fmt.Errorf("client %d: %w", id, ErrNotFound)
	}
	return c, err
}

// ListClients returns every client ordered by id.
func (s *SQLiteStore) ListClients(ctx context.Context) (out []model.Client, err error) {
	defer s.track("list_clients")(&err)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_name, contact_email, created_at
		FROM clients ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(sc scanner) (model.Client, error) {
	var (
		c       model.Client
		created string
	)
	if err := sc.Scan(&c.ID, &c.CompanyName, &c.ContactEmail, &created); err != nil {
		return model.Client{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return model.Client{}, err
	}
	c.CreatedAt = t
	return c, nil
}
