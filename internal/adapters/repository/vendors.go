package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/shopspring/decimal"
)

const vendorColumns = `v.id, v.name, v.description, v.countries_supported, v.services_offered,
	v.rating, v.response_sla_hours, v.contact_email, v.phone, v.website, v.is_active,
	v.created_at, v.updated_at`

// CreateVendor inserts v and assigns its ID.
func (s *SQLiteStore) CreateVendor(ctx context.Context, v *model.Vendor) (err error) {
	defer s.track("create_vendor")(&err)
	countries, services, err := encodeVendorLists(v)
	if err != nil {
		return err
	}
	now := s.stamp()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO vendors (name, description, countries_supported, services_offered,
			rating, response_sla_hours, contact_email, phone, website, is_active,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.Name, v.Description, countries, services, v.Rating, v.ResponseSLAHours,
		v.ContactEmail, v.Phone, v.Website, v.IsActive,
		formatTime(v.CreatedAt), formatTime(v.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert vendor: %w", err)
	}
	v.ID, err = res.LastInsertId()
	return err
}

// GetVendor returns the vendor with id, active or not.
func (s *SQLiteStore) GetVendor(ctx context.Context, id int64) (v model.Vendor, err error) {
	defer s.track("get_vendor")(&err)
	row := s.db.QueryRowContext(ctx, `SELECT `+vendorColumns+` FROM vendors v WHERE v.id = ?`, id)
	v, err = scanVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vendor{}, fmt.Errorf("vendor %d: %w", id, ErrNotFound)
	}
	return v, err
}

// ListVendors returns vendors ordered by id.
func (s *SQLiteStore) ListVendors(ctx context.Context, activeOnly bool) ([]model.Vendor, error) {
	var err error
	defer s.track("list_vendors")(&err)
	query := `SELECT ` + vendorColumns + ` FROM vendors v`
	if activeOnly {
		query += ` WHERE v.is_active = 1`
	}
	query += ` ORDER BY v.id`
	out, err := s.queryVendors(ctx, query)
	return out, err
}

// FindEligibleVendors selects active vendors covering country with at least
// one service in common with services.
func (s *SQLiteStore) FindEligibleVendors(ctx context.Context, country string, services []string) ([]model.Vendor, error) {
	var err error
	defer s.track("find_eligible_vendors")(&err)
	if len(services) == 0 {
		return nil, nil
	}
	needed, err := encodeList(services)
	if err != nil {
		return nil, err
	}
	out, err := s.queryVendors(ctx, `
		SELECT `+vendorColumns+`
		FROM vendors v
		WHERE v.is_active = 1
		  AND EXISTS (SELECT 1 FROM json_each(v.countries_supported) c WHERE c.value = ?)
		  AND EXISTS (
			SELECT 1 FROM json_each(v.services_offered) o
			WHERE o.value IN (SELECT n.value FROM json_each(?) n)
		  )
		ORDER BY v.id
	`, country, needed)
	return out, err
}

// UpdateVendor overwrites the mutable fields of v.
func (s *SQLiteStore) UpdateVendor(ctx context.Context, v *model.Vendor) (err error) {
	defer s.track("update_vendor")(&err)
	countries, services, err := encodeVendorLists(v)
	if err != nil {
		return err
	}
	v.UpdatedAt = s.stamp()

	res, err := s.db.ExecContext(ctx, `
		UPDATE vendors SET name = ?, description = ?, countries_supported = ?,
			services_offered = ?, rating = ?, response_sla_hours = ?, contact_email = ?,
			phone = ?, website = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, v.Name, v.Description, countries, services, v.Rating, v.ResponseSLAHours,
		v.ContactEmail, v.Phone, v.Website, v.IsActive, formatTime(v.UpdatedAt), v.ID)
	if err != nil {
		return fmt.Errorf("failed to update vendor: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("vendor %d: %w", v.ID, err)
	}
	return nil
}

// DeleteVendor removes the vendor; its matches cascade.
func (s *SQLiteStore) DeleteVendor(ctx context.Context, id int64) (err error) {
	defer s.track("delete_vendor")(&err)
	res, err := s.db.ExecContext(ctx, `DELETE FROM vendors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vendor: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("vendor %d: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) queryVendors(ctx context.Context, query string, args ...any) ([]model.Vendor, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func encodeVendorLists(v *model.Vendor) (string, string, error) {
	countries, err := encodeList(v.CountriesSupported)
	if err != nil {
		return "", "", err
	}
	services, err := encodeList(v.ServicesOffered)
	if err != nil {
		return "", "", err
	}
	return countries, services, nil
}

// vendorRow holds the raw columns of a vendor for scans that join other tables.
type vendorRow struct {
	v                   model.Vendor
	countries, services string
	rating              decimal.Decimal
	created, updated    string
}

func (r *vendorRow) dest() []any {
	return []any{&r.v.ID, &r.v.Name, &r.v.Description, &r.countries, &r.services,
		&r.rating, &r.v.ResponseSLAHours, &r.v.ContactEmail, &r.v.Phone, &r.v.Website,
		&r.v.IsActive, &r.created, &r.updated}
}

func (r *vendorRow) finish() (model.Vendor, error) {
	var err error
	v := r.v
	v.Rating = r.rating
	if v.CountriesSupported, err = decodeList(r.countries); err != nil {
		return model.Vendor{}, err
	}
	if v.ServicesOffered, err = decodeList(r.services); err != nil {
		return model.Vendor{}, err
	}
	if v.CreatedAt, err = parseTime(r.created); err != nil {
		return model.Vendor{}, err
	}
	if v.UpdatedAt, err = parseTime(r.updated); err != nil {
		return model.Vendor{}, err
	}
	return v, nil
}

func scanVendor(sc scanner) (model.Vendor, error) {
	var r vendorRow
	if err := sc.Scan(r.dest()...); err != nil {
		return model.Vendor{}, err
	}
	return r.finish()
}
