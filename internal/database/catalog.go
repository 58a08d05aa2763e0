package database

import (
	"context"
	"fmt"

	"github.com/agni-pos/api/internal/billing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// CatalogStore reads and manages the menu-item and staff catalogs.
type CatalogStore struct {
	db DBTX
}

// NewCatalogStore creates a CatalogStore over db.
func NewCatalogStore(db DBTX) *CatalogStore {
	return &CatalogStore{db: db}
}

const menuItemColumns = `code, name, price_non_ac, price_ac, price_parcel,
	dynamic_price, gst, gst_percent, incentive, incentive_percent, ingredients`

func scanMenuItem(row pgx.Row) (*billing.MenuItem, error) {
	var (
		item                          billing.MenuItem
		nonAC, ac, parcel, gstP, incP pgtype.Numeric
	)
	err := row.Scan(&item.Code, &item.Name, &nonAC, &ac, &parcel,
		&item.DynamicPrice, &item.GST, &gstP, &item.Incentive, &incP, &item.Ingredients)
	if err != nil {
		return nil, err
	}
	item.PriceNonAC = numericToDecimal(nonAC)
	item.PriceAC = numericToDecimal(ac)
	item.PriceParcel = numericToDecimal(parcel)
	item.GSTPercent = numericToDecimal(gstP)
	item.IncentivePercent = numericToDecimal(incP)
	return &item, nil
}

// GetItemByCode fetches a single menu item. Returns pgx.ErrNoRows when absent.
func (s *CatalogStore) GetItemByCode(ctx context.Context, code string) (*billing.MenuItem, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE code = $1`, code)
	return scanMenuItem(row)
}

// FindItemsByPrefix matches menu items whose code or name starts with q,
// case-sensitive, merged and deduplicated by code.
func (s *CatalogStore) FindItemsByPrefix(ctx context.Context, q string) ([]*billing.MenuItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items
		 WHERE code LIKE $1 || '%' OR name LIKE $1 || '%'
		 ORDER BY code`, q)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	defer rows.Close()

	var out []*billing.MenuItem
	seen := make(map[string]bool)
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if seen[item.Code] {
			continue
		}
		seen[item.Code] = true
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListItems returns the whole menu ordered by code.
func (s *CatalogStore) ListItems(ctx context.Context) ([]*billing.MenuItem, error) {
	return s.FindItemsByPrefix(ctx, "")
}

// CreateItem inserts a menu item.
func (s *CatalogStore) CreateItem(ctx context.Context, item *billing.MenuItem) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO menu_items (code, name, price_non_ac, price_ac, price_parcel,
			dynamic_price, gst, gst_percent, incentive, incentive_percent, ingredients)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		item.Code, item.Name,
		decimalToNumeric(item.PriceNonAC), decimalToNumeric(item.PriceAC), decimalToNumeric(item.PriceParcel),
		item.DynamicPrice, item.GST, decimalToNumeric(item.GSTPercent),
		item.Incentive, decimalToNumeric(item.IncentivePercent), item.Ingredients)
	if err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}
	return nil
}

// UpdateItem replaces all editable fields of a menu item. Returns
// pgx.ErrNoRows when the code is unknown.
func (s *CatalogStore) UpdateItem(ctx context.Context, item *billing.MenuItem) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE menu_items SET name = $2, price_non_ac = $3, price_ac = $4,
			price_parcel = $5, dynamic_price = $6, gst = $7, gst_percent = $8,
			incentive = $9, incentive_percent = $10, ingredients = $11
		 WHERE code = $1`,
		item.Code, item.Name,
		decimalToNumeric(item.PriceNonAC), decimalToNumeric(item.PriceAC), decimalToNumeric(item.PriceParcel),
		item.DynamicPrice, item.GST, decimalToNumeric(item.GSTPercent),
		item.Incentive, decimalToNumeric(item.IncentivePercent), item.Ingredients)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteItem removes a menu item. Returns pgx.ErrNoRows when absent.
func (s *CatalogStore) DeleteItem(ctx context.Context, code string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM menu_items WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// --- Staff ---

// GetStaff fetches one staff member by employee id. Returns pgx.ErrNoRows
// when absent.
func (s *CatalogStore) GetStaff(ctx context.Context, empID string) (*billing.StaffMember, error) {
	var m billing.StaffMember
	err := s.db.QueryRow(ctx,
		`SELECT emp_id, name, role FROM staff WHERE emp_id = $1`, empID).
		Scan(&m.ID, &m.Name, &m.Role)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindStaffByPrefix matches staff whose employee id or name starts with q,
// case-sensitive, merged and deduplicated by id.
func (s *CatalogStore) FindStaffByPrefix(ctx context.Context, q string) ([]billing.StaffMember, error) {
	rows, err := s.db.Query(ctx,
		`SELECT emp_id, name, role FROM staff
		 WHERE emp_id LIKE $1 || '%' OR name LIKE $1 || '%'
		 ORDER BY emp_id`, q)
	if err != nil {
		return nil, fmt.Errorf("find staff: %w", err)
	}
	defer rows.Close()

	var out []billing.StaffMember
	seen := make(map[string]bool)
	for rows.Next() {
		var m billing.StaffMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Role); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListStaff returns all staff ordered by employee id.
func (s *CatalogStore) ListStaff(ctx context.Context) ([]billing.StaffMember, error) {
	return s.FindStaffByPrefix(ctx, "")
}

// CreateStaff inserts a staff member.
func (s *CatalogStore) CreateStaff(ctx context.Context, m *billing.StaffMember) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO staff (emp_id, name, role) VALUES ($1, $2, $3)`,
		m.ID, m.Name, m.Role)
	if err != nil {
		return fmt.Errorf("insert staff: %w", err)
	}
	return nil
}

// UpdateStaff updates a staff member's name and role. Returns pgx.ErrNoRows
// when absent.
func (s *CatalogStore) UpdateStaff(ctx context.Context, m *billing.StaffMember) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE staff SET name = $2, role = $3 WHERE emp_id = $1`,
		m.ID, m.Name, m.Role)
	if err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteStaff removes a staff member. Returns pgx.ErrNoRows when absent.
func (s *CatalogStore) DeleteStaff(ctx context.Context, empID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM staff WHERE emp_id = $1`, empID)
	if err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
