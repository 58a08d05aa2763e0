package database

import (
	"context"
	"fmt"

	"github.com/agni-pos/api/internal/billing"
)

// TablesStore is the durable slot behind the active-order ledger. Implements
// billing.TableStore. One row per occupied table; the position serial
// preserves commit order across restarts.
type TablesStore struct {
	db DBTX
}

// NewTablesStore creates a TablesStore over db.
func NewTablesStore(db DBTX) *TablesStore {
	return &TablesStore{db: db}
}

// Insert claims a table atomically. ON CONFLICT DO NOTHING makes the
// uniqueness decision in the database, so two racing commits cannot both win.
func (s *TablesStore) Insert(ctx context.Context, o *billing.ActiveOrder) error {
	staffData, err := staffToJSON(o.Staff)
	if err != nil {
		return fmt.Errorf("encode order staff: %w", err)
	}
	itemsData, err := linesToJSON(o.Lines)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	tag, err := s.db.Exec(ctx,
		`INSERT INTO active_tables (table_number, staff, seating, items)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (table_number) DO NOTHING`,
		o.TableNumber, staffData, string(o.Seating), itemsData)
	if err != nil {
		return fmt.Errorf("insert active table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrTableAlreadyActive
	}
	return nil
}

// Replace overwrites the order stored under table, keeping its position.
func (s *TablesStore) Replace(ctx context.Context, table string, o *billing.ActiveOrder) error {
	staffData, err := staffToJSON(o.Staff)
	if err != nil {
		return fmt.Errorf("encode order staff: %w", err)
	}
	itemsData, err := linesToJSON(o.Lines)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE active_tables SET staff = $2, seating = $3, items = $4
		 WHERE table_number = $1`,
		table, staffData, string(o.Seating), itemsData)
	if err != nil {
		return fmt.Errorf("update active table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrTableNotActive
	}
	return nil
}

// Delete vacates a table. Deleting an absent row is not an error.
func (s *TablesStore) Delete(ctx context.Context, table string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM active_tables WHERE table_number = $1`, table)
	if err != nil {
		return fmt.Errorf("delete active table: %w", err)
	}
	return nil
}

// LoadAll returns every active order in commit order.
func (s *TablesStore) LoadAll(ctx context.Context) ([]*billing.ActiveOrder, error) {
	rows, err := s.db.Query(ctx,
		`SELECT table_number, staff, seating, items
		 FROM active_tables ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load active tables: %w", err)
	}
	defer rows.Close()

	var out []*billing.ActiveOrder
	for rows.Next() {
		var (
			o                    billing.ActiveOrder
			staffData, itemsData []byte
			seating              string
		)
		if err := rows.Scan(&o.TableNumber, &staffData, &seating, &itemsData); err != nil {
			return nil, fmt.Errorf("scan active table: %w", err)
		}
		o.Seating = billing.SeatingType(seating)
		if o.Staff, err = staffFromJSON(staffData); err != nil {
			return nil, fmt.Errorf("decode order staff: %w", err)
		}
		if o.Lines, err = linesFromJSON(itemsData); err != nil {
			return nil, fmt.Errorf("decode order items: %w", err)
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}
