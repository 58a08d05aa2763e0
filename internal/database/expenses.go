package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Expense is a recorded outgoing payment (supplies, wages, utilities).
type Expense struct {
	ID          int64
	Type        string
	Description string
	Amount      decimal.Decimal
	SpentAt     time.Time
	CreatedBy   string
}

// ExpensesStore manages expense types and entries.
type ExpensesStore struct {
	db DBTX
}

// NewExpensesStore creates an ExpensesStore over db.
func NewExpensesStore(db DBTX) *ExpensesStore {
	return &ExpensesStore{db: db}
}

// ListExpenseTypes returns the configured expense categories.
func (s *ExpensesStore) ListExpenseTypes(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT name FROM expense_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list expense types: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan expense type: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// CreateExpenseType adds a category. Duplicate names are not an error.
func (s *ExpensesStore) CreateExpenseType(ctx context.Context, name string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO expense_types (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
		name)
	if err != nil {
		return fmt.Errorf("insert expense type: %w", err)
	}
	return nil
}

// CreateExpense records an expense and returns it with the generated id.
func (s *ExpensesStore) CreateExpense(ctx context.Context, e *Expense) (*Expense, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO expenses (type, description, amount, spent_at, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		e.Type, e.Description, decimalToNumeric(e.Amount), e.SpentAt, e.CreatedBy)
	out := *e
	if err := row.Scan(&out.ID); err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	return &out, nil
}

// ListExpensesBetween returns expenses spent in [from, to), newest first.
func (s *ExpensesStore) ListExpensesBetween(ctx context.Context, from, to time.Time) ([]*Expense, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, type, description, amount, spent_at, created_by
		 FROM expenses
		 WHERE spent_at >= $1 AND spent_at < $2
		 ORDER BY spent_at DESC, id DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []*Expense
	for rows.Next() {
		var (
			e      Expense
			amount pgtype.Numeric
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Description, &amount, &e.SpentAt, &e.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Amount = numericToDecimal(amount)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// DeleteExpense removes an expense entry. Returns pgx.ErrNoRows when absent.
func (s *ExpensesStore) DeleteExpense(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
