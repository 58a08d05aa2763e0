package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agni-pos/api/internal/billing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// BillsStore is the durable bill record. Implements billing.BillStore.
type BillsStore struct {
	db DBTX
}

// NewBillsStore creates a BillsStore over db.
func NewBillsStore(db DBTX) *BillsStore {
	return &BillsStore{db: db}
}

// lineItemJSON is the frozen shape of a bill/active-order line in jsonb.
// Only the named fields are persisted; nothing else from the catalog item
// ever reaches a historical bill.
type lineItemJSON struct {
	ItemCode         string          `json:"item_code"`
	ItemName         string          `json:"item_name"`
	Seating          string          `json:"seating"`
	Quantity         int32           `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	GST              bool            `json:"gst"`
	GSTPercent       decimal.Decimal `json:"gst_percent"`
	Incentive        bool            `json:"incentive"`
	IncentivePercent decimal.Decimal `json:"incentive_percent"`
}

type staffJSON struct {
	ID   string `json:"emp_id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func linesToJSON(lines []billing.LineItem) ([]byte, error) {
	out := make([]lineItemJSON, len(lines))
	for i, l := range lines {
		out[i] = lineItemJSON{
			ItemCode:         l.ItemCode,
			ItemName:         l.ItemName,
			Seating:          string(l.Seating),
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice,
			GST:              l.GST,
			GSTPercent:       l.GSTPercent,
			Incentive:        l.Incentive,
			IncentivePercent: l.IncentivePercent,
		}
	}
	return json.Marshal(out)
}

func linesFromJSON(data []byte) ([]billing.LineItem, error) {
	var rows []lineItemJSON
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	out := make([]billing.LineItem, len(rows))
	for i, r := range rows {
		out[i] = billing.LineItem{
			ItemCode:         r.ItemCode,
			ItemName:         r.ItemName,
			Seating:          billing.SeatingType(r.Seating),
			Quantity:         r.Quantity,
			UnitPrice:        r.UnitPrice,
			GST:              r.GST,
			GSTPercent:       r.GSTPercent,
			Incentive:        r.Incentive,
			IncentivePercent: r.IncentivePercent,
		}
	}
	return out, nil
}

func staffToJSON(m *billing.StaffMember) ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(staffJSON{ID: m.ID, Name: m.Name, Role: m.Role})
}

func staffFromJSON(data []byte) (*billing.StaffMember, error) {
	var s *staffJSON
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	return &billing.StaffMember{ID: s.ID, Name: s.Name, Role: s.Role}, nil
}

const billColumns = `bill_no, table_number, staff, items, subtotal, gst,
	incentive, total, status, created_at, created_by, paid_at, payment_mode,
	cash_given, cash_returned, cancel_reason`

func scanBill(row pgx.Row) (*billing.Bill, error) {
	var (
		b                               billing.Bill
		staffData, itemsData            []byte
		subtotal, gst, incentive, total pgtype.Numeric
		status                          string
		paidAt                          pgtype.Timestamptz
		paymentMode, cancelReason       pgtype.Text
		cashGiven, cashReturned         pgtype.Numeric
	)
	err := row.Scan(&b.BillNo, &b.TableNumber, &staffData, &itemsData,
		&subtotal, &gst, &incentive, &total, &status, &b.CreatedAt, &b.CreatedBy,
		&paidAt, &paymentMode, &cashGiven, &cashReturned, &cancelReason)
	if err != nil {
		return nil, err
	}

	if b.Staff, err = staffFromJSON(staffData); err != nil {
		return nil, fmt.Errorf("decode bill staff: %w", err)
	}
	if b.Items, err = linesFromJSON(itemsData); err != nil {
		return nil, fmt.Errorf("decode bill items: %w", err)
	}
	b.Subtotal = numericToDecimal(subtotal)
	b.GST = numericToDecimal(gst)
	b.Incentive = numericToDecimal(incentive)
	b.Total = numericToDecimal(total)
	b.Status = billing.BillStatus(status)
	if paidAt.Valid {
		t := paidAt.Time
		b.PaidAt = &t
	}
	if paymentMode.Valid {
		b.PaymentMode = paymentMode.String
	}
	b.CashGiven = numericPtr(cashGiven)
	b.CashReturned = numericPtr(cashReturned)
	if cancelReason.Valid {
		b.CancelReason = cancelReason.String
	}
	return &b, nil
}

// Append inserts a freshly printed bill.
func (s *BillsStore) Append(ctx context.Context, b *billing.Bill) error {
	staffData, err := staffToJSON(b.Staff)
	if err != nil {
		return fmt.Errorf("encode bill staff: %w", err)
	}
	itemsData, err := linesToJSON(b.Items)
	if err != nil {
		return fmt.Errorf("encode bill items: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO bills (bill_no, table_number, staff, items, subtotal, gst,
			incentive, total, status, created_at, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.BillNo, b.TableNumber, staffData, itemsData,
		decimalToNumeric(b.Subtotal), decimalToNumeric(b.GST),
		decimalToNumeric(b.Incentive), decimalToNumeric(b.Total),
		string(b.Status), b.CreatedAt, b.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

// Get fetches a bill by number.
func (s *BillsStore) Get(ctx context.Context, billNo string) (*billing.Bill, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE bill_no = $1`, billNo)
	b, err := scanBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrBillNotFound
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

// MarkPaid transitions a PRINTED bill to PAID. The UPDATE is conditional on
// the current status, so a concurrent pay/cancel loses cleanly instead of
// double-applying.
func (s *BillsStore) MarkPaid(ctx context.Context, billNo string, p billing.Payment) (*billing.Bill, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE bills SET status = $2, paid_at = $3, payment_mode = $4,
			cash_given = $5, cash_returned = $6
		 WHERE bill_no = $1 AND status = $7
		 RETURNING `+billColumns,
		billNo, string(billing.StatusPaid), p.PaidAt, p.Mode,
		nullableNumeric(p.CashGiven), nullableNumeric(p.CashReturned),
		string(billing.StatusPrinted))
	b, err := scanBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.staleStatusErr(ctx, billNo)
		}
		return nil, fmt.Errorf("mark bill paid: %w", err)
	}
	return b, nil
}

// MarkCancelled transitions a PRINTED bill to CANCELLED with a reason.
func (s *BillsStore) MarkCancelled(ctx context.Context, billNo, reason string) (*billing.Bill, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE bills SET status = $2, cancel_reason = $3
		 WHERE bill_no = $1 AND status = $4
		 RETURNING `+billColumns,
		billNo, string(billing.StatusCancelled), reason, string(billing.StatusPrinted))
	b, err := scanBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.staleStatusErr(ctx, billNo)
		}
		return nil, fmt.Errorf("mark bill cancelled: %w", err)
	}
	return b, nil
}

// staleStatusErr distinguishes "no such bill" from "bill exists but is no
// longer PRINTED" after a conditional update matched nothing.
func (s *BillsStore) staleStatusErr(ctx context.Context, billNo string) error {
	if _, err := s.Get(ctx, billNo); err != nil {
		return err
	}
	return billing.ErrBillNotPrinted
}

// ListByStatus returns bills in a status, newest first; bills printed in the
// same instant order by arrival.
func (s *BillsStore) ListByStatus(ctx context.Context, status billing.BillStatus) ([]*billing.Bill, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+billColumns+` FROM bills WHERE status = $1
		 ORDER BY created_at DESC, id DESC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var out []*billing.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBetween returns bills of any status created in [from, to), oldest
// first. Used by the reporting queries.
func (s *BillsStore) ListBetween(ctx context.Context, from, to time.Time) ([]*billing.Bill, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+billColumns+` FROM bills
		 WHERE created_at >= $1 AND created_at < $2
		 ORDER BY created_at, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list bills between: %w", err)
	}
	defer rows.Close()

	var out []*billing.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
