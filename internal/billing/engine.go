package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agni-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// BillStore is the durable record of all bills. Implementations return
// ErrBillNotFound from Get, and ErrBillNotPrinted from MarkPaid/MarkCancelled
// when the conditional update matched no PRINTED row. Bills are only appended
// and transitioned, never deleted.
type BillStore interface {
	Append(ctx context.Context, bill *Bill) error
	Get(ctx context.Context, billNo string) (*Bill, error)
	MarkPaid(ctx context.Context, billNo string, p Payment) (*Bill, error)
	MarkCancelled(ctx context.Context, billNo, reason string) (*Bill, error)
	ListByStatus(ctx context.Context, status BillStatus) ([]*Bill, error)
}

// Engine drives the order-to-bill transition and the bill state machine:
//
//	active order --print--> PRINTED --pay--> PAID
//	                        PRINTED --cancel--> CANCELLED
type Engine struct {
	ledger *Ledger
	bills  BillStore

	mu        sync.Mutex
	lastStamp int64

	now func() time.Time
}

// NewEngine creates an Engine over the given ledger and bill store.
func NewEngine(ledger *Ledger, bills BillStore) *Engine {
	return &Engine{ledger: ledger, bills: bills, now: time.Now}
}

// nextBillNo derives a bill number from the current clock, bumped past the
// previous one so two prints in the same millisecond cannot collide.
func (e *Engine) nextBillNo() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	stamp := e.now().UnixMilli()
	if stamp <= e.lastStamp {
		stamp = e.lastStamp + 1
	}
	e.lastStamp = stamp
	return fmt.Sprintf("B%d", stamp)
}

// Print turns the active order on a table into a PRINTED bill and vacates the
// table. The bill is appended to the store first; if that write fails the
// table stays active and no bill becomes visible.
func (e *Engine) Print(ctx context.Context, table, createdBy string) (*Bill, error) {
	unlock := e.ledger.LockTable(table)
	defer unlock()

	order, ok := e.ledger.Get(table)
	if !ok {
		return nil, ErrOrderNotFound
	}
	if len(order.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	items := make([]LineItem, len(order.Lines))
	copy(items, order.Lines)
	totals := ComputeTotals(items)

	bill := &Bill{
		BillNo:      e.nextBillNo(),
		TableNumber: order.TableNumber,
		Staff:       order.Staff,
		Items:       items,
		Subtotal:    totals.Subtotal,
		GST:         totals.GST,
		Incentive:   totals.Incentive,
		Total:       totals.Grand,
		Status:      StatusPrinted,
		CreatedAt:   e.now(),
		CreatedBy:   createdBy,
	}
	if err := e.bills.Append(ctx, bill); err != nil {
		return nil, fmt.Errorf("append bill: %w", err)
	}
	if err := e.ledger.Remove(ctx, table); err != nil {
		// The bill is durable; only the vacate write failed. The in-memory
		// ledger no longer lists the table, so readers stay consistent.
		return nil, fmt.Errorf("vacate table %s: %w", table, err)
	}
	return bill, nil
}

// Pay settles a PRINTED bill. Cash payments require cashGiven >= total and
// record the change; other modes leave the cash fields empty. A bill can be
// paid at most once.
func (e *Engine) Pay(ctx context.Context, billNo, mode string, cashGiven decimal.Decimal) (*Bill, error) {
	bill, err := e.bills.Get(ctx, billNo)
	if err != nil {
		return nil, err
	}
	if bill.Status != StatusPrinted {
		return nil, ErrInvalidBillState
	}

	p := Payment{Mode: mode, PaidAt: e.now()}
	if mode == enum.PaymentModeCash {
		if cashGiven.LessThan(bill.Total) {
			return nil, ErrInsufficientCash
		}
		change := cashGiven.Sub(bill.Total)
		p.CashGiven = &cashGiven
		p.CashReturned = &change
	}

	paid, err := e.bills.MarkPaid(ctx, billNo, p)
	if err != nil {
		if errors.Is(err, ErrBillNotPrinted) {
			return nil, ErrInvalidBillState
		}
		return nil, fmt.Errorf("mark bill paid: %w", err)
	}
	return paid, nil
}

// Cancel voids a PRINTED bill with a reason. Terminal: a cancelled bill can
// never be paid.
func (e *Engine) Cancel(ctx context.Context, billNo, reason string) (*Bill, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	bill, err := e.bills.Get(ctx, billNo)
	if err != nil {
		return nil, err
	}
	if bill.Status != StatusPrinted {
		return nil, ErrInvalidBillState
	}

	cancelled, err := e.bills.MarkCancelled(ctx, billNo, reason)
	if err != nil {
		if errors.Is(err, ErrBillNotPrinted) {
			return nil, ErrInvalidBillState
		}
		return nil, fmt.Errorf("mark bill cancelled: %w", err)
	}
	return cancelled, nil
}

// ListPending returns all PRINTED bills awaiting payment or cancellation,
// newest first.
func (e *Engine) ListPending(ctx context.Context) ([]*Bill, error) {
	bills, err := e.bills.ListByStatus(ctx, StatusPrinted)
	if err != nil {
		return nil, fmt.Errorf("list pending bills: %w", err)
	}
	return bills, nil
}
