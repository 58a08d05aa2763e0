package billing

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/agni-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// mockBillStore implements BillStore in memory with configurable failures.
type mockBillStore struct {
	bills     map[string]*Bill
	arrival   []string
	appendErr error
	getErr    error
}

func newMockBillStore() *mockBillStore {
	return &mockBillStore{bills: make(map[string]*Bill)}
}

func (m *mockBillStore) Append(ctx context.Context, b *Bill) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	cp := *b
	m.bills[b.BillNo] = &cp
	m.arrival = append(m.arrival, b.BillNo)
	return nil
}

func (m *mockBillStore) Get(ctx context.Context, billNo string) (*Bill, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.bills[billNo]
	if !ok {
		return nil, ErrBillNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockBillStore) MarkPaid(ctx context.Context, billNo string, p Payment) (*Bill, error) {
	b, ok := m.bills[billNo]
	if !ok {
		return nil, ErrBillNotFound
	}
	if b.Status != StatusPrinted {
		return nil, ErrBillNotPrinted
	}
	b.Status = StatusPaid
	paidAt := p.PaidAt
	b.PaidAt = &paidAt
	b.PaymentMode = p.Mode
	b.CashGiven = p.CashGiven
	b.CashReturned = p.CashReturned
	cp := *b
	return &cp, nil
}

func (m *mockBillStore) MarkCancelled(ctx context.Context, billNo, reason string) (*Bill, error) {
	b, ok := m.bills[billNo]
	if !ok {
		return nil, ErrBillNotFound
	}
	if b.Status != StatusPrinted {
		return nil, ErrBillNotPrinted
	}
	b.Status = StatusCancelled
	b.CancelReason = reason
	cp := *b
	return &cp, nil
}

func (m *mockBillStore) ListByStatus(ctx context.Context, status BillStatus) ([]*Bill, error) {
	var out []*Bill
	for i := len(m.arrival) - 1; i >= 0; i-- {
		if b := m.bills[m.arrival[i]]; b.Status == status {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

// newTestEngine wires an engine over in-memory stores with table 5 active:
// 2 × 100 with 5% GST, so subtotal 200, gst 10, total 210.
func newTestEngine(t *testing.T) (*Engine, *Ledger, *mockBillStore) {
	t.Helper()
	ledger := NewLedger(newMockTableStore())
	bills := newMockBillStore()

	d := NewDraft()
	d.TableNumber = "5"
	d.Staff = &StaffMember{ID: "E1", Name: "Ravi"}
	item := &MenuItem{Code: "P1", Name: "Paneer Tikka", PriceNonAC: dec("100"), GST: true, GSTPercent: dec("5")}
	if err := d.AddLine(item, SeatingNonAC, decimal.Zero); err != nil {
		t.Fatalf("add line: %v", err)
	}
	if err := d.SetQuantity(0, 2); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if _, err := ledger.Commit(context.Background(), d); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return NewEngine(ledger, bills), ledger, bills
}

func TestPrint(t *testing.T) {
	e, ledger, _ := newTestEngine(t)

	bill, err := e.Print(context.Background(), "5", "user-1")
	if err != nil {
		t.Fatalf("print: %v", err)
	}

	if !bill.Subtotal.Equal(dec("200")) {
		t.Errorf("subtotal = %s, want 200", bill.Subtotal)
	}
	if !bill.GST.Equal(dec("10")) {
		t.Errorf("gst = %s, want 10", bill.GST)
	}
	if !bill.Incentive.IsZero() {
		t.Errorf("incentive = %s, want 0", bill.Incentive)
	}
	if !bill.Total.Equal(dec("210")) {
		t.Errorf("total = %s, want 210", bill.Total)
	}
	if bill.Status != StatusPrinted {
		t.Errorf("status = %s, want PRINTED", bill.Status)
	}
	if bill.CreatedBy != "user-1" {
		t.Errorf("created by = %q, want user-1", bill.CreatedBy)
	}
	if _, ok := ledger.Get("5"); ok {
		t.Error("table 5 still active after print")
	}
}

func TestPrint_NoActiveOrder(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.Print(context.Background(), "9", "user-1")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestPrint_StoreFailureKeepsTableActive(t *testing.T) {
	e, ledger, bills := newTestEngine(t)
	bills.appendErr = errors.New("connection refused")

	_, err := e.Print(context.Background(), "5", "user-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := ledger.Get("5"); !ok {
		t.Error("table 5 vacated despite failed bill write")
	}
	if len(bills.bills) != 0 {
		t.Error("bill visible despite failed write")
	}
}

func TestPrint_BillNumbersUnique(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	// Freeze the clock so uniqueness must come from the monotonic bump.
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	first, err := e.Print(context.Background(), "5", "user-1")
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if _, err := ledger.Commit(context.Background(), testDraft("6")); err != nil {
		t.Fatalf("commit: %v", err)
	}
	second, err := e.Print(context.Background(), "6", "user-1")
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if first.BillNo == second.BillNo {
		t.Fatalf("bill numbers collide: %s", first.BillNo)
	}
}

func TestPay_Cash(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	bill, err := e.Print(ctx, "5", "user-1")
	if err != nil {
		t.Fatalf("print: %v", err)
	}

	// Short cash is rejected.
	_, err = e.Pay(ctx, bill.BillNo, enum.PaymentModeCash, dec("200"))
	if !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("expected ErrInsufficientCash, got: %v", err)
	}

	paid, err := e.Pay(ctx, bill.BillNo, enum.PaymentModeCash, dec("250"))
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.Status != StatusPaid {
		t.Errorf("status = %s, want PAID", paid.Status)
	}
	if paid.CashReturned == nil || !paid.CashReturned.Equal(dec("40")) {
		t.Errorf("cash returned = %v, want 40", paid.CashReturned)
	}
	if paid.PaidAt == nil {
		t.Error("paidAt not stamped")
	}
}

func TestPay_NonCashLeavesCashFieldsEmpty(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	bill, _ := e.Print(ctx, "5", "user-1")

	paid, err := e.Pay(ctx, bill.BillNo, enum.PaymentModeGPay, decimal.Zero)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.CashGiven != nil || paid.CashReturned != nil {
		t.Errorf("cash fields should be nil for %s: %v %v", enum.PaymentModeGPay, paid.CashGiven, paid.CashReturned)
	}
	if paid.PaymentMode != enum.PaymentModeGPay {
		t.Errorf("mode = %s, want %s", paid.PaymentMode, enum.PaymentModeGPay)
	}
}

func TestPay_Twice(t *testing.T) {
	e, _, bills := newTestEngine(t)
	ctx := context.Background()
	bill, _ := e.Print(ctx, "5", "user-1")

	first, err := e.Pay(ctx, bill.BillNo, enum.PaymentModeCash, dec("250"))
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	_, err = e.Pay(ctx, bill.BillNo, enum.PaymentModeCash, dec("300"))
	if !errors.Is(err, ErrInvalidBillState) {
		t.Fatalf("expected ErrInvalidBillState, got: %v", err)
	}

	// Original payment fields untouched.
	stored := bills.bills[bill.BillNo]
	if stored.Status != StatusPaid || !stored.CashGiven.Equal(*first.CashGiven) {
		t.Errorf("payment fields changed by second pay: %+v", stored)
	}
}

func TestPay_UnknownBill(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.Pay(context.Background(), "B0", enum.PaymentModeCash, dec("10"))
	if !errors.Is(err, ErrBillNotFound) {
		t.Fatalf("expected ErrBillNotFound, got: %v", err)
	}
}

func TestPay_LostRaceSurfacesAsStateConflict(t *testing.T) {
	// The bill flips away from PRINTED between the engine's read and the
	// conditional update; the store reports ErrBillNotPrinted.
	e, _, bills := newTestEngine(t)
	ctx := context.Background()
	bill, _ := e.Print(ctx, "5", "user-1")
	stale, _ := bills.Get(ctx, bill.BillNo)
	bills.bills[bill.BillNo].Status = StatusCancelled

	_, err := e.Pay(ctx, stale.BillNo, enum.PaymentModeGPay, decimal.Zero)
	if !errors.Is(err, ErrInvalidBillState) {
		t.Fatalf("expected ErrInvalidBillState, got: %v", err)
	}
}

func TestCancel(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	bill, _ := e.Print(ctx, "5", "user-1")

	if _, err := e.Cancel(ctx, bill.BillNo, "   "); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got: %v", err)
	}

	cancelled, err := e.Cancel(ctx, bill.BillNo, "duplicate order")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled || cancelled.CancelReason != "duplicate order" {
		t.Errorf("got %s/%q, want CANCELLED/duplicate order", cancelled.Status, cancelled.CancelReason)
	}

	// Terminal: cannot be paid afterward.
	_, err = e.Pay(ctx, bill.BillNo, enum.PaymentModeCash, dec("500"))
	if !errors.Is(err, ErrInvalidBillState) {
		t.Fatalf("expected ErrInvalidBillState, got: %v", err)
	}
}

func TestListPending(t *testing.T) {
	e, ledger, _ := newTestEngine(t)
	ctx := context.Background()

	b1, err := e.Print(ctx, "5", "user-1")
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if _, err := ledger.Commit(ctx, testDraft("6")); err != nil {
		t.Fatalf("commit: %v", err)
	}
	b2, err := e.Print(ctx, "6", "user-1")
	if err != nil {
		t.Fatalf("print: %v", err)
	}

	pending, err := e.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].BillNo != b2.BillNo || pending[1].BillNo != b1.BillNo {
		t.Errorf("pending not newest-first: %s, %s", pending[0].BillNo, pending[1].BillNo)
	}

	if _, err := e.Pay(ctx, b2.BillNo, enum.PaymentModeQR, decimal.Zero); err != nil {
		t.Fatalf("pay: %v", err)
	}
	pending, _ = e.ListPending(ctx)
	if len(pending) != 1 || pending[0].BillNo != b1.BillNo {
		t.Errorf("paid bill still pending: %v", pending)
	}
}
