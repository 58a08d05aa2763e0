package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agni-pos/api/internal/billing"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// --- In-memory billing stores ---

type memTableStore struct {
	rows  map[string]*billing.ActiveOrder
	order []string
}

func newMemTableStore() *memTableStore {
	return &memTableStore{rows: make(map[string]*billing.ActiveOrder)}
}

func (m *memTableStore) Insert(_ context.Context, o *billing.ActiveOrder) error {
	if _, ok := m.rows[o.TableNumber]; ok {
		return billing.ErrTableAlreadyActive
	}
	m.rows[o.TableNumber] = o
	m.order = append(m.order, o.TableNumber)
	return nil
}

func (m *memTableStore) Replace(_ context.Context, table string, o *billing.ActiveOrder) error {
	m.rows[table] = o
	return nil
}

func (m *memTableStore) Delete(_ context.Context, table string) error {
	delete(m.rows, table)
	return nil
}

func (m *memTableStore) LoadAll(_ context.Context) ([]*billing.ActiveOrder, error) {
	var out []*billing.ActiveOrder
	for _, k := range m.order {
		if o, ok := m.rows[k]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

type memBillStore struct {
	bills   map[string]*billing.Bill
	arrival []string
}

func newMemBillStore() *memBillStore {
	return &memBillStore{bills: make(map[string]*billing.Bill)}
}

func (m *memBillStore) Append(_ context.Context, b *billing.Bill) error {
	cp := *b
	m.bills[b.BillNo] = &cp
	m.arrival = append(m.arrival, b.BillNo)
	return nil
}

func (m *memBillStore) Get(_ context.Context, billNo string) (*billing.Bill, error) {
	b, ok := m.bills[billNo]
	if !ok {
		return nil, billing.ErrBillNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBillStore) MarkPaid(_ context.Context, billNo string, p billing.Payment) (*billing.Bill, error) {
	b, ok := m.bills[billNo]
	if !ok {
		return nil, billing.ErrBillNotFound
	}
	if b.Status != billing.StatusPrinted {
		return nil, billing.ErrBillNotPrinted
	}
	b.Status = billing.StatusPaid
	b.PaidAt = &p.PaidAt
	b.PaymentMode = p.Mode
	b.CashGiven = p.CashGiven
	b.CashReturned = p.CashReturned
	cp := *b
	return &cp, nil
}

func (m *memBillStore) MarkCancelled(_ context.Context, billNo, reason string) (*billing.Bill, error) {
	b, ok := m.bills[billNo]
	if !ok {
		return nil, billing.ErrBillNotFound
	}
	if b.Status != billing.StatusPrinted {
		return nil, billing.ErrBillNotPrinted
	}
	b.Status = billing.StatusCancelled
	b.CancelReason = reason
	cp := *b
	return &cp, nil
}

func (m *memBillStore) ListByStatus(_ context.Context, status billing.BillStatus) ([]*billing.Bill, error) {
	var out []*billing.Bill
	for i := len(m.arrival) - 1; i >= 0; i-- {
		if b := m.bills[m.arrival[i]]; b.Status == status {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- Mock catalog ---

type mockCatalog struct {
	items map[string]*billing.MenuItem
	staff map[string]*billing.StaffMember
}

func newMockCatalog() *mockCatalog {
	c := &mockCatalog{
		items: make(map[string]*billing.MenuItem),
		staff: make(map[string]*billing.StaffMember),
	}
	c.items["M01"] = &billing.MenuItem{
		Code:       "M01",
		Name:       "Masala Dosa",
		PriceNonAC: dec("80"),
		PriceAC:    dec("95"),
		PriceParcel: dec("85"),
		GST:        true,
		GSTPercent: dec("5"),
	}
	c.items["M04"] = &billing.MenuItem{
		Code:         "M04",
		Name:         "Fish of the Day",
		DynamicPrice: true,
	}
	c.staff["C01"] = &billing.StaffMember{ID: "C01", Name: "Ravi", Role: "CAPTAIN"}
	return c
}

func (c *mockCatalog) GetItemByCode(_ context.Context, code string) (*billing.MenuItem, error) {
	item, ok := c.items[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return item, nil
}

func (c *mockCatalog) GetStaff(_ context.Context, empID string) (*billing.StaffMember, error) {
	m, ok := c.staff[empID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func getJSON(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func putJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("PUT", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
