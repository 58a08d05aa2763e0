package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// mockTableStore implements TableStore in memory with configurable failures.
type mockTableStore struct {
	rows      map[string]*ActiveOrder
	order     []string
	insertErr error
	replaceErr error
	deleteErr error
	loadErr   error
}

func newMockTableStore() *mockTableStore {
	return &mockTableStore{rows: make(map[string]*ActiveOrder)}
}

func (m *mockTableStore) Insert(ctx context.Context, o *ActiveOrder) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.rows[o.TableNumber]; ok {
		return ErrTableAlreadyActive
	}
	m.rows[o.TableNumber] = o
	m.order = append(m.order, o.TableNumber)
	return nil
}

func (m *mockTableStore) Replace(ctx context.Context, table string, o *ActiveOrder) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.rows[table] = o
	return nil
}

func (m *mockTableStore) Delete(ctx context.Context, table string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.rows, table)
	return nil
}

func (m *mockTableStore) LoadAll(ctx context.Context) ([]*ActiveOrder, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	var out []*ActiveOrder
	for _, k := range m.order {
		if o, ok := m.rows[k]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func testDraft(table string) *Draft {
	d := NewDraft()
	d.TableNumber = table
	d.Staff = &StaffMember{ID: "E1", Name: "Ravi", Role: "CAPTAIN"}
	_ = d.AddLine(fixedItem(), SeatingNonAC, decimal.Zero)
	return d
}

func TestLedger_Commit(t *testing.T) {
	l := NewLedger(newMockTableStore())

	order, err := l.Commit(context.Background(), testDraft("5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.TableNumber != "5" {
		t.Errorf("table = %q, want 5", order.TableNumber)
	}
	if _, ok := l.Get("5"); !ok {
		t.Error("table 5 not in ledger after commit")
	}
}

func TestLedger_Commit_InvalidTableNumber(t *testing.T) {
	l := NewLedger(newMockTableStore())
	for _, tn := range []string{"", "0", "-2", "abc", "3.5"} {
		_, err := l.Commit(context.Background(), testDraft(tn))
		if !errors.Is(err, ErrInvalidTableNumber) {
			t.Errorf("table %q: expected ErrInvalidTableNumber, got: %v", tn, err)
		}
	}
}

func TestLedger_Commit_DuplicateTable(t *testing.T) {
	l := NewLedger(newMockTableStore())
	ctx := context.Background()

	if _, err := l.Commit(ctx, testDraft("5")); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	_, err := l.Commit(ctx, testDraft("5"))
	if !errors.Is(err, ErrTableAlreadyActive) {
		t.Fatalf("expected ErrTableAlreadyActive, got: %v", err)
	}
	if got := len(l.Search("")); got != 1 {
		t.Errorf("active entries = %d, want exactly 1", got)
	}
}

func TestLedger_Commit_Validations(t *testing.T) {
	l := NewLedger(newMockTableStore())
	ctx := context.Background()

	noStaff := testDraft("3")
	noStaff.Staff = nil
	if _, err := l.Commit(ctx, noStaff); !errors.Is(err, ErrStaffRequired) {
		t.Errorf("expected ErrStaffRequired, got: %v", err)
	}

	noLines := testDraft("3")
	noLines.Lines = nil
	if _, err := l.Commit(ctx, noLines); !errors.Is(err, ErrEmptyOrder) {
		t.Errorf("expected ErrEmptyOrder, got: %v", err)
	}
}

func TestLedger_Commit_StoreFailure(t *testing.T) {
	store := newMockTableStore()
	store.insertErr = errors.New("connection refused")
	l := NewLedger(store)

	_, err := l.Commit(context.Background(), testDraft("5"))
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := l.Get("5"); ok {
		t.Error("table 5 in ledger despite store failure")
	}
}

func TestLedger_Update(t *testing.T) {
	l := NewLedger(newMockTableStore())
	ctx := context.Background()

	if _, err := l.Update(ctx, "5", testDraft("5")); !errors.Is(err, ErrTableNotActive) {
		t.Fatalf("expected ErrTableNotActive, got: %v", err)
	}

	if _, err := l.Commit(ctx, testDraft("5")); err != nil {
		t.Fatalf("commit: %v", err)
	}

	edited := testDraft("5")
	_ = edited.SetQuantity(0, 3)
	updated, err := l.Update(ctx, "5", edited)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Lines[0].Quantity != 3 {
		t.Errorf("quantity = %d, want 3", updated.Lines[0].Quantity)
	}
}

func TestLedger_Update_KeepsOriginalKey(t *testing.T) {
	// Editing a table and changing its number does not move the entry; it
	// stays keyed by the edit target.
	l := NewLedger(newMockTableStore())
	ctx := context.Background()

	if _, err := l.Commit(ctx, testDraft("5")); err != nil {
		t.Fatalf("commit: %v", err)
	}
	renumbered := testDraft("8")
	if _, err := l.Update(ctx, "5", renumbered); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, ok := l.Get("5")
	if !ok {
		t.Fatal("entry no longer under key 5")
	}
	if got.TableNumber != "8" {
		t.Errorf("entry table = %q, want 8", got.TableNumber)
	}
	if _, ok := l.Get("8"); ok {
		t.Error("entry was re-keyed to 8")
	}
}

func TestLedger_Remove_AbsentIsNoop(t *testing.T) {
	l := NewLedger(newMockTableStore())
	if err := l.Remove(context.Background(), "99"); err != nil {
		t.Fatalf("remove of absent key should be a no-op, got: %v", err)
	}
}

func TestLedger_ListGroupedByStaff(t *testing.T) {
	l := NewLedger(newMockTableStore())
	ctx := context.Background()

	d1 := testDraft("1")
	d2 := testDraft("2")
	d2.Staff = &StaffMember{ID: "E2", Name: "Priya"}
	d3 := testDraft("3")
	d3.Staff = nil
	d4 := testDraft("4") // same staff as d1

	for _, d := range []*Draft{d1, d2, d4} {
		if _, err := l.Commit(ctx, d); err != nil {
			t.Fatalf("commit %s: %v", d.TableNumber, err)
		}
	}
	// Commit the staff-less order directly through the map to exercise the
	// "Unknown" group; Commit itself rejects nil staff.
	order := d3.snapshot()
	l.mu.Lock()
	l.orders["3"] = order
	l.keys = append(l.keys, "3")
	l.mu.Unlock()

	groups := l.ListGroupedByStaff()
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	if groups[0].Staff != "Ravi" || len(groups[0].Orders) != 2 {
		t.Errorf("group 0 = %s/%d, want Ravi/2", groups[0].Staff, len(groups[0].Orders))
	}
	if groups[0].Orders[0].TableNumber != "1" || groups[0].Orders[1].TableNumber != "4" {
		t.Errorf("Ravi group out of insertion order: %v", groups[0].Orders)
	}
	if groups[1].Staff != "Priya" {
		t.Errorf("group 1 = %s, want Priya", groups[1].Staff)
	}
	if groups[2].Staff != "Unknown" {
		t.Errorf("group 2 = %s, want Unknown", groups[2].Staff)
	}
}

func TestLedger_Search(t *testing.T) {
	l := NewLedger(newMockTableStore())
	ctx := context.Background()
	for _, tn := range []string{"5", "15", "23"} {
		if _, err := l.Commit(ctx, testDraft(tn)); err != nil {
			t.Fatalf("commit %s: %v", tn, err)
		}
	}

	if got := l.Search(""); len(got) != 3 {
		t.Errorf("empty search = %d entries, want 3", len(got))
	}
	got := l.Search("5")
	if len(got) != 2 || got[0].TableNumber != "5" || got[1].TableNumber != "15" {
		t.Errorf("search 5 = %v, want tables 5 and 15", got)
	}
	if got := l.Search("9"); len(got) != 0 {
		t.Errorf("search 9 = %d entries, want 0", len(got))
	}
}

func TestLedger_Load(t *testing.T) {
	store := newMockTableStore()
	l := NewLedger(store)
	ctx := context.Background()
	if _, err := l.Commit(ctx, testDraft("5")); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// A fresh ledger over the same store sees the committed table.
	restarted := NewLedger(store)
	if err := restarted.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := restarted.Get("5"); !ok {
		t.Error("table 5 not restored after reload")
	}
}
