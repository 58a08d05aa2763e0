package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// TableStore is the durable slot behind the ledger. Insert must be an atomic
// insert-if-absent returning ErrTableAlreadyActive when the key is taken, so
// the uniqueness check never degrades into check-then-act against the store.
type TableStore interface {
	Insert(ctx context.Context, order *ActiveOrder) error
	Replace(ctx context.Context, table string, order *ActiveOrder) error
	Delete(ctx context.Context, table string) error
	LoadAll(ctx context.Context) ([]*ActiveOrder, error)
}

// StaffGroup is one captain's slice of the active floor.
type StaffGroup struct {
	Staff  string
	Orders []*ActiveOrder
}

// Ledger is the authoritative mapping from table number to active order.
// The in-memory map is the process's source of truth; every mutation is
// written through to the TableStore and the map is rebuilt from it at
// startup, so active tables survive a restart.
type Ledger struct {
	store TableStore

	mu     sync.Mutex
	orders map[string]*ActiveOrder
	keys   []string // insertion order of table numbers
	locks  map[string]*sync.Mutex
}

// NewLedger creates an empty ledger backed by store.
func NewLedger(store TableStore) *Ledger {
	return &Ledger{
		store:  store,
		orders: make(map[string]*ActiveOrder),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Load rebuilds the in-memory state from the durable store. Call once at
// startup before serving.
func (l *Ledger) Load(ctx context.Context) error {
	orders, err := l.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load active tables: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders = make(map[string]*ActiveOrder, len(orders))
	l.keys = l.keys[:0]
	for _, o := range orders {
		l.orders[o.TableNumber] = o
		l.keys = append(l.keys, o.TableNumber)
	}
	return nil
}

// LockTable takes the per-table mutex and returns its unlock function.
// Commit and Update take it internally; the billing engine takes it around
// print so a table cannot be billed and re-committed concurrently.
func (l *Ledger) LockTable(table string) func() {
	l.mu.Lock()
	m, ok := l.locks[table]
	if !ok {
		m = &sync.Mutex{}
		l.locks[table] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// Commit validates the draft and inserts it as a new active order. This is
// the only way a table becomes active.
func (l *Ledger) Commit(ctx context.Context, d *Draft) (*ActiveOrder, error) {
	table := strings.TrimSpace(d.TableNumber)
	if n, err := strconv.Atoi(table); err != nil || n <= 0 {
		return nil, ErrInvalidTableNumber
	}

	unlock := l.LockTable(table)
	defer unlock()

	if _, exists := l.get(table); exists {
		return nil, ErrTableAlreadyActive
	}
	if d.Staff == nil {
		return nil, ErrStaffRequired
	}
	if len(d.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	order := d.snapshot()
	order.TableNumber = table
	if err := l.store.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("insert active table: %w", err)
	}

	l.mu.Lock()
	l.orders[table] = order
	l.keys = append(l.keys, table)
	l.mu.Unlock()
	return order, nil
}

// Update replaces the entry under table with the draft's content. The entry
// stays keyed by the original edit target even when the draft carries a
// different table number; the edit flow does not re-key.
func (l *Ledger) Update(ctx context.Context, table string, d *Draft) (*ActiveOrder, error) {
	unlock := l.LockTable(table)
	defer unlock()

	if _, exists := l.get(table); !exists {
		return nil, ErrTableNotActive
	}
	if d.Staff == nil {
		return nil, ErrStaffRequired
	}
	if len(d.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	order := d.snapshot()
	if err := l.store.Replace(ctx, table, order); err != nil {
		return nil, fmt.Errorf("replace active table: %w", err)
	}

	l.mu.Lock()
	l.orders[table] = order
	l.mu.Unlock()
	return order, nil
}

// Remove vacates a table. A missing key is a no-op: bill generation is the
// only remover and is itself gated on existence.
func (l *Ledger) Remove(ctx context.Context, table string) error {
	l.mu.Lock()
	_, exists := l.orders[table]
	if exists {
		delete(l.orders, table)
		for i, k := range l.keys {
			if k == table {
				l.keys = append(l.keys[:i], l.keys[i+1:]...)
				break
			}
		}
	}
	l.mu.Unlock()
	if !exists {
		return nil
	}
	if err := l.store.Delete(ctx, table); err != nil {
		return fmt.Errorf("delete active table: %w", err)
	}
	return nil
}

// Get returns the active order for a table, if any.
func (l *Ledger) Get(table string) (*ActiveOrder, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(table)
}

func (l *Ledger) get(table string) (*ActiveOrder, bool) {
	o, ok := l.orders[table]
	return o, ok
}

// ListGroupedByStaff groups all active orders by staff display name, groups
// ordered by first appearance, orders within a group in insertion order.
// Orders with no staff reference fall into the "Unknown" group.
func (l *Ledger) ListGroupedByStaff() []StaffGroup {
	l.mu.Lock()
	defer l.mu.Unlock()

	index := make(map[string]int)
	var groups []StaffGroup
	for _, k := range l.keys {
		o := l.orders[k]
		name := "Unknown"
		if o.Staff != nil && o.Staff.Name != "" {
			name = o.Staff.Name
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, StaffGroup{Staff: name})
		}
		groups[i].Orders = append(groups[i].Orders, o)
	}
	return groups
}

// Search returns active orders whose table number contains sub, in insertion
// order. An empty string matches everything.
func (l *Ledger) Search(sub string) []*ActiveOrder {
	sub = strings.TrimSpace(sub)
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*ActiveOrder
	for _, k := range l.keys {
		if sub == "" || strings.Contains(k, sub) {
			out = append(out, l.orders[k])
		}
	}
	return out
}
