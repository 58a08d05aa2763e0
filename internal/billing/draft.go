package billing

import "github.com/shopspring/decimal"

// Draft is the mutable staging area for one order before it is committed to
// the ledger. It is pre-lifecycle: no state machine, no persistence.
type Draft struct {
	TableNumber string
	Staff       *StaffMember
	Seating     SeatingType
	Lines       []LineItem
}

// NewDraft returns an empty draft with the default seating type.
func NewDraft() *Draft {
	return &Draft{Seating: SeatingNonAC}
}

// AddLine resolves the item's price and appends a new line with quantity 1.
// GST and incentive flags are copied from the catalog item; nothing else from
// the item leaks into the line.
func (d *Draft) AddLine(item *MenuItem, seating SeatingType, manualPrice decimal.Decimal) error {
	price, err := ResolvePrice(item, seating, manualPrice)
	if err != nil {
		return err
	}
	d.Lines = append(d.Lines, LineItem{
		ItemCode:         item.Code,
		ItemName:         item.Name,
		Seating:          seating,
		Quantity:         1,
		UnitPrice:        price,
		GST:              item.GST,
		GSTPercent:       item.GSTPercent,
		Incentive:        item.Incentive,
		IncentivePercent: item.IncentivePercent,
	})
	return nil
}

// RemoveLine deletes the line at index i.
func (d *Draft) RemoveLine(i int) error {
	if i < 0 || i >= len(d.Lines) {
		return ErrIndexOutOfRange
	}
	d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
	return nil
}

// SetQuantity updates the quantity of the line at index i. Quantities below 1
// are silently clamped to 1.
func (d *Draft) SetQuantity(i int, qty int32) error {
	if i < 0 || i >= len(d.Lines) {
		return ErrIndexOutOfRange
	}
	if qty < 1 {
		qty = 1
	}
	d.Lines[i].Quantity = qty
	return nil
}

// Clear resets the draft to empty: no table, no staff, default seating.
func (d *Draft) Clear() {
	*d = Draft{Seating: SeatingNonAC}
}

// Totals computes the current money breakdown of the draft.
func (d *Draft) Totals() Totals {
	return ComputeTotals(d.Lines)
}

// snapshot returns an ActiveOrder carrying a frozen copy of the draft's
// lines, so later draft edits cannot reach into the ledger.
func (d *Draft) snapshot() *ActiveOrder {
	lines := make([]LineItem, len(d.Lines))
	copy(lines, d.Lines)
	return &ActiveOrder{
		TableNumber: d.TableNumber,
		Staff:       d.Staff,
		Seating:     d.Seating,
		Lines:       lines,
	}
}
