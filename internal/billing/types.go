package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeatingType selects which fixed tariff applies to a menu item.
type SeatingType string

const (
	SeatingNonAC  SeatingType = "NON_AC"
	SeatingAC     SeatingType = "AC"
	SeatingParcel SeatingType = "PARCEL"
)

// BillStatus is the bill lifecycle state. PRINTED is the only non-terminal state.
type BillStatus string

const (
	StatusPrinted   BillStatus = "PRINTED"
	StatusPaid      BillStatus = "PAID"
	StatusCancelled BillStatus = "CANCELLED"
)

// MenuItem is a catalog entry as the billing core sees it. Immutable within
// one order; tariff changes in the catalog never touch already-added lines.
type MenuItem struct {
	Code             string
	Name             string
	PriceNonAC       decimal.Decimal
	PriceAC          decimal.Decimal
	PriceParcel      decimal.Decimal
	DynamicPrice     bool
	GST              bool
	GSTPercent       decimal.Decimal
	Incentive        bool
	IncentivePercent decimal.Decimal
	Ingredients      []string
}

// StaffMember is the captain/supplier an order is attributed to.
type StaffMember struct {
	ID   string
	Name string
	Role string
}

// LineItem is one priced row of an order. UnitPrice is resolved once at add
// time and frozen; flags are copied from the catalog item verbatim.
type LineItem struct {
	ItemCode         string
	ItemName         string
	Seating          SeatingType
	Quantity         int32
	UnitPrice        decimal.Decimal
	GST              bool
	GSTPercent       decimal.Decimal
	Incentive        bool
	IncentivePercent decimal.Decimal
}

// Totals is the derived money breakdown of a line sequence.
type Totals struct {
	Subtotal  decimal.Decimal
	GST       decimal.Decimal
	Incentive decimal.Decimal
	Grand     decimal.Decimal
}

// ActiveOrder is a committed, unbilled order occupying a table number.
// Owned exclusively by the Ledger.
type ActiveOrder struct {
	TableNumber string
	Staff       *StaffMember
	Seating     SeatingType
	Lines       []LineItem
}

// Payment records how a bill was settled. Cash fields are nil for non-cash modes.
type Payment struct {
	Mode         string
	CashGiven    *decimal.Decimal
	CashReturned *decimal.Decimal
	PaidAt       time.Time
}

// Bill is the immutable record produced when an active order is printed.
// Only the status-transition fields change after creation.
type Bill struct {
	BillNo       string
	TableNumber  string
	Staff        *StaffMember
	Items        []LineItem
	Subtotal     decimal.Decimal
	GST          decimal.Decimal
	Incentive    decimal.Decimal
	Total        decimal.Decimal
	Status       BillStatus
	CreatedAt    time.Time
	CreatedBy    string
	PaidAt       *time.Time
	PaymentMode  string
	CashGiven    *decimal.Decimal
	CashReturned *decimal.Decimal
	CancelReason string
}
