package billing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ComputeTotals derives the money breakdown of a line sequence.
//
// Per line, base = quantity × unit price. GST and incentive accumulate only
// over lines where the respective flag is set. Grand is the exact sum of the
// three components. Full precision is carried throughout; rounding to two
// decimals happens only at presentation time.
func ComputeTotals(lines []LineItem) Totals {
	t := Totals{
		Subtotal:  decimal.Zero,
		GST:       decimal.Zero,
		Incentive: decimal.Zero,
	}
	for _, l := range lines {
		base := l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
		t.Subtotal = t.Subtotal.Add(base)
		if l.GST {
			t.GST = t.GST.Add(base.Mul(l.GSTPercent).Div(hundred))
		}
		if l.Incentive {
			t.Incentive = t.Incentive.Add(base.Mul(l.IncentivePercent).Div(hundred))
		}
	}
	t.Grand = t.Subtotal.Add(t.GST).Add(t.Incentive)
	return t
}
