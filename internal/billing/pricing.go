package billing

import "github.com/shopspring/decimal"

// ResolvePrice computes the unit price for an item at order time.
//
// Dynamic-priced items take the manually entered price, which must be > 0;
// the seating type is irrelevant for them. Fixed-priced items take the tariff
// selected by the seating type. The catalog is trusted to supply non-negative
// tariffs, so fixed prices are not validated here.
func ResolvePrice(item *MenuItem, seating SeatingType, manualPrice decimal.Decimal) (decimal.Decimal, error) {
	if item == nil {
		return decimal.Zero, ErrItemNotSelected
	}
	if item.DynamicPrice {
		if manualPrice.Sign() <= 0 {
			return decimal.Zero, ErrInvalidPrice
		}
		return manualPrice, nil
	}
	switch seating {
	case SeatingNonAC:
		return item.PriceNonAC, nil
	case SeatingAC:
		return item.PriceAC, nil
	case SeatingParcel:
		return item.PriceParcel, nil
	}
	return decimal.Zero, ErrInvalidSeating
}
