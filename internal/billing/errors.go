package billing

import "errors"

// Validation errors: caller-input problems, reported before any external write.
var (
	ErrInvalidTableNumber = errors.New("table number must be a positive integer")
	ErrTableAlreadyActive = errors.New("table number is already active")
	ErrTableNotActive     = errors.New("table number is not active")
	ErrStaffRequired      = errors.New("captain/supplier is required")
	ErrEmptyOrder         = errors.New("order has no items")
	ErrItemNotSelected    = errors.New("no item selected")
	ErrInvalidPrice       = errors.New("manual price must be > 0")
	ErrInvalidSeating     = errors.New("invalid seating type")
	ErrIndexOutOfRange    = errors.New("line index out of range")
	ErrReasonRequired     = errors.New("cancel reason is required")
	ErrInsufficientCash   = errors.New("cash given is less than bill total")
)

// State-conflict errors: the caller's view is stale; refresh and retry the
// whole operation, do not resubmit blindly.
var (
	ErrOrderNotFound    = errors.New("no active order for table")
	ErrBillNotFound     = errors.New("bill not found")
	ErrInvalidBillState = errors.New("bill is not in a payable/cancellable state")
)

// ErrBillNotPrinted is returned by BillStore implementations when a
// conditional status update matched no PRINTED row. The engine maps it to
// ErrInvalidBillState so a lost pay/cancel race surfaces as a state conflict.
var ErrBillNotPrinted = errors.New("bill is not in PRINTED status")

// IsValidation reports whether err is a caller-input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidTableNumber) ||
		errors.Is(err, ErrTableAlreadyActive) ||
		errors.Is(err, ErrTableNotActive) ||
		errors.Is(err, ErrStaffRequired) ||
		errors.Is(err, ErrEmptyOrder) ||
		errors.Is(err, ErrItemNotSelected) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidSeating) ||
		errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrReasonRequired) ||
		errors.Is(err, ErrInsufficientCash)
}

// IsStateConflict reports whether err indicates a race or stale view.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrBillNotFound) ||
		errors.Is(err, ErrInvalidBillState)
}
