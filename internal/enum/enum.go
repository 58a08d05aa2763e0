package enum

// ── Borderline (CHECK constrained in DB) ──

const (
	UserRoleManager = "MANAGER"
	UserRoleCashier = "CASHIER"
)

const (
	StaffRoleCaptain  = "CAPTAIN"
	StaffRoleSupplier = "SUPPLIER"
)

// ── Configurable labels (no DB constraint) ──

const (
	PaymentModeCash = "Cash"
	PaymentModeQR   = "QR"
	PaymentModeCard = "Card"
	PaymentModeGPay = "GPay"
)
