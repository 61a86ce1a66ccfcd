package enum

// ── State machines (CHECK constrained in DB) ──

const (
	StockStatusReady = "READY"
	StockStatusSold  = "SOLD"
)

const (
	ClaimStatusReceived  = "RECEIVED"
	ClaimStatusInRepair  = "IN_REPAIR"
	ClaimStatusDone      = "DONE"
	ClaimStatusReturned  = "RETURNED"
	ClaimStatusCancelled = "CANCELLED"
)

const (
	IndentStatusPending   = "PENDING"
	IndentStatusFulfilled = "FULFILLED"
	IndentStatusCancelled = "CANCELLED"
)

// ── Access control (CHECK constrained in DB) ──

const (
	UserRoleOwner = "OWNER"
	UserRoleAdmin = "ADMIN"
	UserRoleStaff = "STAFF"
)

// ── Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodTransfer = "TRANSFER"
	PaymentMethodQRIS     = "QRIS"
	PaymentMethodDebit    = "DEBIT"
)
