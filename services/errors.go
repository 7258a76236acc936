package services

import "errors"

// Semua kegagalan yang diharapkan dari core di-surface sebagai sentinel
// error supaya controller bisa memetakan ke kode HTTP dengan errors.Is.
// Kegagalan apa pun membatalkan seluruh unit of work, tidak ada commit parsial.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrMenuNotFound    = errors.New("menu not found")
	ErrPaymentNotFound = errors.New("payment not found")

	ErrEmptyOrder        = errors.New("at least one item is required")
	ErrMenuUnavailable   = errors.New("menu is not available")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 99")
	ErrDuplicateLineItem = errors.New("duplicate menu items are not allowed, combine quantities instead")
	ErrOrderBelowMinimum = errors.New("order total is below the minimum order amount")
	ErrOrderAboveMaximum = errors.New("order total is above the maximum order amount")
	ErrTotalBelowPaid    = errors.New("order total cannot drop below the amount already paid")

	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOrderNotEditable    = errors.New("order cannot be updated in current status")
	ErrOrderNotCancellable = errors.New("order cannot be cancelled")
	ErrOrderCancelled      = errors.New("cannot process payment for cancelled order")

	ErrInvalidAmount           = errors.New("payment amount must be greater than zero")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
	ErrAmountExceedsBalance    = errors.New("payment amount exceeds remaining balance")
	ErrTransactionIDRequired   = errors.New("transaction id is required for digital payments")
	ErrTransactionIDNotAllowed = errors.New("transaction id is not allowed for cash payments")
	ErrPaymentAlreadyCompleted = errors.New("cannot update completed payment")
	ErrPaymentNotPending       = errors.New("only pending payments can be confirmed")
	ErrNotRefundable           = errors.New("can only refund completed payments")

	ErrStaffOnly = errors.New("staff access required")
)

// Actor adalah identitas yang sudah diotentikasi oleh layer HTTP.
// Core tidak pernah memeriksa kredensial sendiri.
type Actor struct {
	ID   uint
	Role string
}

// IsStaff menyatakan actor boleh mengubah status order dan memproses
// pembayaran. Admin dan kitchen dihitung sebagai staff.
func (a Actor) IsStaff() bool {
	return a.Role == "admin" || a.Role == "staff" || a.Role == "kitchen"
}
