package models

import (
	"time"
)

// Status order mengikuti alur dapur:
// pending -> confirmed -> preparing -> ready -> completed.
// Pembatalan hanya mungkin dari pending/confirmed.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Payment status order diturunkan dari ledger pembayaran, kecuali
// refunded yang di-set eksplisit saat pembatalan.
const (
	OrderPaymentPending  = "pending"
	OrderPaymentPartial  = "partial"
	OrderPaymentPaid     = "paid"
	OrderPaymentFailed   = "failed"
	OrderPaymentRefunded = "refunded"
)

type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	OrderNumber   string      `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_number"`
	TableNumber   *string     `gorm:"type:varchar(10);index" json:"table_number,omitempty"`
	CustomerName  *string     `gorm:"type:varchar(255)" json:"customer_name,omitempty"`
	CustomerPhone *string     `gorm:"type:varchar(20)" json:"customer_phone,omitempty"`
	Status        string      `gorm:"type:varchar(20);not null;default:'pending';index:idx_orders_status_created,priority:1" json:"status"`
	PaymentStatus string      `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	TotalAmount   float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`
	Notes         *string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time   `gorm:"not null;index:idx_orders_status_created,priority:2" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
	OrderItems    []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
	Payments      []Payment   `gorm:"foreignKey:OrderID" json:"payments"`
}

// IsEditable menyatakan apakah item & metadata order masih boleh diubah.
func (o *Order) IsEditable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// CanBeCancelled menyatakan apakah order masih boleh dibatalkan.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// IsTerminal menyatakan order sudah di status akhir (tidak ada transisi keluar).
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}
