package models

import (
	"time"
)

const (
	PaymentMethodCash         = "cash"
	PaymentMethodQRIS         = "qris"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodEWallet      = "e_wallet"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment adalah satu catatan pembayaran atas sebuah order. Cash langsung
// completed, metode digital mulai dari pending sampai dikonfirmasi.
type Payment struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	OrderID       uint    `gorm:"not null;index:idx_payments_order_status,priority:1" json:"order_id"`
	Order         Order   `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Amount        float64 `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method        string  `gorm:"type:varchar(20);not null;default:'cash'" json:"method"`
	Status        string  `gorm:"type:varchar(20);not null;default:'pending';index:idx_payments_order_status,priority:2" json:"status"`
	TransactionID *string `gorm:"type:varchar(255);index" json:"transaction_id,omitempty"`
	ProcessedBy   *uint   `gorm:"index" json:"processed_by,omitempty"`
	Notes         *string `gorm:"type:text" json:"notes,omitempty"`
	// ProcessedAt diisi tepat saat status menjadi completed.
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// IsValidPaymentMethod memeriksa method ada di daftar yang didukung.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodQRIS, PaymentMethodBankTransfer, PaymentMethodEWallet:
		return true
	}
	return false
}

// IsDigitalMethod true untuk metode non-tunai yang butuh transaction_id
// dari penyedia pembayaran.
func IsDigitalMethod(method string) bool {
	return IsValidPaymentMethod(method) && method != PaymentMethodCash
}
