package events

import (
	"github.com/yeremiapane/self-order-app/models"
)

// Nama event di wire, dipakai adapter websocket.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_updated"
	EventPaymentProcessed   = "payment.processed"
)

// Event domain berupa data polos yang membawa snapshot aggregate penuh,
// bukan diff. Adapter transport (kds) yang menerjemahkan ke format wire.

type OrderCreated struct {
	Order models.Order `json:"order"`
}

type OrderStatusChanged struct {
	Order          models.Order `json:"order"`
	PreviousStatus string       `json:"previous_status"`
}

type PaymentProcessed struct {
	Payment models.Payment `json:"payment"`
	Order   models.Order   `json:"order"`
}

// Publisher menerima event setelah transaksi pemicunya commit.
// Pengiriman fire-and-forget: kegagalan publisher tidak boleh
// membatalkan state yang sudah commit.
type Publisher interface {
	Publish(event interface{})
}

// NopPublisher dipakai ketika tidak ada transport terpasang (mis. test).
type NopPublisher struct{}

func (NopPublisher) Publish(interface{}) {}
