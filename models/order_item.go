package models

import (
	"time"
)

// OrderItem adalah satu baris pesanan. Nama dan harga menu di-snapshot
// saat item dibuat sehingga perubahan (atau penghapusan) menu belakangan
// tidak mengubah order yang sudah ada. Tidak ada FK ke tabel menus.
type OrderItem struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	OrderID  uint    `gorm:"not null;index" json:"order_id"`
	Order    Order   `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuID   uint    `gorm:"not null" json:"menu_id"`
	MenuName string  `gorm:"type:varchar(255);not null" json:"menu_name"`
	Quantity int     `gorm:"not null" json:"quantity"`
	Price    float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	// Subtotal selalu Price * Quantity; dihitung ulang setiap kali salah
	// satunya berubah, tidak pernah diedit terpisah.
	Subtotal  float64   `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Notes     *string   `gorm:"type:varchar(255)" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
