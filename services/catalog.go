package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yeremiapane/self-order-app/models"
)

// MenuSnapshot adalah potret harga dan ketersediaan menu pada saat item
// order dibuat. Perubahan menu setelahnya tidak menyentuh item yang sudah ada.
type MenuSnapshot struct {
	MenuID      uint
	Name        string
	Price       float64
	IsAvailable bool
}

// MenuCatalog menyediakan lookup menu untuk pembuatan order item.
// Lookup berjalan di dalam unit of work pemanggil (tx) supaya snapshot
// konsisten dengan insert item yang mengikutinya.
type MenuCatalog interface {
	Lookup(tx *gorm.DB, menuID uint) (*MenuSnapshot, error)
}

type gormMenuCatalog struct{}

// NewMenuCatalog mengembalikan katalog berbasis tabel menus.
func NewMenuCatalog() MenuCatalog {
	return gormMenuCatalog{}
}

func (gormMenuCatalog) Lookup(tx *gorm.DB, menuID uint) (*MenuSnapshot, error) {
	var menu models.Menu
	if err := tx.First(&menu, menuID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, err
	}
	return &MenuSnapshot{
		MenuID:      menu.ID,
		Name:        menu.Name,
		Price:       menu.Price,
		IsAvailable: menu.IsAvailable,
	}, nil
}
