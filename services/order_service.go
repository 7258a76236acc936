package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/self-order-app/events"
	"github.com/yeremiapane/self-order-app/models"
	"github.com/yeremiapane/self-order-app/utils"
)

// Batas nominal order dalam Rupiah.
const (
	MinOrderAmount  = 10000.0
	MaxOrderAmount  = 1000000.0
	MaxItemQuantity = 99
)

// validTransitions memetakan status order ke status tujuan yang sah.
// completed dan cancelled terminal, tidak punya transisi keluar.
var validTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusReady},
	models.OrderStatusReady:     {models.OrderStatusCompleted},
	models.OrderStatusCompleted: {},
	models.OrderStatusCancelled: {},
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// OrderService memegang aggregate order beserta item-nya. Semua mutasi
// berjalan dalam satu transaksi database; OrderService adalah satu-satunya
// penulis ke tabel orders/order_items.
type OrderService struct {
	db        *gorm.DB
	catalog   MenuCatalog
	publisher events.Publisher
}

func NewOrderService(db *gorm.DB, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{db: db, catalog: NewMenuCatalog(), publisher: publisher}
}

type OrderItemRequest struct {
	MenuID   uint
	Quantity int
	Notes    *string
}

type CreateOrderRequest struct {
	TableNumber   *string
	CustomerName  *string
	CustomerPhone *string
	Notes         *string
	Items         []OrderItemRequest
}

// UpdateOrderRequest adalah patch parsial; field nil berarti tidak diubah.
// Items non-nil mengganti seluruh item lama (bukan diff).
type UpdateOrderRequest struct {
	TableNumber   *string
	CustomerName  *string
	CustomerPhone *string
	Notes         *string
	Items         []OrderItemRequest
}

type OrderFilter struct {
	Status        string
	PaymentStatus string
	TableNumber   string
}

// lockOrder memuat order dengan row lock (SELECT ... FOR UPDATE) sehingga
// pemeriksaan saldo, mutasi item, dan transisi status terserialisasi per
// order. Semua operasi tulis di package ini wajib lewat sini.
func lockOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// CreateOrder membuat order baru beserta item-nya dalam satu transaksi.
// Kegagalan validasi item ketiga ikut membatalkan item pertama dan kedua.
// Tabrakan nomor order dengan transaksi paralel dicoba ulang sekali dengan
// nomor yang dibaca ulang.
func (s *OrderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	var orderID uint
	attempt := func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			number, err := nextOrderNumber(tx)
			if err != nil {
				return err
			}

			order := models.Order{
				OrderNumber:   number,
				TableNumber:   req.TableNumber,
				CustomerName:  req.CustomerName,
				CustomerPhone: req.CustomerPhone,
				Notes:         req.Notes,
				Status:        models.OrderStatusPending,
				PaymentStatus: models.OrderPaymentPending,
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			orderID = order.ID

			return s.replaceItems(tx, &order, req.Items)
		})
	}

	err := attempt()
	if err != nil && isDuplicateOrderNumber(err) {
		err = attempt()
	}
	if err != nil {
		return nil, err
	}

	created, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(events.OrderCreated{Order: *created})
	return created, nil
}

// UpdateOrder mengganti metadata dan (jika dikirim) seluruh item order.
// Hanya boleh selama status masih pending/confirmed.
func (s *OrderService) UpdateOrder(orderID uint, req UpdateOrderRequest) (*models.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !order.IsEditable() {
			return fmt.Errorf("%w: status %s", ErrOrderNotEditable, order.Status)
		}

		updates := map[string]interface{}{}
		if req.TableNumber != nil {
			updates["table_number"] = *req.TableNumber
		}
		if req.CustomerName != nil {
			updates["customer_name"] = *req.CustomerName
		}
		if req.CustomerPhone != nil {
			updates["customer_phone"] = *req.CustomerPhone
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}
		if len(updates) > 0 {
			if err := tx.Model(order).Updates(updates).Error; err != nil {
				return err
			}
		}

		if req.Items != nil {
			if err := s.replaceItems(tx, order, req.Items); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// UpdateOrderStatus menerapkan transisi status sesuai tabel validTransitions.
// Hanya staff yang boleh memanggil. Transisi ke cancelled me-refund semua
// pembayaran completed dalam transaksi yang sama; pembatalan setelah uang
// diterima selalu meninggalkan catatan refund, tidak pernah write-off diam.
func (s *OrderService) UpdateOrderStatus(orderID uint, target string, actor Actor) (*models.Order, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	var previous string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		previous = order.Status

		if !transitionAllowed(order.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, target)
		}

		if err := tx.Model(order).Update("status", target).Error; err != nil {
			return err
		}
		order.Status = target

		if target == models.OrderStatusCancelled {
			return refundCompletedPayments(tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(events.OrderStatusChanged{Order: *updated, PreviousStatus: previous})
	return updated, nil
}

// CancelOrder membatalkan order yang masih pending/confirmed. Pemeriksaan
// berjalan di bawah row lock di dalam UpdateOrderStatus; transisi ke
// cancelled yang ditolak di sana berarti order sudah lewat fase yang bisa
// dibatalkan.
func (s *OrderService) CancelOrder(orderID uint, actor Actor) (*models.Order, error) {
	order, err := s.UpdateOrderStatus(orderID, models.OrderStatusCancelled, actor)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil, ErrOrderNotCancellable
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("OrderItems").Preload("Payments").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetOrderByNumber dipakai customer untuk tracking; order_number adalah
// satu-satunya identifier yang tampil di struk.
func (s *OrderService) GetOrderByNumber(number string) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("OrderItems").Preload("Payments").
		Where("order_number = ?", number).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) ListOrders(filter OrderFilter) ([]models.Order, error) {
	query := s.db.Preload("OrderItems").Preload("Payments")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.TableNumber != "" {
		query = query.Where("table_number = ?", filter.TableNumber)
	}

	var orders []models.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// replaceItems mengganti seluruh item order secara atomik: item lama
// dihapus, item baru divalidasi terhadap katalog lalu di-insert, total
// dihitung ulang, dan guardrail nominal diperiksa. Berjalan di dalam
// transaksi pemanggil.
func (s *OrderService) replaceItems(tx *gorm.DB, order *models.Order, items []OrderItemRequest) error {
	if len(items) == 0 {
		return ErrEmptyOrder
	}

	if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}

	seen := make(map[uint]bool, len(items))
	for _, item := range items {
		if item.Quantity < 1 || item.Quantity > MaxItemQuantity {
			return fmt.Errorf("%w: got %d", ErrInvalidQuantity, item.Quantity)
		}
		if seen[item.MenuID] {
			return fmt.Errorf("%w: menu %d", ErrDuplicateLineItem, item.MenuID)
		}
		seen[item.MenuID] = true

		snapshot, err := s.catalog.Lookup(tx, item.MenuID)
		if err != nil {
			return err
		}
		if !snapshot.IsAvailable {
			return fmt.Errorf("%w: %s", ErrMenuUnavailable, snapshot.Name)
		}

		orderItem := models.OrderItem{
			OrderID:  order.ID,
			MenuID:   snapshot.MenuID,
			MenuName: snapshot.Name,
			Quantity: item.Quantity,
			Price:    snapshot.Price,
			Subtotal: snapshot.Price * float64(item.Quantity),
			Notes:    item.Notes,
		}
		if err := tx.Create(&orderItem).Error; err != nil {
			return err
		}
	}

	if err := recomputeTotal(tx, order); err != nil {
		return err
	}

	if order.TotalAmount < MinOrderAmount {
		return fmt.Errorf("%w: minimum %s", ErrOrderBelowMinimum, utils.FormatCurrencyIDR(MinOrderAmount))
	}
	if order.TotalAmount > MaxOrderAmount {
		return fmt.Errorf("%w: maximum %s", ErrOrderAboveMaximum, utils.FormatCurrencyIDR(MaxOrderAmount))
	}

	// Total baru tidak boleh turun di bawah pembayaran yang sudah completed,
	// dan payment_status harus ikut dihitung ulang terhadap total baru.
	paid, err := completedPaidTotal(tx, order.ID)
	if err != nil {
		return err
	}
	if paid > order.TotalAmount {
		return fmt.Errorf("%w: paid %s", ErrTotalBelowPaid, utils.FormatCurrencyIDR(paid))
	}
	return recomputePaymentStatus(tx, order)
}

// recomputeTotal menyetel total_amount dari jumlah subtotal item saat ini.
// Dipanggil eksplisit setiap kali item berubah, dalam transaksi yang sama
// dengan perubahan itu.
func recomputeTotal(tx *gorm.DB, order *models.Order) error {
	var total float64
	if err := tx.Model(&models.OrderItem{}).
		Where("order_id = ?", order.ID).
		Select("COALESCE(SUM(subtotal), 0)").
		Scan(&total).Error; err != nil {
		return err
	}

	order.TotalAmount = total
	return tx.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("total_amount", total).Error
}

// nextOrderNumber menghasilkan nomor order ORD-YYYYMMDD-NNNN: satu lebih
// dari suffix tertinggi yang sudah terpakai hari ini, sehingga nomor yang
// pernah dipakai tidak pernah diterbitkan ulang. Unique index pada
// order_number jadi pengaman terakhir kalau dua transaksi membaca suffix
// yang sama.
func nextOrderNumber(tx *gorm.DB) (string, error) {
	prefix := fmt.Sprintf("ORD-%s-", time.Now().Format("20060102"))

	var numbers []string
	if err := tx.Model(&models.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number desc").
		Limit(1).
		Pluck("order_number", &numbers).Error; err != nil {
		return "", err
	}

	seq := 1
	if len(numbers) > 0 {
		if last, err := strconv.Atoi(strings.TrimPrefix(numbers[0], prefix)); err == nil {
			seq = last + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// isDuplicateOrderNumber mengenali pelanggaran unique index order_number
// dari driver mysql maupun sqlite.
func isDuplicateOrderNumber(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
