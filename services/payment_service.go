package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/self-order-app/events"
	"github.com/yeremiapane/self-order-app/models"
	"github.com/yeremiapane/self-order-app/utils"
)

// PaymentService memegang ledger pembayaran satu order dan menurunkan
// payment_status order dari ledger itu. Semua mutasi mengunci row order
// terlebih dulu sehingga pemeriksaan sisa tagihan dan insert pembayaran
// tidak pernah interleave dengan transaksi lain pada order yang sama.
type PaymentService struct {
	db        *gorm.DB
	publisher events.Publisher
}

func NewPaymentService(db *gorm.DB, publisher events.Publisher) *PaymentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &PaymentService{db: db, publisher: publisher}
}

// PaymentRequest adalah permintaan pembayaran yang sudah tervalidasi format.
// Amount nil berarti melunasi seluruh sisa tagihan.
type PaymentRequest struct {
	Amount        *float64
	Method        string
	TransactionID *string
	Notes         *string
}

// PaymentPatch mengubah pembayaran yang belum completed; field nil tidak diubah.
type PaymentPatch struct {
	Amount        *float64
	Method        *string
	TransactionID *string
	Notes         *string
}

// completedPaidTotal menjumlahkan pembayaran completed sebuah order.
func completedPaidTotal(tx *gorm.DB, orderID uint) (float64, error) {
	var paid float64
	err := tx.Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, models.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error
	return paid, err
}

// remainingBalance adalah satu-satunya sumber kebenaran sisa tagihan:
// total_amount dikurangi jumlah pembayaran completed, tidak pernah negatif.
func remainingBalance(tx *gorm.DB, order *models.Order) (float64, error) {
	paid, err := completedPaidTotal(tx, order.ID)
	if err != nil {
		return 0, err
	}
	return math.Max(0, order.TotalAmount-paid), nil
}

// RemainingBalance membaca sisa tagihan order di luar unit of work tulis.
func (s *PaymentService) RemainingBalance(orderID uint) (float64, error) {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrOrderNotFound
		}
		return 0, err
	}
	return remainingBalance(s.db, &order)
}

// recomputePaymentStatus menurunkan payment_status order murni dari ledger:
// paid bila sisa nol, partial bila sebagian terbayar, selain itu pending.
// Tidak ada jalur lain yang boleh menulis payment_status kecuali
// refundCompletedPayments saat pembatalan.
func recomputePaymentStatus(tx *gorm.DB, order *models.Order) error {
	remaining, err := remainingBalance(tx, order)
	if err != nil {
		return err
	}

	status := models.OrderPaymentPending
	switch {
	case remaining <= 0:
		status = models.OrderPaymentPaid
	case remaining < order.TotalAmount:
		status = models.OrderPaymentPartial
	}

	order.PaymentStatus = status
	return tx.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("payment_status", status).Error
}

// refundCompletedPayments menandai semua pembayaran completed menjadi
// refunded dan menyetel payment_status order. Dipanggil oleh transisi
// pembatalan, dalam transaksi yang sama dengan perubahan status.
func refundCompletedPayments(tx *gorm.DB, order *models.Order) error {
	result := tx.Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", order.ID, models.PaymentStatusCompleted).
		Update("status", models.PaymentStatusRefunded)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		order.PaymentStatus = models.OrderPaymentRefunded
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("payment_status", models.OrderPaymentRefunded).Error
	}
	return nil
}

// validatePaymentMethod memeriksa kombinasi method dan transaction_id:
// cash tidak boleh membawa transaction_id, metode digital wajib.
func validatePaymentMethod(method string, transactionID *string) error {
	if !models.IsValidPaymentMethod(method) {
		return fmt.Errorf("%w: %s", ErrInvalidPaymentMethod, method)
	}
	hasTransactionID := transactionID != nil && *transactionID != ""
	if method == models.PaymentMethodCash && hasTransactionID {
		return ErrTransactionIDNotAllowed
	}
	if models.IsDigitalMethod(method) && !hasTransactionID {
		return ErrTransactionIDRequired
	}
	return nil
}

// ProcessOrderPayment memvalidasi dan mencatat pembayaran atas sebuah order.
// Cash langsung completed (uang diterima saat itu juga), metode digital
// mulai pending sampai ConfirmPayment dipanggil. Pemeriksaan sisa tagihan
// dan insert pembayaran berjalan dalam satu transaksi dengan row lock pada
// order, sehingga dua pembayaran paralel tidak bisa bersama-sama melewati total.
func (s *PaymentService) ProcessOrderPayment(orderID uint, req PaymentRequest, actor Actor) (*models.Payment, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}
	if err := validatePaymentMethod(req.Method, req.TransactionID); err != nil {
		return nil, err
	}

	var payment models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status == models.OrderStatusCancelled {
			return ErrOrderCancelled
		}

		remaining, err := remainingBalance(tx, order)
		if err != nil {
			return err
		}

		// Default: lunasi seluruh sisa tagihan dalam satu langkah.
		amount := remaining
		if req.Amount != nil {
			amount = *req.Amount
		}
		if amount <= 0 {
			return ErrInvalidAmount
		}
		if amount > remaining {
			return fmt.Errorf("%w: remaining %s", ErrAmountExceedsBalance, utils.FormatCurrencyIDR(remaining))
		}

		payment = models.Payment{
			OrderID:       order.ID,
			Amount:        amount,
			Method:        req.Method,
			Status:        models.PaymentStatusPending,
			TransactionID: req.TransactionID,
			Notes:         req.Notes,
		}
		if actor.ID != 0 {
			processedBy := actor.ID
			payment.ProcessedBy = &processedBy
		}
		if req.Method == models.PaymentMethodCash {
			now := time.Now()
			payment.Status = models.PaymentStatusCompleted
			payment.ProcessedAt = &now
		}

		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return recomputePaymentStatus(tx, order)
	})
	if err != nil {
		return nil, err
	}

	if payment.IsCompleted() {
		s.publishProcessed(payment)
	}
	return &payment, nil
}

// ConfirmPayment menandai pembayaran digital yang masih pending menjadi
// completed setelah konfirmasi eksternal diterima. Sisa tagihan diperiksa
// ulang pada saat settlement karena pembayaran lain bisa saja sudah masuk.
func (s *PaymentService) ConfirmPayment(paymentID uint, actor Actor) (*models.Payment, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	var payment models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		order, err := lockOrder(tx, payment.OrderID)
		if err != nil {
			return err
		}
		// Baca ulang setelah lock supaya status payment tidak basi.
		if err := tx.First(&payment, paymentID).Error; err != nil {
			return err
		}

		if payment.Status != models.PaymentStatusPending {
			return fmt.Errorf("%w: status %s", ErrPaymentNotPending, payment.Status)
		}
		if order.Status == models.OrderStatusCancelled {
			return ErrOrderCancelled
		}

		remaining, err := remainingBalance(tx, order)
		if err != nil {
			return err
		}
		if payment.Amount > remaining {
			return fmt.Errorf("%w: remaining %s", ErrAmountExceedsBalance, utils.FormatCurrencyIDR(remaining))
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":       models.PaymentStatusCompleted,
			"processed_at": now,
		}
		if actor.ID != 0 {
			updates["processed_by"] = actor.ID
		}
		if err := tx.Model(&payment).Updates(updates).Error; err != nil {
			return err
		}
		payment.Status = models.PaymentStatusCompleted
		payment.ProcessedAt = &now

		return recomputePaymentStatus(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishProcessed(payment)
	return &payment, nil
}

// UpdatePayment mengubah pembayaran yang belum completed. Pembayaran
// completed append-only dari sisi ledger: koreksi dilakukan lewat refund
// plus pembayaran baru, tidak pernah dengan mengedit riwayat.
func (s *PaymentService) UpdatePayment(paymentID uint, patch PaymentPatch, actor Actor) (*models.Payment, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	var payment models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		order, err := lockOrder(tx, payment.OrderID)
		if err != nil {
			return err
		}
		if err := tx.First(&payment, paymentID).Error; err != nil {
			return err
		}
		if payment.Status == models.PaymentStatusCompleted {
			return ErrPaymentAlreadyCompleted
		}

		method := payment.Method
		if patch.Method != nil {
			method = *patch.Method
		}
		transactionID := payment.TransactionID
		if patch.TransactionID != nil {
			transactionID = patch.TransactionID
		}
		if err := validatePaymentMethod(method, transactionID); err != nil {
			return err
		}

		amount := payment.Amount
		if patch.Amount != nil {
			amount = *patch.Amount
		}
		if amount <= 0 {
			return ErrInvalidAmount
		}
		remaining, err := remainingBalance(tx, order)
		if err != nil {
			return err
		}
		if amount > remaining {
			return fmt.Errorf("%w: remaining %s", ErrAmountExceedsBalance, utils.FormatCurrencyIDR(remaining))
		}

		updates := map[string]interface{}{
			"amount":         amount,
			"method":         method,
			"transaction_id": transactionID,
		}
		if patch.Notes != nil {
			updates["notes"] = *patch.Notes
		}
		if err := tx.Model(&payment).Updates(updates).Error; err != nil {
			return err
		}
		return recomputePaymentStatus(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// RefundPayment membalikkan pembayaran completed dan menghitung ulang
// payment_status order pemiliknya.
func (s *PaymentService) RefundPayment(paymentID uint, actor Actor) (*models.Payment, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	var payment models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		order, err := lockOrder(tx, payment.OrderID)
		if err != nil {
			return err
		}
		if err := tx.First(&payment, paymentID).Error; err != nil {
			return err
		}
		if payment.Status != models.PaymentStatusCompleted {
			return fmt.Errorf("%w: status %s", ErrNotRefundable, payment.Status)
		}

		if err := tx.Model(&payment).Update("status", models.PaymentStatusRefunded).Error; err != nil {
			return err
		}
		payment.Status = models.PaymentStatusRefunded

		return recomputePaymentStatus(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *PaymentService) GetPayment(paymentID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (s *PaymentService) ListPaymentsByOrder(orderID uint) ([]models.Payment, error) {
	var count int64
	if err := s.db.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrOrderNotFound
	}

	var payments []models.Payment
	if err := s.db.Where("order_id = ?", orderID).
		Order("created_at asc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// publishProcessed memuat snapshot order penuh lalu menerbitkan event
// settlement. Berjalan setelah commit; kegagalan di sini hanya dicatat.
func (s *PaymentService) publishProcessed(payment models.Payment) {
	var order models.Order
	if err := s.db.Preload("OrderItems").Preload("Payments").
		First(&order, payment.OrderID).Error; err != nil {
		utils.ErrorLogger.Printf("gagal memuat order %d untuk event payment: %v", payment.OrderID, err)
		return
	}
	s.publisher.Publish(events.PaymentProcessed{Payment: payment, Order: order})
}
