package services_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/self-order-app/events"
	"github.com/yeremiapane/self-order-app/models"
	"github.com/yeremiapane/self-order-app/services"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestCashPaymentSettlesImmediately(t *testing.T) {
	db := setupTestDB(t)
	orderSvc := services.NewOrderService(db, nil)
	paymentSvc := services.NewPaymentService(db, nil)

	order := newTestOrder(t, orderSvc)

	// Amount nil -> lunasi seluruh sisa tagihan.
	payment, err := paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Method: models.PaymentMethodCash,
	}, staffActor)
	require.NoError(t, err)

	assert.Equal(t, 55000.0, payment.Amount)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	require.NotNil(t, payment.ProcessedAt)
	require.NotNil(t, payment.ProcessedBy)
	assert.Equal(t, staffActor.ID, *payment.ProcessedBy)

	reloaded, err := orderSvc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaymentPaid, reloaded.PaymentStatus)

	remaining, err := paymentSvc.RemainingBalance(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, remaining)
}

func TestPartialPaymentsAccumulate(t *testing.T) {
	db := setupTestDB(t)
	orderSvc := services.NewOrderService(db, nil)
	paymentSvc := services.NewPaymentService(db, nil)

	order := newTestOrder(t, orderSvc)

	_, err := paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Amount: floatPtr(30000),
		Method: models.PaymentMethodCash,
	}, staffActor)
	require.NoError(t, err)

	reloaded, err := orderSvc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaymentPartial, reloaded.PaymentStatus)

	remaining, err := paymentSvc.RemainingBalance(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 25000.0, remaining)

	_, err = paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Amount: floatPtr(25000),
		Method: models.PaymentMethodCash,
	}, staffActor)
	require.NoError(t, err)

	reloaded, err = orderSvc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaymentPaid, reloaded.PaymentStatus)
}

func TestOverpaymentRejected(t *testing.T) {
	db := setupTestDB(t)
	orderSvc := services.NewOrderService(db, nil)
	paymentSvc := services.NewPaymentService(db, nil)

	order := newTestOrder(t, orderSvc)

	_, err := paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Amount: floatPtr(60000),
		Method: models.PaymentMethodCash,
	}, staffActor)
	assert.ErrorIs(t, err, services.ErrAmountExceedsBalance)

	// Tidak ada row pembayaran yang tertinggal.
	var count int64
	db.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&count)
	assert.Zero(t, count)
}

func TestPaymentMethodValidation(t *testing.T) {
	db := setupTestDB(t)
	orderSvc := services.NewOrderService(db, nil)
	paymentSvc := services.NewPaymentService(db, nil)

	order := newTestOrder(t, orderSvc)

	tests := []struct {
		name    string
		req     services.PaymentRequest
		wantErr error
	}{
		{
			name:    "digital tanpa transaction id",
			req:     services.PaymentRequest{Method: models.PaymentMethodQRIS},
			wantErr: services.ErrTransactionIDRequired,
		},
		{
			name: "cash dengan transaction id",
			req: services.PaymentRequest{
				Method:        models.PaymentMethodCash,
				TransactionID: strPtr("TXN-001"),
			},
			wantErr: services.ErrTransactionIDNotAllowed,
		},
		{
			name:    "metode tidak dikenal",
			req:     services.PaymentRequest{Method: "bitcoin"},
			wantErr: services.ErrInvalidPaymentMethod,
		},
		{
			name: "amount nol",
			req: services.PaymentRequest{
				Amount: floatPtr(0),
				Method: models.PaymentMethodCash,
			},
			wantErr: services.ErrInvalidAmount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := paymentSvc.ProcessOrderPayment(order.ID, tc.req, staffActor)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDigitalPaymentLifecycle(t *testing.T) {
	db := setupTestDB(t)
	publisher := &recordingPublisher{}
	orderSvc := services.NewOrderService(db, publisher)
	paymentSvc := services.NewPaymentService(db, publisher)

	order := newTestOrder(t, orderSvc)

	payment, err := paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Method:        models.PaymentMethodQRIS,
		TransactionID: strPtr("QR-12345"),
	}, staffActor)
	require.NoError(t, err)

	// Pending belum dihitung sebagai terbayar.
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Nil(t, payment.ProcessedAt)

	reloaded, err := orderSvc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaymentPending, reloaded.PaymentStatus)

	remaining, err := paymentSvc.RemainingBalance(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 55000.0, remaining)

	// Event settlement baru terbit saat konfirmasi, bukan saat pending dibuat.
	for _, ev := range publisher.all() {
		_, isProcessed := ev.(events.PaymentProcessed)
		assert.False(t, isProcessed)
	}

	confirmed, err := paymentSvc.ConfirmPayment(payment.ID, staffActor)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, confirmed.Status)
	require.NotNil(t, confirmed.ProcessedAt)

	reloaded, err = orderSvc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaymentPaid, reloaded.PaymentStatus)

	var processedEvents int
	for _, ev := range publisher.all() {
		if _, ok := ev.(events.PaymentProcessed); ok {
			processedEvents++
		}
	}
	assert.Equal(t, 1, processedEvents)
}

func TestConfirmPaymentGuards(t *testing.T) {
	db := setupTestDB(t)
	orderSvc := services.NewOrderService(db, nil)
	paymentSvc := services.NewPaymentService(db, nil)

	order := newTestOrder(t, orderSvc)

	payment, err := paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Method:        models.PaymentMethodBankTransfer,
		TransactionID: strPtr("TRF-777"),
	}, staffActor)
	require.NoError(t, err)

	_, err = paymentSvc.ConfirmPayment(payment.ID, staffActor)
	require.NoError(t, err)

	// Konfirmasi kedua ditolak.
	_, err = paymentSvc.ConfirmPayment(payment.ID, staffActor)
	assert.ErrorIs(t, err, services.ErrPaymentNotPending)

	_, err = paymentSvc.ConfirmPayment(999, staffActor)
	assert.ErrorIs(t, err, services.ErrPaymentNotFound)
}

func TestConfirmPaymentRechecksBalance(t *testing.T) {
	db := setupTestDB(t)
	orderSvc := services.NewOrderService(db, nil)
	paymentSvc := services.NewPaymentService(db, nil)

	order := newTestOrder(t, orderSvc)

	// Pending sebesar total penuh...
	pending, err := paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Amount:        floatPtr(55000),
		Method:        models.PaymentMethodQRIS,
		TransactionID: strPtr("QR-A"),
	}, staffActor)
	require.NoError(t, err)

	// ...lalu cash 30000 masuk duluan. Konfirmasi pending kini melampaui sisa.
	_, err = paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Amount: floatPtr(30000),
		Method: models.PaymentMethodCash,
	}, staffActor)
	require.NoError(t, err)

	_, err = paymentSvc.ConfirmPayment(pending.ID, staffActor)
	assert.ErrorIs(t, err, services.ErrAmountExceedsBalance)

	reloaded, err := paymentSvc.GetPayment(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, reloaded.Status)
}

func TestUpdatePaymentPendingOnly(t *testing.T) {
	db := setupTestDB(t)
	orderSvc := services.NewOrderService(db, nil)
	paymentSvc := services.NewPaymentService(db, nil)

	order := newTestOrder(t, orderSvc)

	pending, err := paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Amount:        floatPtr(20000),
		Method:        models.PaymentMethodQRIS,
		TransactionID: strPtr("QR-B"),
	}, staffActor)
	require.NoError(t, err)

	updated, err := paymentSvc.UpdatePayment(pending.ID, services.PaymentPatch{
		Amount:        floatPtr(25000),
		Method:        strPtr(models.PaymentMethodEWallet),
		TransactionID: strPtr("EW-99"),
	}, staffActor)
	require.NoError(t, err)
	assert.Equal(t, 25000.0, updated.Amount)
	assert.Equal(t, models.PaymentMethodEWallet, updated.Method)

	// Pembayaran completed append-only.
	cash, err := paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Amount: floatPtr(10000),
		Method: models.PaymentMethodCash,
	}, staffActor)
	require.NoError(t, err)

	_, err = paymentSvc.UpdatePayment(cash.ID, services.PaymentPatch{
		Amount: floatPtr(5000),
	}, staffActor)
	assert.ErrorIs(t, err, services.ErrPaymentAlreadyCompleted)
}

func TestRefundPayment(t *testing.T) {
	db := setupTestDB(t)
	orderSvc := services.NewOrderService(db, nil)
	paymentSvc := services.NewPaymentService(db, nil)

	order := newTestOrder(t, orderSvc)

	payment, err := paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Method: models.PaymentMethodCash,
	}, staffActor)
	require.NoError(t, err)

	reloaded, err := orderSvc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaymentPaid, reloaded.PaymentStatus)

	refunded, err := paymentSvc.RefundPayment(payment.ID, staffActor)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, refunded.Status)

	// payment_status dihitung ulang: kembali pending, sisa penuh.
	reloaded, err = orderSvc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaymentPending, reloaded.PaymentStatus)

	remaining, err := paymentSvc.RemainingBalance(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 55000.0, remaining)

	// Refund dua kali atau refund pembayaran pending ditolak.
	_, err = paymentSvc.RefundPayment(payment.ID, staffActor)
	assert.ErrorIs(t, err, services.ErrNotRefundable)

	pending, err := paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Amount:        floatPtr(20000),
		Method:        models.PaymentMethodQRIS,
		TransactionID: strPtr("QR-C"),
	}, staffActor)
	require.NoError(t, err)

	_, err = paymentSvc.RefundPayment(pending.ID, staffActor)
	assert.ErrorIs(t, err, services.ErrNotRefundable)
}

func TestPaymentOnCancelledOrderRejected(t *testing.T) {
	db := setupTestDB(t)
	orderSvc := services.NewOrderService(db, nil)
	paymentSvc := services.NewPaymentService(db, nil)

	order := newTestOrder(t, orderSvc)
	_, err := orderSvc.CancelOrder(order.ID, staffActor)
	require.NoError(t, err)

	_, err = paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Method: models.PaymentMethodCash,
	}, staffActor)
	assert.ErrorIs(t, err, services.ErrOrderCancelled)
}

func TestPaymentRequiresStaff(t *testing.T) {
	db := setupTestDB(t)
	orderSvc := services.NewOrderService(db, nil)
	paymentSvc := services.NewPaymentService(db, nil)

	order := newTestOrder(t, orderSvc)

	_, err := paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Method: models.PaymentMethodCash,
	}, services.Actor{ID: 7})
	assert.ErrorIs(t, err, services.ErrStaffOnly)
}

func TestListPaymentsByOrder(t *testing.T) {
	db := setupTestDB(t)
	orderSvc := services.NewOrderService(db, nil)
	paymentSvc := services.NewPaymentService(db, nil)

	order := newTestOrder(t, orderSvc)

	_, err := paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
		Amount: floatPtr(30000),
		Method: models.PaymentMethodCash,
	}, staffActor)
	require.NoError(t, err)

	payments, err := paymentSvc.ListPaymentsByOrder(order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	_, err = paymentSvc.ListPaymentsByOrder(999)
	assert.ErrorIs(t, err, services.ErrOrderNotFound)
}

// Dua pembayaran paralel tidak boleh bersama-sama melewati total order.
// Dengan SQLite salah satu goroutine bisa gagal karena lock database; yang
// dijaga di sini adalah invariannya, bukan jumlah yang sukses.
func TestConcurrentPaymentsNeverOverpay(t *testing.T) {
	db := setupTestDB(t)
	orderSvc := services.NewOrderService(db, nil)
	paymentSvc := services.NewPaymentService(db, nil)

	order := newTestOrder(t, orderSvc)

	amounts := []float64{30000, 55000}
	var wg sync.WaitGroup
	for _, amount := range amounts {
		wg.Add(1)
		go func(amount float64) {
			defer wg.Done()
			_, _ = paymentSvc.ProcessOrderPayment(order.ID, services.PaymentRequest{
				Amount: floatPtr(amount),
				Method: models.PaymentMethodCash,
			}, staffActor)
		}(amount)
	}
	wg.Wait()

	var paid float64
	require.NoError(t, db.Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", order.ID, models.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error)
	assert.LessOrEqual(t, paid, order.TotalAmount)

	remaining, err := paymentSvc.RemainingBalance(order.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, remaining, 0.0)
}
