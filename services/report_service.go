package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/self-order-app/models"
)

// ReportService menyediakan agregasi untuk dashboard admin. Read-only,
// tidak pernah menulis ke store.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

type OrderStatistics struct {
	TotalOrders       int64            `json:"total_orders"`
	ByStatus          map[string]int64 `json:"by_status"`
	TotalRevenue      float64          `json:"total_revenue"`
	AverageOrderValue float64          `json:"average_order_value"`
}

type PaymentStatistics struct {
	TotalPayments        int64              `json:"total_payments"`
	CompletedPayments    int64              `json:"completed_payments"`
	TotalAmount          float64            `json:"total_amount"`
	ByMethod             map[string]float64 `json:"by_method"`
	AveragePaymentAmount float64            `json:"average_payment_amount"`
}

func betweenDates(query *gorm.DB, start, end *time.Time) *gorm.DB {
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at <= ?", *end)
	}
	return query
}

// GetOrderStatistics menghitung jumlah order per status dan revenue
// (jumlah total_amount order yang sudah paid) pada rentang tanggal opsional.
func (s *ReportService) GetOrderStatistics(start, end *time.Time) (*OrderStatistics, error) {
	stats := &OrderStatistics{ByStatus: make(map[string]int64)}

	base := betweenDates(s.db.Model(&models.Order{}), start, end)
	if err := base.Session(&gorm.Session{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := base.Session(&gorm.Session{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, row := range counts {
		stats.ByStatus[row.Status] = row.Count
	}

	paid := base.Session(&gorm.Session{}).Where("payment_status = ?", models.OrderPaymentPaid)
	if err := paid.Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, err
	}

	var paidCount int64
	if err := betweenDates(s.db.Model(&models.Order{}), start, end).
		Where("payment_status = ?", models.OrderPaymentPaid).
		Count(&paidCount).Error; err != nil {
		return nil, err
	}
	if paidCount > 0 {
		stats.AverageOrderValue = stats.TotalRevenue / float64(paidCount)
	}
	return stats, nil
}

// GetPaymentStatistics menghitung total pembayaran completed per metode
// pada rentang tanggal opsional.
func (s *ReportService) GetPaymentStatistics(start, end *time.Time) (*PaymentStatistics, error) {
	stats := &PaymentStatistics{ByMethod: make(map[string]float64)}

	if err := betweenDates(s.db.Model(&models.Payment{}), start, end).
		Count(&stats.TotalPayments).Error; err != nil {
		return nil, err
	}

	completed := func() *gorm.DB {
		return betweenDates(s.db.Model(&models.Payment{}), start, end).
			Where("status = ?", models.PaymentStatusCompleted)
	}

	if err := completed().Count(&stats.CompletedPayments).Error; err != nil {
		return nil, err
	}
	if err := completed().Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalAmount).Error; err != nil {
		return nil, err
	}

	type methodSum struct {
		Method string
		Total  float64
	}
	var sums []methodSum
	if err := completed().
		Select("method, COALESCE(SUM(amount), 0) as total").
		Group("method").
		Scan(&sums).Error; err != nil {
		return nil, err
	}
	for _, row := range sums {
		stats.ByMethod[row.Method] = row.Total
	}

	if stats.CompletedPayments > 0 {
		stats.AveragePaymentAmount = stats.TotalAmount / float64(stats.CompletedPayments)
	}
	return stats, nil
}
