package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/self-order-app/services"
	"github.com/yeremiapane/self-order-app/utils"
)

type ReportController struct {
	service *services.ReportService
}

func NewReportController(service *services.ReportService) *ReportController {
	return &ReportController{service: service}
}

// dateRange membaca ?start_date=2006-01-02&end_date=2006-01-02.
// end_date inklusif sampai akhir hari.
func dateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var start, end *time.Time

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start_date: %v", err)
		}
		start = &parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end_date: %v", err)
		}
		endOfDay := parsed.Add(24*time.Hour - time.Nanosecond)
		end = &endOfDay
	}
	return start, end, nil
}

func (rc *ReportController) GetOrderReport(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	stats, err := rc.service.GetOrderStatistics(start, end)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order statistics", stats)
}

func (rc *ReportController) GetPaymentReport(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	stats, err := rc.service.GetPaymentStatistics(start, end)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment statistics", stats)
}
