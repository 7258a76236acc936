package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/self-order-app/services"
	"github.com/yeremiapane/self-order-app/utils"
)

type PaymentController struct {
	service *services.PaymentService
}

func NewPaymentController(service *services.PaymentService) *PaymentController {
	return &PaymentController{service: service}
}

type paymentReq struct {
	// Amount kosong berarti melunasi seluruh sisa tagihan.
	Amount        *float64 `json:"amount"`
	Method        string   `json:"method" binding:"required"`
	TransactionID *string  `json:"transaction_id"`
	Notes         *string  `json:"notes"`
}

type paymentPatchReq struct {
	Amount        *float64 `json:"amount"`
	Method        *string  `json:"method"`
	TransactionID *string  `json:"transaction_id"`
	Notes         *string  `json:"notes"`
}

// CreatePayment -> staf mencatat pembayaran atas order.
func (pc *PaymentController) CreatePayment(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body paymentReq
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	payment, err := pc.service.ProcessOrderPayment(uint(orderID), services.PaymentRequest{
		Amount:        body.Amount,
		Method:        body.Method,
		TransactionID: body.TransactionID,
		Notes:         body.Notes,
	}, actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Payment recorded", payment)
}

// ConfirmPayment -> settlement pembayaran digital yang masih pending.
func (pc *PaymentController) ConfirmPayment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("payment_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	payment, err := pc.service.ConfirmPayment(uint(id), actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment confirmed", payment)
}

// UpdatePayment -> koreksi pembayaran yang belum completed.
func (pc *PaymentController) UpdatePayment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("payment_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body paymentPatchReq
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	payment, err := pc.service.UpdatePayment(uint(id), services.PaymentPatch{
		Amount:        body.Amount,
		Method:        body.Method,
		TransactionID: body.TransactionID,
		Notes:         body.Notes,
	}, actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment updated", payment)
}

// RefundPayment -> balikkan pembayaran completed.
func (pc *PaymentController) RefundPayment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("payment_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	payment, err := pc.service.RefundPayment(uint(id), actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment refunded", payment)
}

// GetPaymentByID
func (pc *PaymentController) GetPaymentByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("payment_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	payment, err := pc.service.GetPayment(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment detail", payment)
}

// GetPaymentsByOrder -> ledger pembayaran satu order plus sisa tagihan.
func (pc *PaymentController) GetPaymentsByOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	payments, err := pc.service.ListPaymentsByOrder(uint(orderID))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	remaining, err := pc.service.RemainingBalance(uint(orderID))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order payments", gin.H{
		"payments":          payments,
		"remaining_balance": remaining,
	})
}
