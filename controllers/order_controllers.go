package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/self-order-app/services"
	"github.com/yeremiapane/self-order-app/utils"
)

type OrderController struct {
	service *services.OrderService
}

func NewOrderController(service *services.OrderService) *OrderController {
	return &OrderController{service: service}
}

type orderItemReq struct {
	MenuID   uint    `json:"menu_id" binding:"required"`
	Quantity int     `json:"quantity" binding:"required"`
	Notes    *string `json:"notes"`
}

type createOrderReq struct {
	TableNumber   *string        `json:"table_number"`
	CustomerName  *string        `json:"customer_name"`
	CustomerPhone *string        `json:"customer_phone"`
	Notes         *string        `json:"notes"`
	Items         []orderItemReq `json:"items" binding:"required,min=1,dive"`
}

type updateOrderReq struct {
	TableNumber   *string        `json:"table_number"`
	CustomerName  *string        `json:"customer_name"`
	CustomerPhone *string        `json:"customer_phone"`
	Notes         *string        `json:"notes"`
	Items         []orderItemReq `json:"items"`
}

func toItemRequests(items []orderItemReq) []services.OrderItemRequest {
	result := make([]services.OrderItemRequest, 0, len(items))
	for _, item := range items {
		result = append(result, services.OrderItemRequest{
			MenuID:   item.MenuID,
			Quantity: item.Quantity,
			Notes:    item.Notes,
		})
	}
	return result
}

// GetAllOrders -> daftar order, filter lewat query string.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.service.ListOrders(services.OrderFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		TableNumber:   c.Query("table_number"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// CreateOrder -> endpoint publik untuk customer membuat pesanan.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body createOrderReq
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.service.CreateOrder(services.CreateOrderRequest{
		TableNumber:   body.TableNumber,
		CustomerName:  body.CustomerName,
		CustomerPhone: body.CustomerPhone,
		Notes:         body.Notes,
		Items:         toItemRequests(body.Items),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetOrderByID -> detail satu order beserta item dan pembayarannya.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.service.GetOrder(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// TrackOrder -> customer melacak pesanan dengan order number di struk.
func (oc *OrderController) TrackOrder(c *gin.Context) {
	order, err := oc.service.GetOrderByNumber(c.Param("order_number"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrder -> ganti metadata dan/atau seluruh item selama order masih
// pending/confirmed.
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body updateOrderReq
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	req := services.UpdateOrderRequest{
		TableNumber:   body.TableNumber,
		CustomerName:  body.CustomerName,
		CustomerPhone: body.CustomerPhone,
		Notes:         body.Notes,
	}
	if body.Items != nil {
		req.Items = toItemRequests(body.Items)
	}

	order, err := oc.service.UpdateOrder(uint(id), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

// UpdateStatus -> staf menggeser status order mengikuti state machine.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.service.UpdateOrderStatus(uint(id), body.Status, actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// CancelOrder -> batalkan order pending/confirmed; pembayaran completed
// otomatis jadi refunded.
func (oc *OrderController) CancelOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.service.CancelOrder(uint(id), actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}
