package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/self-order-app/services"
	"github.com/yeremiapane/self-order-app/utils"
)

// statusForError memetakan sentinel error dari services ke kode HTTP.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrMenuNotFound),
		errors.Is(err, services.ErrPaymentNotFound):
		return http.StatusNotFound

	case errors.Is(err, services.ErrStaffOnly):
		return http.StatusForbidden

	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrOrderNotEditable),
		errors.Is(err, services.ErrOrderNotCancellable),
		errors.Is(err, services.ErrOrderCancelled),
		errors.Is(err, services.ErrAmountExceedsBalance),
		errors.Is(err, services.ErrPaymentAlreadyCompleted),
		errors.Is(err, services.ErrPaymentNotPending),
		errors.Is(err, services.ErrNotRefundable):
		return http.StatusConflict

	case errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrMenuUnavailable),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrDuplicateLineItem),
		errors.Is(err, services.ErrOrderBelowMinimum),
		errors.Is(err, services.ErrOrderAboveMaximum),
		errors.Is(err, services.ErrTotalBelowPaid),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidPaymentMethod),
		errors.Is(err, services.ErrTransactionIDRequired),
		errors.Is(err, services.ErrTransactionIDNotAllowed):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondServiceError(c *gin.Context, err error) {
	utils.RespondError(c, statusForError(err), err)
}

// actorFrom membaca identitas yang sudah dipasang AuthMiddleware.
func actorFrom(c *gin.Context) services.Actor {
	actor := services.Actor{}
	if userID, ok := c.Get("userID"); ok {
		if id, ok := userID.(uint); ok {
			actor.ID = id
		}
	}
	if role, ok := c.Get("role"); ok {
		if r, ok := role.(string); ok {
			actor.Role = r
		}
	}
	return actor
}
