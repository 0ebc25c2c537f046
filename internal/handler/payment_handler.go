package handler

import (
	"net/http"

	"groov/internal/middleware"
	"groov/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentSvc *service.PaymentService
}

func NewPaymentHandler(paymentSvc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// Ready reserves the payment with the gateway and returns the transaction id
// plus the redirect URL where the user authorizes it.
func (h *PaymentHandler) Ready(c *gin.Context) {
	user := middleware.GetUser(c)
	var req service.ReadyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.paymentSvc.Ready(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Approve confirms the payment with the one-time token from the gateway
// redirect and grants the download entitlement. Safe to retry.
func (h *PaymentHandler) Approve(c *gin.Context) {
	user := middleware.GetUser(c)
	var req service.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.paymentSvc.Approve(c.Request.Context(), user, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": "payment_success"})
}

// Status reports an order's payment status so the client can tell a pending
// reservation from a completed purchase.
func (h *PaymentHandler) Status(c *gin.Context) {
	user := middleware.GetUser(c)
	orderID := c.Query("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id required"})
		return
	}
	status, err := h.paymentSvc.Status(user, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "status": status})
}
