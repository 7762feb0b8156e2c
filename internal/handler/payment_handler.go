package handler

import (
	"github.com/fleetline/service-reservation/internal/application"
	"github.com/fleetline/service-reservation/pkg/auth"
	"github.com/fleetline/service-reservation/pkg/middleware"
	"github.com/fleetline/service-reservation/pkg/response"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles HTTP requests for the booking payment ledger.
type PaymentHandler struct {
	service *application.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers payment routes. Recording, settling and refunding
// are staff operations; the payment collaborator can also drive them over Kafka.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	r.GET("/api/v1/bookings/:id/payments", authMW, h.ListPayments)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, middleware.RequirePrivileged())
	{
		admin.POST("/bookings/:id/payments", h.RecordPayment)
		admin.GET("/payments/:id", h.GetPayment)
		admin.POST("/payments/:id/settle", h.SettlePayment)
		admin.POST("/payments/:id/refund", h.RefundDeposit)
	}
}

// ListPayments handles GET /api/v1/bookings/:id/payments.
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	bookingID, ok := parseID(c, "booking")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := h.service.ListForBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RecordPayment handles POST /api/v1/admin/bookings/:id/payments.
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	bookingID, ok := parseID(c, "booking")
	if !ok {
		return
	}

	var req application.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RecordPayment(c.Request.Context(), bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetPayment handles GET /api/v1/admin/payments/:id.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID, ok := parseID(c, "payment")
	if !ok {
		return
	}

	result, err := h.service.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SettlePayment handles POST /api/v1/admin/payments/:id/settle.
func (h *PaymentHandler) SettlePayment(c *gin.Context) {
	paymentID, ok := parseID(c, "payment")
	if !ok {
		return
	}

	var req application.SettlePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SettlePayment(c.Request.Context(), paymentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RefundDeposit handles POST /api/v1/admin/payments/:id/refund.
func (h *PaymentHandler) RefundDeposit(c *gin.Context) {
	paymentID, ok := parseID(c, "payment")
	if !ok {
		return
	}

	var req application.RefundDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RefundDeposit(c.Request.Context(), paymentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
