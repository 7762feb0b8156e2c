package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fleetline/service-reservation/internal/application"
	"github.com/fleetline/service-reservation/pkg/auth"
	"github.com/fleetline/service-reservation/pkg/middleware"
	"github.com/fleetline/service-reservation/pkg/response"
)

// AdminBookingHandler handles staff HTTP requests for booking management.
type AdminBookingHandler struct {
	bookings   *application.BookingService
	extensions *application.ExtensionService
	lateFees   *application.LateFeeService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(
	bookings *application.BookingService,
	extensions *application.ExtensionService,
	lateFees *application.LateFeeService,
) *AdminBookingHandler {
	return &AdminBookingHandler{bookings: bookings, extensions: extensions, lateFees: lateFees}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, middleware.RequirePrivileged())
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.POST("/bookings/:id/approve", h.TransitionBooking(application.ActionApprove))
		admin.POST("/bookings/:id/reject", h.TransitionBooking(application.ActionReject))
		admin.POST("/bookings/:id/begin", h.TransitionBooking(application.ActionBegin))
		admin.POST("/bookings/:id/complete", h.TransitionBooking(application.ActionComplete))
		admin.POST("/bookings/:id/cancel", h.TransitionBooking(application.ActionCancel))
		admin.POST("/bookings/:id/late-fee", h.ComputeLateFee)
		admin.POST("/extensions/:id/review", h.ReviewExtension)
		admin.POST("/late-fees/:id/return", h.RecordReturn)
		admin.POST("/late-fees/:id/waive", h.WaiveLateFee)
	}
}

// ListBookings handles GET /api/v1/admin/bookings?status=.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.bookings.ListAllBookings(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// TransitionBooking returns the handler for POST /api/v1/admin/bookings/:id/<action>.
func (h *AdminBookingHandler) TransitionBooking(action application.BookingAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseID(c, "booking")
		if !ok {
			return
		}
		actorID, ok := requireUser(c)
		if !ok {
			return
		}

		var req reasonRequest
		_ = c.ShouldBindJSON(&req)

		result, err := h.bookings.TransitionBooking(c.Request.Context(), bookingID, action, actorID, req.Reason)
		if err != nil {
			response.Error(c, err)
			return
		}

		response.Success(c, result)
	}
}

// ComputeLateFee handles POST /api/v1/admin/bookings/:id/late-fee.
func (h *AdminBookingHandler) ComputeLateFee(c *gin.Context) {
	bookingID, ok := parseID(c, "booking")
	if !ok {
		return
	}
	actorID, ok := requireUser(c)
	if !ok {
		return
	}

	var req application.ComputeLateFeeRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.lateFees.ComputeLateFee(c.Request.Context(), bookingID, actorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ReviewExtension handles POST /api/v1/admin/extensions/:id/review.
func (h *AdminBookingHandler) ReviewExtension(c *gin.Context) {
	extensionID, ok := parseID(c, "extension")
	if !ok {
		return
	}
	actorID, ok := requireUser(c)
	if !ok {
		return
	}

	var req application.ReviewExtensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	decision, err := application.ParseDecision(req.Decision)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.extensions.ReviewExtension(c.Request.Context(), extensionID, decision, actorID, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RecordReturn handles POST /api/v1/admin/late-fees/:id/return.
func (h *AdminBookingHandler) RecordReturn(c *gin.Context) {
	lateFeeID, ok := parseID(c, "late fee")
	if !ok {
		return
	}
	actorID, ok := requireUser(c)
	if !ok {
		return
	}

	var req application.RecordReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.lateFees.RecordReturn(c.Request.Context(), lateFeeID, actorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// WaiveLateFee handles POST /api/v1/admin/late-fees/:id/waive.
func (h *AdminBookingHandler) WaiveLateFee(c *gin.Context) {
	lateFeeID, ok := parseID(c, "late fee")
	if !ok {
		return
	}
	actorID, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := h.lateFees.Waive(c.Request.Context(), lateFeeID, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
