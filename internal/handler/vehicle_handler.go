package handler

import (
	"github.com/fleetline/service-reservation/internal/application"
	"github.com/fleetline/service-reservation/pkg/auth"
	"github.com/fleetline/service-reservation/pkg/middleware"
	"github.com/fleetline/service-reservation/pkg/response"
	"github.com/gin-gonic/gin"
)

// VehicleHandler exposes read-only vehicle details for quoting.
type VehicleHandler struct {
	service *application.VehicleService
}

func NewVehicleHandler(service *application.VehicleService) *VehicleHandler {
	return &VehicleHandler{service: service}
}

func (h *VehicleHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	vehicles := r.Group("/api/v1/vehicles")
	vehicles.Use(middleware.AuthMiddleware(jwtManager))
	vehicles.GET("/:id", h.GetVehicle)
}

func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicleID, ok := parseID(c, "vehicle")
	if !ok {
		return
	}

	result, err := h.service.Get(c.Request.Context(), vehicleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
