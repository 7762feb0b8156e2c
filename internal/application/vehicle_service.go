package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VehicleService exposes the read-only fleet catalogue.
type VehicleService struct {
	store  Store
	logger *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(store Store, logger *zap.Logger) *VehicleService {
	return &VehicleService{store: store, logger: logger}
}

// Get returns a vehicle with its rates.
func (s *VehicleService) Get(ctx context.Context, vehicleID uuid.UUID) (*VehicleDTO, error) {
	v, err := s.store.Repos().Vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	result := toVehicleDTO(v)
	return &result, nil
}
