package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// VehicleRepository reads fleet vehicles.
type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	// FindForUpdate loads the vehicle and, inside a transaction, locks its row
	// until commit so reservations for it are admitted one at a time.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*Vehicle, error)
}
