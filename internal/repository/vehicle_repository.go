package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	vehicleDomain "github.com/fleetline/service-reservation/internal/domain/vehicle"
	"github.com/fleetline/service-reservation/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VehicleModel is the GORM model for the vehicles table. The fleet service
// owns the rows; this service only reads and locks them.
type VehicleModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name             string          `gorm:"type:varchar(200);not null"`
	DailyRateCents   int64           `gorm:"not null"`
	WeeklyRateCents  int64           `gorm:"not null;default:0"`
	MonthlyRateCents int64           `gorm:"not null;default:0"`
	Available        bool            `gorm:"not null"`
	PickupLocations  json.RawMessage `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt        time.Time       `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt        time.Time       `gorm:"type:timestamptz;not null;default:now()"`
}

func (VehicleModel) TableName() string { return "vehicles" }

// GormVehicleRepository implements VehicleRepository using GORM.
type GormVehicleRepository struct {
	db *gorm.DB
}

func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindForUpdate takes a row lock on the vehicle. Outside a transaction the
// lock is released as soon as the statement finishes.
func (r *GormVehicleRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// Save inserts a vehicle. Used by seeders and tests.
func (r *GormVehicleRepository) Save(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model, err := toVehicleModel(v)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save vehicle: %w", err)
	}
	return nil
}

func (r *GormVehicleRepository) find(q *gorm.DB, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	var model VehicleModel
	if err := q.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("vehicle", id.String())
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	return toVehicleDomain(&model)
}

// --- Conversions ---

func toVehicleModel(v *vehicleDomain.Vehicle) (*VehicleModel, error) {
	locations := v.PickupLocations()
	if locations == nil {
		locations = []string{}
	}
	locationsJSON, err := json.Marshal(locations)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pickup locations: %w", err)
	}
	return &VehicleModel{
		ID:               v.ID(),
		Name:             v.Name(),
		DailyRateCents:   v.DailyRateCents(),
		WeeklyRateCents:  v.WeeklyRateCents(),
		MonthlyRateCents: v.MonthlyRateCents(),
		Available:        v.Available(),
		PickupLocations:  locationsJSON,
		CreatedAt:        v.CreatedAt(),
		UpdatedAt:        v.UpdatedAt(),
	}, nil
}

func toVehicleDomain(m *VehicleModel) (*vehicleDomain.Vehicle, error) {
	var locations []string
	if len(m.PickupLocations) > 0 {
		if err := json.Unmarshal(m.PickupLocations, &locations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pickup locations: %w", err)
		}
	}
	return vehicleDomain.Reconstruct(
		m.ID, m.Name,
		m.DailyRateCents, m.WeeklyRateCents, m.MonthlyRateCents,
		m.Available,
		locations,
		m.CreatedAt, m.UpdatedAt,
	), nil
}
