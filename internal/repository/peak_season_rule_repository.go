package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetline/service-reservation/internal/domain/pricing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PeakSeasonRuleModel is the GORM model for the peak_season_rules table.
type PeakSeasonRuleModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name               string    `gorm:"type:varchar(200);not null"`
	StartDate          time.Time `gorm:"type:date;not null"`
	EndDate            time.Time `gorm:"type:date;not null"`
	Multiplier         *float64  `gorm:"type:numeric(6,3)"`
	FixedIncreaseCents *int64    `gorm:""`
	Active             bool      `gorm:"not null"`
	CreatedAt          time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (PeakSeasonRuleModel) TableName() string { return "peak_season_rules" }

// GormPeakSeasonRuleRepository reads peak season rules.
type GormPeakSeasonRuleRepository struct {
	db *gorm.DB
}

func NewGormPeakSeasonRuleRepository(db *gorm.DB) *GormPeakSeasonRuleRepository {
	return &GormPeakSeasonRuleRepository{db: db}
}

// ListActiveBetween returns active rules touching any calendar day of [from, to],
// oldest first.
func (r *GormPeakSeasonRuleRepository) ListActiveBetween(ctx context.Context, from, to time.Time) ([]pricing.PeakSeasonRule, error) {
	var models []PeakSeasonRuleModel
	if err := r.db.WithContext(ctx).
		Where("active = ? AND end_date >= ?::date AND start_date <= ?::date", true, from.UTC(), to.UTC()).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list peak season rules: %w", err)
	}

	rules := make([]pricing.PeakSeasonRule, len(models))
	for i := range models {
		rules[i] = toPeakSeasonRule(&models[i])
	}
	return rules, nil
}

// Save inserts a rule. Used by seeders and tests.
func (r *GormPeakSeasonRuleRepository) Save(ctx context.Context, rule pricing.PeakSeasonRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	model := toPeakSeasonRuleModel(rule)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save peak season rule: %w", err)
	}
	return nil
}

func toPeakSeasonRuleModel(rule pricing.PeakSeasonRule) PeakSeasonRuleModel {
	m := PeakSeasonRuleModel{
		ID:        rule.ID,
		Name:      rule.Name,
		StartDate: rule.StartDate,
		EndDate:   rule.EndDate,
		Active:    rule.Active,
		CreatedAt: rule.CreatedAt,
	}
	if rule.Multiplier != 0 {
		mult := rule.Multiplier
		m.Multiplier = &mult
	} else {
		inc := rule.FixedIncreaseCents
		m.FixedIncreaseCents = &inc
	}
	return m
}

func toPeakSeasonRule(m *PeakSeasonRuleModel) pricing.PeakSeasonRule {
	rule := pricing.PeakSeasonRule{
		ID:        m.ID,
		Name:      m.Name,
		StartDate: m.StartDate.UTC(),
		EndDate:   m.EndDate.UTC(),
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}
	if m.Multiplier != nil {
		rule.Multiplier = *m.Multiplier
	}
	if m.FixedIncreaseCents != nil {
		rule.FixedIncreaseCents = *m.FixedIncreaseCents
	}
	return rule
}
