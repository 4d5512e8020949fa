package repository

import (
	"context"
	"errors"

	"github.com/rmaciel/gestpay-api/internal/models"

	"gorm.io/gorm"
)

// SettingsRepository defines the interface for per-tenant settings access
type SettingsRepository interface {
	FindByTenant(ctx context.Context, tenantID uint) (*models.Settings, error)
	Upsert(ctx context.Context, settings *models.Settings) error
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) FindByTenant(ctx context.Context, tenantID uint) (*models.Settings, error) {
	var settings models.Settings
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *models.Settings) error {
	var existing models.Settings
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", settings.TenantID).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(settings).Error
	}
	if err != nil {
		return err
	}

	settings.ID = existing.ID
	return r.db.WithContext(ctx).Save(settings).Error
}
