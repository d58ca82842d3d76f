package repository

import (
	"context"

	"github.com/inkfinity/backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormSettingsRepository struct {
	db *gorm.DB
}

func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

func (r *GormSettingsRepository) Get(ctx context.Context) (*models.CompanySettings, error) {
	var s models.CompanySettings
	if err := r.db.WithContext(ctx).First(&s, "id = ?", models.SettingsRowID).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// Upsert writes the single settings row, inserting it on first save.
func (r *GormSettingsRepository) Upsert(ctx context.Context, settings *models.CompanySettings) error {
	settings.ID = models.SettingsRowID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(settings).Error
}
