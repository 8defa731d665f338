package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DEVector-it/mythai.github.io/internal/model"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns the stored value, or "" when the key was never set.
func (r *SettingRepository) Get(key string) (string, error) {
	var setting model.Setting
	if err := r.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("query setting failed: %w", err)
	}
	return setting.Value, nil
}

// Has reports whether the key was ever written, distinguishing a
// missing row from one holding an empty value.
func (r *SettingRepository) Has(key string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Setting{}).Where("key = ?", key).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check setting failed: %w", err)
	}
	return count > 0, nil
}

func (r *SettingRepository) Set(key, value string) error {
	setting := model.Setting{Key: key, Value: value}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("set setting failed: %w", err)
	}
	return nil
}
