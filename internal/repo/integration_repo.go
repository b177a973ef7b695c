// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// IntegrationSetting model.
//
// Integration rows follow a get-or-create discipline: the first read of a
// named integration materializes a disabled row with empty credentials, so
// callers never have to special-case "row missing yet". At most one row
// exists per name (unique index).
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
)

// GetOrCreateIntegration returns the setting row for the given integration
// name, creating a disabled row with well-defined defaults if none exists.
//
// The create path races benignly under concurrency: if another request
// inserts the row first, the unique index rejects the second insert and we
// re-read the winner.
func GetOrCreateIntegration(ctx context.Context, db *gorm.DB, name string) (*domain.IntegrationSetting, error) {
	var s domain.IntegrationSetting
	err := db.WithContext(ctx).Where("name = ?", name).First(&s).Error
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	s = domain.IntegrationSetting{
		ID:        uuid.NewString(),
		Name:      name,
		Enabled:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(&s).Error; err != nil {
		// Lost the insert race: fall back to the row that won.
		var again domain.IntegrationSetting
		if err2 := db.WithContext(ctx).Where("name = ?", name).First(&again).Error; err2 == nil {
			return &again, nil
		}
		return nil, err
	}
	return &s, nil
}

// UpdateIntegration applies the given column changes to the named integration
// row and refreshes updated_at. The row is get-or-created first so updates to
// a never-read integration still land.
func UpdateIntegration(ctx context.Context, db *gorm.DB, name string, changes map[string]any) (*domain.IntegrationSetting, error) {
	s, err := GetOrCreateIntegration(ctx, db, name)
	if err != nil {
		return nil, err
	}
	changes["updated_at"] = time.Now().UTC()
	if err := db.WithContext(ctx).Model(s).Updates(changes).Error; err != nil {
		return nil, err
	}
	return s, nil
}
