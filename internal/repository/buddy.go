package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"Podyom/internal/model"
)

// GetActiveBuddyPair returns the active pair holding the
// participation, or nil when unpaired.
func GetActiveBuddyPair(ctx context.Context, db *gorm.DB, participationID int64) (*model.BuddyPair, error) {
	var pair model.BuddyPair
	err := db.WithContext(ctx).
		Where("status = ? AND (participation_a_id = ? OR participation_b_id = ?)",
			model.BuddyPairStatusActive, participationID, participationID).
		First(&pair).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func CreateBuddyPair(ctx context.Context, db *gorm.DB, pair *model.BuddyPair) error {
	return db.WithContext(ctx).Create(pair).Error
}

func DeactivateBuddyPair(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).
		Model(&model.BuddyPair{}).
		Where("id = ?", id).
		Update("status", model.BuddyPairStatusInactive).Error
}
