package repository

import (
	"context"

	"gorm.io/gorm"

	"Podyom/internal/model"
)

func CreateAntiCheat(ctx context.Context, db *gorm.DB, c *model.AntiCheatChallenge) error {
	return db.WithContext(ctx).Create(c).Error
}

// GetPendingAntiCheatForUser returns the user's open challenge if one
// exists; direct messages are multiplexed through this lookup.
func GetPendingAntiCheatForUser(ctx context.Context, db *gorm.DB, userID int64) (*model.AntiCheatChallenge, error) {
	var c model.AntiCheatChallenge
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.AntiCheatStatusPending).
		Order("id DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func SaveAntiCheat(ctx context.Context, db *gorm.DB, c *model.AntiCheatChallenge) error {
	return db.WithContext(ctx).Save(c).Error
}
