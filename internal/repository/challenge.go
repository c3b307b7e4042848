package repository

import (
	"context"

	"gorm.io/gorm"

	"Podyom/internal/model"
)

// GetActiveChallenge returns the single currently active challenge.
func GetActiveChallenge(ctx context.Context, db *gorm.DB) (*model.Challenge, error) {
	var challenge model.Challenge
	err := db.WithContext(ctx).
		Where("status = ?", model.ChallengeStatusActive).
		Order("id DESC").
		First(&challenge).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

func GetChallengeByID(ctx context.Context, db *gorm.DB, id int64) (*model.Challenge, error) {
	var challenge model.Challenge
	err := db.WithContext(ctx).First(&challenge, id).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

func SetChallengeEnabled(ctx context.Context, db *gorm.DB, id int64, enabled bool) error {
	return db.WithContext(ctx).
		Model(&model.Challenge{}).
		Where("id = ?", id).
		Update("enabled", enabled).Error
}
