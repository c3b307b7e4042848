// Package repository holds thin gorm query helpers per aggregate.
// Services pass their own *gorm.DB so tests can run against sqlite.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"Podyom/internal/model"
)

func GetUserByTelegramID(ctx context.Context, db *gorm.DB, telegramID int64) (*model.User, error) {
	var user model.User
	err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByID(ctx context.Context, db *gorm.DB, id int64) (*model.User, error) {
	var user model.User
	err := db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureUser returns the user for a telegram id, creating it on first
// contact with the default timezone.
func EnsureUser(ctx context.Context, db *gorm.DB, telegramID int64, username, firstName, defaultTZ string) (*model.User, bool, error) {
	user, err := GetUserByTelegramID(ctx, db, telegramID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user = &model.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		Timezone:   defaultTZ,
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func TouchLastSeen(ctx context.Context, db *gorm.DB, userID int64, at time.Time) error {
	return db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_seen_at", at).Error
}

func UpdateUserTimezone(ctx context.Context, db *gorm.DB, userID int64, tz string) error {
	return db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("timezone", tz).Error
}
