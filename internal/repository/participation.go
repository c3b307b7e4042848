package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"Podyom/internal/model"
)

func GetParticipation(ctx context.Context, db *gorm.DB, userID, challengeID int64) (*model.Participation, error) {
	var p model.Participation
	err := db.WithContext(ctx).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func GetParticipationByID(ctx context.Context, db *gorm.DB, id int64) (*model.Participation, error) {
	var p model.Participation
	err := db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAnyParticipation returns the newest participation for a user
// across challenges, active or not.
func GetAnyParticipation(ctx context.Context, db *gorm.DB, userID int64) (*model.Participation, error) {
	var p model.Participation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func CreateParticipation(ctx context.Context, db *gorm.DB, p *model.Participation) error {
	return db.WithContext(ctx).Create(p).Error
}

func SaveParticipation(ctx context.Context, db *gorm.DB, p *model.Participation) error {
	return db.WithContext(ctx).Save(p).Error
}

// ListActiveFixedParticipations returns all active fixed-wake rows of
// a challenge, the Penalty Sweep's working set.
func ListActiveFixedParticipations(ctx context.Context, db *gorm.DB, challengeID int64) ([]model.Participation, error) {
	var out []model.Participation
	err := db.WithContext(ctx).
		Where("challenge_id = ? AND wake_mode = ? AND left_at IS NULL", challengeID, model.WakeModeFixed).
		Find(&out).Error
	return out, err
}

// ListParticipations returns every row of a challenge including left
// ones; the Subscription Sweep needs those for the final removal step.
func ListParticipations(ctx context.Context, db *gorm.DB, challengeID int64) ([]model.Participation, error) {
	var out []model.Participation
	err := db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Find(&out).Error
	return out, err
}

// StopParticipation sets left_at once. Already-left rows are left
// untouched so the timestamp stays monotonic.
func StopParticipation(ctx context.Context, db *gorm.DB, id int64, at time.Time) error {
	return db.WithContext(ctx).
		Model(&model.Participation{}).
		Where("id = ? AND left_at IS NULL", id).
		Update("left_at", at).Error
}
