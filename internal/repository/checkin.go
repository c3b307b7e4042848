package repository

import (
	"context"

	"gorm.io/gorm"

	"Podyom/internal/model"
)

func CreateCheckIn(ctx context.Context, db *gorm.DB, c *model.CheckIn) error {
	return db.WithContext(ctx).Create(c).Error
}

func GetCheckInByID(ctx context.Context, db *gorm.DB, id int64) (*model.CheckIn, error) {
	var c model.CheckIn
	err := db.WithContext(ctx).First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func UpdateCheckInStatus(ctx context.Context, db *gorm.DB, id int64, status model.CheckInStatus, rejectReason string) error {
	updates := map[string]interface{}{"status": status}
	if rejectReason != "" {
		updates["reject_reason"] = rejectReason
	}
	return db.WithContext(ctx).
		Model(&model.CheckIn{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func SetCheckInTranscript(ctx context.Context, db *gorm.DB, id int64, transcript string) error {
	return db.WithContext(ctx).
		Model(&model.CheckIn{}).
		Where("id = ?", id).
		Update("transcript", transcript).Error
}

// HasAcceptedTapForDate reports whether the user has an approved
// group-tap check-in for the local date.
func HasAcceptedTapForDate(ctx context.Context, db *gorm.DB, userID, challengeID int64, localDate string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&model.CheckIn{}).
		Where("user_id = ? AND challenge_id = ? AND local_date = ? AND source = ? AND status = ?",
			userID, challengeID, localDate, model.CheckInSourceGroupTap, model.CheckInStatusApproved).
		Count(&count).Error
	return count > 0, err
}

// HasReportForDate reports whether a non-rejected voice/text check-in
// already exists for the local date. Pending counts: a report under
// anti-cheat review still blocks a second one.
func HasReportForDate(ctx context.Context, db *gorm.DB, userID, challengeID int64, localDate string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&model.CheckIn{}).
		Where("user_id = ? AND challenge_id = ? AND local_date = ? AND source IN ? AND status IN ?",
			userID, challengeID, localDate,
			[]model.CheckInSource{model.CheckInSourceVoice, model.CheckInSourceText},
			[]model.CheckInStatus{model.CheckInStatusPending, model.CheckInStatusApproved}).
		Count(&count).Error
	return count > 0, err
}
