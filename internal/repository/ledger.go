package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Podyom/internal/model"
)

// AppendMarker inserts an idempotency marker. Returns true when this
// call inserted the row, false when the marker already existed.
func AppendMarker(ctx context.Context, db *gorm.DB, userID, challengeID int64, reason, note string) (bool, error) {
	entry := model.LedgerEntry{
		UserID:      userID,
		ChallengeID: challengeID,
		Reason:      reason,
		Note:        note,
	}

	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "challenge_id"}, {Name: "reason"}},
			DoNothing: true,
		}).
		Create(&entry)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func HasMarker(ctx context.Context, db *gorm.DB, userID, challengeID int64, reason string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&model.LedgerEntry{}).
		Where("user_id = ? AND challenge_id = ? AND reason = ?", userID, challengeID, reason).
		Count(&count).Error
	return count > 0, err
}

// CountMarkersByKind counts markers whose reason starts with
// "<kind>:". Escalation level derives from the miss count this way.
func CountMarkersByKind(ctx context.Context, db *gorm.DB, userID, challengeID int64, kind string) (int, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&model.LedgerEntry{}).
		Where("user_id = ? AND challenge_id = ? AND reason LIKE ?", userID, challengeID, kind+":%").
		Count(&count).Error
	return int(count), err
}

// ListMarkersByKind returns every marker of a kind for a challenge,
// oldest first.
func ListMarkersByKind(ctx context.Context, db *gorm.DB, challengeID int64, kind string) ([]model.LedgerEntry, error) {
	var out []model.LedgerEntry
	err := db.WithContext(ctx).
		Where("challenge_id = ? AND reason LIKE ?", challengeID, kind+":%").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// DateReason builds a date-scoped marker reason.
func DateReason(kind, localDate string) string {
	return kind + ":" + localDate
}

// ReasonKind extracts the kind prefix of a marker reason.
func ReasonKind(reason string) string {
	if i := strings.IndexByte(reason, ':'); i >= 0 {
		return reason[:i]
	}
	return reason
}
