package repository

import (
	"context"

	"gorm.io/gorm"

	"Podyom/internal/model"
)

func ListPaidPayments(ctx context.Context, db *gorm.DB, userID int64) ([]model.Payment, error) {
	var out []model.Payment
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.PaymentStatusPaid).
		Order("paid_at ASC").
		Find(&out).Error
	return out, err
}

func CreatePayment(ctx context.Context, db *gorm.DB, p *model.Payment) error {
	return db.WithContext(ctx).Create(p).Error
}

func HasAnyPaidPayment(ctx context.Context, db *gorm.DB, userID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("user_id = ? AND status = ?", userID, model.PaymentStatusPaid).
		Count(&count).Error
	return count > 0, err
}
