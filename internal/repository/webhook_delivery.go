package repository

import (
	"context"
	"elearning-storefront/internal/model"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WebhookDeliveryRepository interface {
	Record(ctx context.Context, notificationType, paymentID, outcome, detail string) error
	CountByPaymentID(ctx context.Context, paymentID string) (int64, error)
}

type webhookDeliveryRepoImpl struct {
	db *gorm.DB
}

func NewWebhookDeliveryRepository(db *gorm.DB) WebhookDeliveryRepository {
	return &webhookDeliveryRepoImpl{db: db}
}

func (r *webhookDeliveryRepoImpl) Record(ctx context.Context, notificationType, paymentID, outcome, detail string) error {
	return r.db.WithContext(ctx).Create(&model.WebhookDelivery{
		ID:        uuid.NewString(),
		Type:      notificationType,
		PaymentID: paymentID,
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: time.Now(),
	}).Error
}

func (r *webhookDeliveryRepoImpl) CountByPaymentID(ctx context.Context, paymentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WebhookDelivery{}).
		Where("payment_id = ?", paymentID).
		Count(&count).Error

	return count, err
}
