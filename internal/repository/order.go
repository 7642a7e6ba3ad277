package repository

import (
	"context"
	"elearning-storefront/internal/model"
	"time"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByPreferenceID(ctx context.Context, preferenceID string) (*model.Order, error)
	// MarkGranted flags the newest order matching the payment's course
	// reference and payer email. Payments created outside the checkout flow
	// have no order row, that is not an error.
	MarkGranted(ctx context.Context, courseRef, payerEmail, paymentID string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByPreferenceID(ctx context.Context, preferenceID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("preference_id = ?", preferenceID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) MarkGranted(ctx context.Context, courseRef, payerEmail, paymentID string) error {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("course_ref = ? AND payer_email = ?", courseRef, payerEmail).
		Order("created_at DESC").
		First(&order).Error

	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&order).
		Updates(map[string]interface{}{
			"payment_id": paymentID,
			"status":     model.OrderStatusGranted,
			"updated_at": time.Now(),
		}).Error
}
