package repository

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-monetico-service/internal/domain"
	"github.com/LavaJover/shvark-monetico-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-monetico-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DefaultPaymentNotificationRepository struct {
	DB *gorm.DB
}

func NewDefaultPaymentNotificationRepository(db *gorm.DB) *DefaultPaymentNotificationRepository {
	return &DefaultPaymentNotificationRepository{DB: db}
}

func (r *DefaultPaymentNotificationRepository) Save(ctx context.Context, notification *domain.PaymentNotification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}

	model := mappers.ToGORMPaymentNotification(notification)
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateNotification
		}
		return err
	}
	return nil
}

func (r *DefaultPaymentNotificationRepository) FindByReference(ctx context.Context, reference string) ([]*domain.PaymentNotification, error) {
	var notificationModels []*models.PaymentNotificationModel
	if err := r.DB.WithContext(ctx).
		Where("reference = ?", reference).
		Order("received_at ASC").
		Find(&notificationModels).Error; err != nil {
		return nil, err
	}

	if len(notificationModels) == 0 {
		return nil, domain.ErrNotificationNotFound
	}

	notifications := make([]*domain.PaymentNotification, len(notificationModels))
	for i, model := range notificationModels {
		notifications[i] = mappers.ToDomainPaymentNotification(model)
	}
	return notifications, nil
}

func (r *DefaultPaymentNotificationRepository) FindByReferenceAndSeal(ctx context.Context, reference, seal string) (*domain.PaymentNotification, error) {
	var model models.PaymentNotificationModel
	if err := r.DB.WithContext(ctx).
		Where("reference = ? AND seal = ?", reference, seal).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	return mappers.ToDomainPaymentNotification(&model), nil
}

func (r *DefaultPaymentNotificationRepository) SaveRejection(ctx context.Context, rejection *domain.RejectedNotification) error {
	if rejection.ID == "" {
		rejection.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Create(mappers.ToGORMRejectedNotification(rejection)).Error
}
