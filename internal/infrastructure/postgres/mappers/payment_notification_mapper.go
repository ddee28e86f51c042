package mappers

import (
	"github.com/LavaJover/shvark-monetico-service/internal/domain"
	"github.com/LavaJover/shvark-monetico-service/internal/infrastructure/postgres/models"
)

func ToDomainPaymentNotification(model *models.PaymentNotificationModel) *domain.PaymentNotification {
	return &domain.PaymentNotification{
		ID:                   model.ID,
		EPTCode:              model.EPTCode,
		Reference:            model.Reference,
		Amount:               model.Amount,
		ReturnCode:           model.ReturnCode,
		Status:               model.Status,
		Installment:          model.Installment,
		Test:                 model.Test,
		CardBrand:            model.CardBrand,
		PaymentMethod:        model.PaymentMethod,
		RejectReason:         model.RejectReason,
		AuthenticationStatus: model.AuthenticationStatus,
		Seal:                 model.Seal,
		Fields:               model.Fields,
		NotifiedAt:           model.NotifiedAt,
		ReceivedAt:           model.ReceivedAt,
	}
}

func ToGORMPaymentNotification(notification *domain.PaymentNotification) *models.PaymentNotificationModel {
	return &models.PaymentNotificationModel{
		ID:                   notification.ID,
		EPTCode:              notification.EPTCode,
		Reference:            notification.Reference,
		Seal:                 notification.Seal,
		Amount:               notification.Amount,
		ReturnCode:           notification.ReturnCode,
		Status:               notification.Status,
		Installment:          notification.Installment,
		Test:                 notification.Test,
		CardBrand:            notification.CardBrand,
		PaymentMethod:        notification.PaymentMethod,
		RejectReason:         notification.RejectReason,
		AuthenticationStatus: notification.AuthenticationStatus,
		Fields:               notification.Fields,
		NotifiedAt:           notification.NotifiedAt,
		ReceivedAt:           notification.ReceivedAt,
	}
}

func ToGORMRejectedNotification(rejection *domain.RejectedNotification) *models.RejectedNotificationModel {
	return &models.RejectedNotificationModel{
		ID:         rejection.ID,
		RequestID:  rejection.RequestID,
		Reference:  rejection.Reference,
		Kind:       rejection.Kind,
		Field:      rejection.Field,
		Reason:     rejection.Reason,
		Fields:     rejection.Fields,
		ReceivedAt: rejection.ReceivedAt,
	}
}
