package mappers

import (
	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/models"
)

func ToDomainOrder(model *models.OrderModel) *domain.Order {
	return &domain.Order{
		ID:             model.ID,
		UserID:         model.UserID,
		CardID:         model.CardID,
		CardInstanceID: model.CardInstanceID,
		Side:           model.Side,
		LimitPrice:     model.LimitPrice,
		Status:         model.Status,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func ToGORMOrder(order *domain.Order) *models.OrderModel {
	return &models.OrderModel{
		ID:             order.ID,
		UserID:         order.UserID,
		CardID:         order.CardID,
		CardInstanceID: order.CardInstanceID,
		Side:           order.Side,
		LimitPrice:     order.LimitPrice,
		Status:         order.Status,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}
