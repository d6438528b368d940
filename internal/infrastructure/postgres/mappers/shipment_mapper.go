package mappers

import (
	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/models"
)

func ToDomainShipment(model *models.ShipmentModel) *domain.Shipment {
	return &domain.Shipment{
		ID:             model.ID,
		TradeID:        model.TradeID,
		CardInstanceID: model.CardInstanceID,
		Direction:      model.Direction,
		Status:         model.Status,
		TrackingNumber: model.TrackingNumber,
		Carrier:        model.Carrier,
		Notes:          model.Notes,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func ToGORMShipment(shipment *domain.Shipment) *models.ShipmentModel {
	return &models.ShipmentModel{
		ID:             shipment.ID,
		TradeID:        shipment.TradeID,
		CardInstanceID: shipment.CardInstanceID,
		Direction:      shipment.Direction,
		Status:         shipment.Status,
		TrackingNumber: shipment.TrackingNumber,
		Carrier:        shipment.Carrier,
		Notes:          shipment.Notes,
		CreatedAt:      shipment.CreatedAt,
		UpdatedAt:      shipment.UpdatedAt,
	}
}
