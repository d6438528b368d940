package shipmentdto

import "github.com/slabmarket/settlement-service/internal/domain"

type CreateShipmentInput struct {
	TradeID        string
	Direction      domain.ShipmentDirection
	TrackingNumber string
	Carrier        string
}

type UpdateShipmentStatusInput struct {
	ShipmentID string
	NextStatus domain.ShipmentStatus
	Notes      string
}
