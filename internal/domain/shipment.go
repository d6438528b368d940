package domain

import "time"

type ShipmentDirection string

const (
	DirectionInbound  ShipmentDirection = "INBOUND"
	DirectionOutbound ShipmentDirection = "OUTBOUND"
)

type ShipmentStatus string

const (
	ShipmentLabelCreated ShipmentStatus = "LABEL_CREATED"
	ShipmentShipped      ShipmentStatus = "SHIPPED"
	ShipmentInTransit    ShipmentStatus = "IN_TRANSIT"
	ShipmentDelivered    ShipmentStatus = "DELIVERED"
	ShipmentReturned     ShipmentStatus = "RETURNED"
	ShipmentException    ShipmentStatus = "EXCEPTION"
)

type Shipment struct {
	ID             string
	TradeID        string
	CardInstanceID string
	Direction      ShipmentDirection
	Status         ShipmentStatus
	TrackingNumber string
	Carrier        string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// shipmentRank orders the linear forward progression. RETURNED and EXCEPTION
// are absorbing and reachable from any non-DELIVERED state.
var shipmentRank = map[ShipmentStatus]int{
	ShipmentLabelCreated: 0,
	ShipmentShipped:      1,
	ShipmentInTransit:    2,
	ShipmentDelivered:    3,
}

func (s ShipmentStatus) Absorbing() bool {
	return s == ShipmentReturned || s == ShipmentException || s == ShipmentDelivered
}

// CanTransitionTo reports whether a shipment may move from s to next.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	if s == ShipmentReturned || s == ShipmentException {
		return false
	}
	if next == ShipmentReturned || next == ShipmentException {
		return s != ShipmentDelivered
	}
	from, ok := shipmentRank[s]
	to, ok2 := shipmentRank[next]
	if !ok || !ok2 {
		return false
	}
	return to == from+1
}

type ShipmentRepository interface {
	CreateShipment(shipment *Shipment) error
	GetShipmentByID(shipmentID string) (*Shipment, error)
	// GetShipmentByTradeAndDirection returns the latest leg for the
	// direction, or ErrNotFound.
	GetShipmentByTradeAndDirection(tradeID string, direction ShipmentDirection) (*Shipment, error)
	// UpdateShipmentStatus commits only if the stored status equals expected.
	// Empty notes leave the stored notes untouched.
	UpdateShipmentStatus(shipmentID string, expected, next ShipmentStatus, notes string) error
	// MarkTradeShipmentsException flags all in-flight shipments of a trade as
	// EXCEPTION. Used by the cancellation cascade.
	MarkTradeShipmentsException(tradeID string) error
	ListShipmentsByTradeID(tradeID string) ([]*Shipment, error)
}
