package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/slabmarket/settlement-service/internal/domain"
	shipmentdto "github.com/slabmarket/settlement-service/internal/usecase/dto/shipment"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Create registers a shipment leg for a trade. Inbound legs (seller to the
// verification facility) require AWAITING_SHIPMENT; outbound legs (facility
// to buyer) require AWAITING_VERIFICATION with a verified card. At most one
// leg per direction may be in flight; a replacement cycle starts a fresh
// inbound leg after the previous one went terminal.
func (uc *DefaultShipmentUsecase) Create(ctx context.Context, input *shipmentdto.CreateShipmentInput) (*domain.Shipment, error) {
	if input.TrackingNumber == "" || input.Carrier == "" {
		return nil, status.Error(codes.InvalidArgument, "tracking_number and carrier are required")
	}
	if input.Direction != domain.DirectionInbound && input.Direction != domain.DirectionOutbound {
		return nil, status.Errorf(codes.InvalidArgument, "unknown shipment direction: %s", input.Direction)
	}

	trade, err := uc.TradeRepo.GetTradeByID(input.TradeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "trade not found")
		}
		return nil, status.Errorf(codes.Internal, "failed to load trade: %v", err)
	}

	switch input.Direction {
	case domain.DirectionInbound:
		if trade.Status != domain.TradeAwaitingShipment {
			return nil, status.Errorf(codes.FailedPrecondition, "trade is %s, inbound shipments require AWAITING_SHIPMENT", trade.Status)
		}
	case domain.DirectionOutbound:
		if trade.Status != domain.TradeAwaitingVerification {
			return nil, status.Errorf(codes.FailedPrecondition, "trade is %s, outbound shipments require AWAITING_VERIFICATION", trade.Status)
		}
		instance, err := uc.CardRepo.GetCardInstanceByID(trade.CardInstanceID)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "failed to load card instance: %v", err)
		}
		if instance.Status != domain.CardVerified {
			return nil, status.Error(codes.FailedPrecondition, "outbound shipment requires a verified card")
		}
	}

	last, err := uc.ShipmentRepo.GetShipmentByTradeAndDirection(trade.ID, input.Direction)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, status.Errorf(codes.Internal, "failed to check shipments: %v", err)
	}
	if err == nil && !last.Status.Absorbing() {
		return nil, status.Errorf(codes.FailedPrecondition, "trade already has an in-flight %s shipment", input.Direction)
	}

	shipment := &domain.Shipment{
		ID:             uuid.New().String(),
		TradeID:        trade.ID,
		CardInstanceID: trade.CardInstanceID,
		Direction:      input.Direction,
		Status:         domain.ShipmentLabelCreated,
		TrackingNumber: input.TrackingNumber,
		Carrier:        input.Carrier,
		CreatedAt:      time.Now(),
	}

	if err := uc.ShipmentRepo.CreateShipment(shipment); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to create shipment: %v", err)
	}

	uc.recordShipmentUpdate(shipment.Direction, shipment.Status)
	return shipment, nil
}

func (uc *DefaultShipmentUsecase) GetShipmentByID(shipmentID string) (*domain.Shipment, error) {
	shipment, err := uc.ShipmentRepo.GetShipmentByID(shipmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "shipment not found")
		}
		return nil, status.Errorf(codes.Internal, "failed to load shipment: %v", err)
	}
	return shipment, nil
}

func (uc *DefaultShipmentUsecase) ListByTradeID(tradeID string) ([]*domain.Shipment, error) {
	shipments, err := uc.ShipmentRepo.ListShipmentsByTradeID(tradeID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to list shipments: %v", err)
	}
	return shipments, nil
}
