package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/slabmarket/settlement-service/internal/domain"
	shipmentdto "github.com/slabmarket/settlement-service/internal/usecase/dto/shipment"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UpdateStatus advances a shipment through its tracking states and drives the
// trade forward on delivery: an inbound delivery opens verification, an
// outbound delivery settles the trade when the release policy waits for it.
func (uc *DefaultShipmentUsecase) UpdateStatus(ctx context.Context, input *shipmentdto.UpdateShipmentStatusInput) (*domain.Shipment, error) {
	shipment, err := uc.ShipmentRepo.GetShipmentByID(input.ShipmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "shipment not found")
		}
		return nil, status.Errorf(codes.Internal, "failed to load shipment: %v", err)
	}

	if !shipment.Status.CanTransitionTo(input.NextStatus) {
		return nil, status.Errorf(codes.InvalidArgument, "shipment cannot move from %s to %s", shipment.Status, input.NextStatus)
	}

	err = uc.ShipmentRepo.UpdateShipmentStatus(shipment.ID, shipment.Status, input.NextStatus, input.Notes)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, status.Error(codes.Aborted, "shipment status changed concurrently")
		}
		return nil, status.Errorf(codes.Internal, "failed to update shipment: %v", err)
	}

	shipment.Status = input.NextStatus
	if input.Notes != "" {
		shipment.Notes = input.Notes
	}
	uc.recordShipmentUpdate(shipment.Direction, shipment.Status)

	if err := uc.applyDeliveryEffects(ctx, shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

func (uc *DefaultShipmentUsecase) applyDeliveryEffects(ctx context.Context, shipment *domain.Shipment) error {
	switch shipment.Status {
	case domain.ShipmentDelivered:
	case domain.ShipmentReturned, domain.ShipmentException:
		slog.Warn("shipment went terminal without delivery",
			"shipment_id", shipment.ID,
			"trade_id", shipment.TradeID,
			"direction", string(shipment.Direction),
			"status", string(shipment.Status),
		)
		return nil
	default:
		return nil
	}

	if shipment.Direction == domain.DirectionInbound {
		err := uc.TradeRepo.UpdateTradeStatus(shipment.TradeID, domain.TradeAwaitingShipment, domain.TradeAwaitingVerification)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				// A dispute or cancellation moved the trade meanwhile.
				slog.Info("inbound delivery recorded, trade already left AWAITING_SHIPMENT", "trade_id", shipment.TradeID)
				return nil
			}
			return status.Errorf(codes.Internal, "failed to advance trade: %v", err)
		}
		return nil
	}

	trade, err := uc.TradeRepo.GetTradeByID(shipment.TradeID)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to load trade: %v", err)
	}
	if trade.Status != domain.TradeAwaitingVerification {
		return nil
	}
	return uc.EscrowUc.ReleaseIfEligible(ctx, trade, "delivery")
}
