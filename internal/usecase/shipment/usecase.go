package usecase

import (
	"context"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/metrics"
	shipmentdto "github.com/slabmarket/settlement-service/internal/usecase/dto/shipment"
	escrowuc "github.com/slabmarket/settlement-service/internal/usecase/escrow"
)

type ShipmentUsecase interface {
	Create(ctx context.Context, input *shipmentdto.CreateShipmentInput) (*domain.Shipment, error)
	UpdateStatus(ctx context.Context, input *shipmentdto.UpdateShipmentStatusInput) (*domain.Shipment, error)
	GetShipmentByID(shipmentID string) (*domain.Shipment, error)
	ListByTradeID(tradeID string) ([]*domain.Shipment, error)
}

type DefaultShipmentUsecase struct {
	ShipmentRepo domain.ShipmentRepository
	TradeRepo    domain.TradeRepository
	CardRepo     domain.CardInstanceRepository
	EscrowUc     escrowuc.EscrowUsecase
	Metrics      *metrics.SettlementMetrics
}

func NewDefaultShipmentUsecase(
	shipmentRepo domain.ShipmentRepository,
	tradeRepo domain.TradeRepository,
	cardRepo domain.CardInstanceRepository,
	escrowUsecase escrowuc.EscrowUsecase,
	settlementMetrics *metrics.SettlementMetrics) *DefaultShipmentUsecase {

	return &DefaultShipmentUsecase{
		ShipmentRepo: shipmentRepo,
		TradeRepo:    tradeRepo,
		CardRepo:     cardRepo,
		EscrowUc:     escrowUsecase,
		Metrics:      settlementMetrics,
	}
}

func (uc *DefaultShipmentUsecase) recordShipmentUpdate(direction domain.ShipmentDirection, status domain.ShipmentStatus) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordShipmentUpdate(string(direction), string(status))
}
