package usecase

import (
	"context"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/kafka"
	"github.com/slabmarket/settlement-service/internal/infrastructure/metrics"
)

type TradeEventPublisher interface {
	PublishTrade(event kafka.TradeEvent) error
}

// EscrowUsecase owns every movement of held funds. All money leaves HELD
// through exactly one of Release/Cancel (or their *From variants used by the
// dispute workflow), never twice.
type EscrowUsecase interface {
	Authorize(ctx context.Context, trade *domain.Trade) (*domain.Escrow, func() (string, error))
	Release(ctx context.Context, tradeID string) error
	ReleaseFrom(ctx context.Context, trade *domain.Trade, expectedTrade domain.TradeStatus, trigger string) error
	ReleaseIfEligible(ctx context.Context, trade *domain.Trade, trigger string) error
	Cancel(ctx context.Context, tradeID, reason string, refundAmount *int64) error
	RefundFrom(ctx context.Context, trade *domain.Trade, expectedTrade domain.TradeStatus, reason string, refundAmount *int64) error
	GetEscrowByTradeID(tradeID string) (*domain.Escrow, error)
}

type DefaultEscrowUsecase struct {
	EscrowRepo   domain.EscrowRepository
	TradeRepo    domain.TradeRepository
	CardRepo     domain.CardInstanceRepository
	DisputeRepo  domain.DisputeRepository
	ShipmentRepo domain.ShipmentRepository
	Gateway      domain.PaymentGateway
	Publisher    TradeEventPublisher
	Metrics      *metrics.SettlementMetrics
}

func NewDefaultEscrowUsecase(
	escrowRepo domain.EscrowRepository,
	tradeRepo domain.TradeRepository,
	cardRepo domain.CardInstanceRepository,
	disputeRepo domain.DisputeRepository,
	shipmentRepo domain.ShipmentRepository,
	gateway domain.PaymentGateway,
	publisher TradeEventPublisher,
	settlementMetrics *metrics.SettlementMetrics) *DefaultEscrowUsecase {

	return &DefaultEscrowUsecase{
		EscrowRepo:   escrowRepo,
		TradeRepo:    tradeRepo,
		CardRepo:     cardRepo,
		DisputeRepo:  disputeRepo,
		ShipmentRepo: shipmentRepo,
		Gateway:      gateway,
		Publisher:    publisher,
		Metrics:      settlementMetrics,
	}
}

func (uc *DefaultEscrowUsecase) GetEscrowByTradeID(tradeID string) (*domain.Escrow, error) {
	return uc.EscrowRepo.GetEscrowByTradeID(tradeID)
}
