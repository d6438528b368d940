package usecase

import (
	"context"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/kafka"
	"github.com/slabmarket/settlement-service/internal/infrastructure/metrics"
	disputedto "github.com/slabmarket/settlement-service/internal/usecase/dto/dispute"
	escrowuc "github.com/slabmarket/settlement-service/internal/usecase/escrow"
)

type DisputePublisher interface {
	PublishDispute(event kafka.DisputeEvent) error
}

type DisputeUsecase interface {
	Open(ctx context.Context, input *disputedto.OpenDisputeInput) (*domain.Dispute, error)
	Resolve(ctx context.Context, input *disputedto.ResolveDisputeInput) error
	GetDisputeByID(disputeID string) (*domain.Dispute, error)
	ListDisputes(filters domain.DisputeFilters, page, limit int64) ([]*domain.Dispute, int64, error)
}

type DefaultDisputeUsecase struct {
	DisputeRepo domain.DisputeRepository
	TradeRepo   domain.TradeRepository
	CardRepo    domain.CardInstanceRepository
	EscrowUc    escrowuc.EscrowUsecase
	Publisher   DisputePublisher
	Metrics     *metrics.SettlementMetrics
}

func NewDefaultDisputeUsecase(
	disputeRepo domain.DisputeRepository,
	tradeRepo domain.TradeRepository,
	cardRepo domain.CardInstanceRepository,
	escrowUsecase escrowuc.EscrowUsecase,
	publisher DisputePublisher,
	settlementMetrics *metrics.SettlementMetrics) *DefaultDisputeUsecase {

	return &DefaultDisputeUsecase{
		DisputeRepo: disputeRepo,
		TradeRepo:   tradeRepo,
		CardRepo:    cardRepo,
		EscrowUc:    escrowUsecase,
		Publisher:   publisher,
		Metrics:     settlementMetrics,
	}
}
