package usecase

import (
	"context"
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/metrics"
	verificationdto "github.com/slabmarket/settlement-service/internal/usecase/dto/verification"
	escrowuc "github.com/slabmarket/settlement-service/internal/usecase/escrow"
)

type VerificationUsecase interface {
	RegisterInstance(ctx context.Context, input *verificationdto.RegisterInstanceInput) (*domain.CardInstance, error)
	GetInstanceByID(instanceID string) (*domain.CardInstance, error)

	Claim(ctx context.Context, adminID, instanceID string) error
	Unclaim(ctx context.Context, adminID, instanceID string) error
	Complete(ctx context.Context, input *verificationdto.CompleteVerificationInput) error
	Queue(input *verificationdto.QueueInput) ([]*domain.CardInstance, int64, error)
	LookupCert(ctx context.Context, gradingCompany, certNumber string) (*domain.CertRecord, error)

	ExpireStaleClaims(ctx context.Context, ttl time.Duration) (int, error)
}

type DefaultVerificationUsecase struct {
	CardRepo domain.CardInstanceRepository
	TradeRepo domain.TradeRepository
	EscrowUc escrowuc.EscrowUsecase
	Registry domain.GradingRegistry
	Metrics  *metrics.SettlementMetrics

	// ReleaseRequiresDelivery defers release to outbound delivery; when false
	// an approved verification settles the trade immediately.
	ReleaseRequiresDelivery bool
}

func NewDefaultVerificationUsecase(
	cardRepo domain.CardInstanceRepository,
	tradeRepo domain.TradeRepository,
	escrowUsecase escrowuc.EscrowUsecase,
	registry domain.GradingRegistry,
	settlementMetrics *metrics.SettlementMetrics,
	releaseRequiresDelivery bool) *DefaultVerificationUsecase {

	return &DefaultVerificationUsecase{
		CardRepo:                cardRepo,
		TradeRepo:               tradeRepo,
		EscrowUc:                escrowUsecase,
		Registry:                registry,
		Metrics:                 settlementMetrics,
		ReleaseRequiresDelivery: releaseRequiresDelivery,
	}
}
