package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/kafka"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// EscrowOperation describes one critical escrow transition: the escrow and
// trade compare-and-swap pair plus the gateway call that must commit with it.
type EscrowOperation struct {
	Operation  string
	EscrowID   string
	EscrowFrom domain.EscrowStatus
	EscrowTo   domain.EscrowStatus
	TradeID    string
	TradeFrom  domain.TradeStatus
	TradeTo    domain.TradeStatus
	GatewayOp  func() error
	CreatedAt  time.Time
}

// ProcessEscrowOperation runs the operation through the repository's critical
// section and translates store sentinels into the wire taxonomy. A conflict
// means the escrow or trade already left the expected state, so the gateway
// was never called.
func (uc *DefaultEscrowUsecase) ProcessEscrowOperation(ctx context.Context, op *EscrowOperation) error {
	err := uc.EscrowRepo.ProcessEscrowCriticalOperation(
		op.EscrowID, op.EscrowFrom, op.EscrowTo,
		op.TradeID, op.TradeFrom, op.TradeTo,
		op.GatewayOp,
	)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "escrow not found")
	case errors.Is(err, domain.ErrConflict):
		uc.recordEscrowConflict(op.Operation)
		slog.Warn("escrow operation rejected on state conflict",
			"operation", op.Operation,
			"trade_id", op.TradeID,
			"escrow_id", op.EscrowID,
		)
		return status.Error(codes.FailedPrecondition, "escrow already settled")
	default:
		opErr := domain.ErrReleaseFailed
		if op.Operation == "refund" {
			opErr = domain.ErrRefundFailed
		}
		return status.Errorf(codes.Internal, "%v: %v", opErr, err)
	}
}

func (uc *DefaultEscrowUsecase) publishTradeEvent(trade *domain.Trade, stage string) {
	if uc.Publisher == nil {
		return
	}
	go func(event kafka.TradeEvent) {
		if err := uc.Publisher.PublishTrade(event); err != nil {
			slog.Error("failed to publish kafka trade event", "stage", stage, "error", err.Error())
		}
	}(kafka.TradeEvent{
		TradeID:        trade.ID,
		Reference:      trade.Reference,
		BuyerID:        trade.BuyerID,
		SellerID:       trade.SellerID,
		CardInstanceID: trade.CardInstanceID,
		Price:          trade.Price,
		Status:         string(trade.Status),
		Stage:          stage,
	})
}

func (uc *DefaultEscrowUsecase) recordEscrowConflict(operation string) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordEscrowConflict(operation)
}

func (uc *DefaultEscrowUsecase) recordReleased(trigger string, amount int64) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordTradeCompleted(trigger, amount)
}

func (uc *DefaultEscrowUsecase) recordRefunded(reason string, refunded int64, partial bool) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordTradeCancelled(reason, refunded, partial)
}
