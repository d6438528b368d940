package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Cancel unwinds a trade in the buyer's favor. A nil refundAmount refunds the
// full escrow; a partial amount splits the escrow between buyer refund and
// seller payout. Admin-facing entry point. A DISPUTED trade is cancellable
// only once its dispute is resolved; that is the retry path for a resolution
// whose gateway step failed.
func (uc *DefaultEscrowUsecase) Cancel(ctx context.Context, tradeID, reason string, refundAmount *int64) error {
	trade, err := uc.TradeRepo.GetTradeByID(tradeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status.Error(codes.NotFound, "trade not found")
		}
		return status.Errorf(codes.Internal, "failed to load trade: %v", err)
	}

	if trade.Status.Terminal() {
		return status.Error(codes.FailedPrecondition, "trade already settled")
	}
	if trade.Status == domain.TradeDisputed {
		_, err := uc.DisputeRepo.GetOpenDisputeByTradeID(trade.ID)
		if err == nil {
			return status.Error(codes.FailedPrecondition, "trade is disputed, resolve the dispute instead")
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return status.Errorf(codes.Internal, "failed to check disputes: %v", err)
		}
	}

	return uc.RefundFrom(ctx, trade, trade.Status, reason, refundAmount)
}

// RefundFrom performs the refund transition from an explicit expected trade
// status. The trade always ends CANCELLED; the escrow ends REFUNDED or, for a
// split, PARTIALLY_REFUNDED with the remainder paid to the seller.
func (uc *DefaultEscrowUsecase) RefundFrom(ctx context.Context, trade *domain.Trade, expectedTrade domain.TradeStatus, reason string, refundAmount *int64) error {
	escrow, err := uc.EscrowRepo.GetEscrowByTradeID(trade.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status.Error(codes.NotFound, "escrow not found")
		}
		return status.Errorf(codes.Internal, "failed to load escrow: %v", err)
	}
	if escrow.Status.Terminal() {
		uc.recordEscrowConflict("refund")
		return status.Error(codes.FailedPrecondition, "escrow already settled")
	}

	refunded := escrow.Amount
	partial := false
	if refundAmount != nil && *refundAmount != escrow.Amount {
		if *refundAmount <= 0 || *refundAmount > escrow.Amount {
			return status.Errorf(codes.InvalidArgument, "refund amount must be within (0, %d]", escrow.Amount)
		}
		refunded = *refundAmount
		partial = true
	}

	nextEscrow := domain.EscrowRefunded
	if partial {
		nextEscrow = domain.EscrowPartiallyRefunded
	}

	refundKey := fmt.Sprintf("%s_escrow_%s_refund", trade.ID, escrow.ID)
	captureKey := fmt.Sprintf("%s_escrow_%s_capture", trade.ID, escrow.ID)
	transferKey := fmt.Sprintf("%s_escrow_%s_transfer", trade.ID, escrow.ID)
	remainder := escrow.Amount - refunded

	op := &EscrowOperation{
		Operation:  "refund",
		EscrowID:   escrow.ID,
		EscrowFrom: domain.EscrowHeld,
		EscrowTo:   nextEscrow,
		TradeID:    trade.ID,
		TradeFrom:  expectedTrade,
		TradeTo:    domain.TradeCancelled,
		GatewayOp: func() error {
			if err := uc.Gateway.Refund(ctx, escrow.PaymentIntentRef, refunded, refundKey); err != nil {
				return err
			}
			if remainder == 0 {
				return nil
			}
			if err := uc.Gateway.Capture(ctx, escrow.PaymentIntentRef, captureKey); err != nil {
				return err
			}
			return uc.Gateway.Transfer(ctx, trade.SellerID, remainder, transferKey)
		},
		CreatedAt: time.Now(),
	}

	if err := uc.ProcessEscrowOperation(ctx, op); err != nil {
		return err
	}

	// Cascade: in-flight shipments of a dead trade stop meaning anything.
	if err := uc.ShipmentRepo.MarkTradeShipmentsException(trade.ID); err != nil {
		slog.Error("failed to flag shipments after cancellation",
			"trade_id", trade.ID,
			"error", err.Error(),
		)
	}

	trade.Status = domain.TradeCancelled
	uc.publishTradeEvent(trade, reason)
	uc.recordRefunded(reason, refunded, partial)

	return nil
}
