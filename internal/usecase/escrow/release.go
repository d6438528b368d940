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

// Release settles a trade in the seller's favor: capture the buyer's payment
// intent and transfer the proceeds. Admin-facing entry point. A DISPUTED
// trade is releasable only once its dispute is resolved; that is the retry
// path for a resolution whose gateway step failed.
func (uc *DefaultEscrowUsecase) Release(ctx context.Context, tradeID string) error {
	trade, err := uc.TradeRepo.GetTradeByID(tradeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status.Error(codes.NotFound, "trade not found")
		}
		return status.Errorf(codes.Internal, "failed to load trade: %v", err)
	}

	if err := uc.ensureNoOpenDispute(trade.ID); err != nil {
		return err
	}

	switch trade.Status {
	case domain.TradeAwaitingVerification:
		instance, err := uc.CardRepo.GetCardInstanceByID(trade.CardInstanceID)
		if err != nil {
			return status.Errorf(codes.Internal, "failed to load card instance: %v", err)
		}
		if instance.Status != domain.CardVerified {
			return status.Error(codes.FailedPrecondition, "card instance is not verified")
		}
	case domain.TradeDisputed:
		// The dispute resolution already ruled for the seller; the card
		// verdict no longer gates the payout.
	default:
		return status.Errorf(codes.FailedPrecondition, "trade is %s, release requires AWAITING_VERIFICATION", trade.Status)
	}

	return uc.ReleaseFrom(ctx, trade, trade.Status, "admin")
}

// ReleaseFrom performs the release transition from an explicit expected trade
// status. The dispute workflow releases from DISPUTED; everything else
// releases from AWAITING_VERIFICATION.
func (uc *DefaultEscrowUsecase) ReleaseFrom(ctx context.Context, trade *domain.Trade, expectedTrade domain.TradeStatus, trigger string) error {
	escrow, err := uc.EscrowRepo.GetEscrowByTradeID(trade.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status.Error(codes.NotFound, "escrow not found")
		}
		return status.Errorf(codes.Internal, "failed to load escrow: %v", err)
	}
	if escrow.Status.Terminal() {
		uc.recordEscrowConflict("release")
		return status.Error(codes.FailedPrecondition, "escrow already settled")
	}

	captureKey := fmt.Sprintf("%s_escrow_%s_capture", trade.ID, escrow.ID)
	transferKey := fmt.Sprintf("%s_escrow_%s_transfer", trade.ID, escrow.ID)

	op := &EscrowOperation{
		Operation:  "release",
		EscrowID:   escrow.ID,
		EscrowFrom: domain.EscrowHeld,
		EscrowTo:   domain.EscrowReleased,
		TradeID:    trade.ID,
		TradeFrom:  expectedTrade,
		TradeTo:    domain.TradeCompleted,
		GatewayOp: func() error {
			if err := uc.Gateway.Capture(ctx, escrow.PaymentIntentRef, captureKey); err != nil {
				return err
			}
			return uc.Gateway.Transfer(ctx, trade.SellerID, escrow.Amount, transferKey)
		},
		CreatedAt: time.Now(),
	}

	if err := uc.ProcessEscrowOperation(ctx, op); err != nil {
		return err
	}

	// The slab changes hands with the money.
	if err := uc.CardRepo.UpdateOwner(trade.CardInstanceID, trade.BuyerID); err != nil {
		slog.Error("failed to transfer card ownership after release",
			"trade_id", trade.ID,
			"card_instance_id", trade.CardInstanceID,
			"error", err.Error(),
		)
	}

	trade.Status = domain.TradeCompleted
	uc.publishTradeEvent(trade, trigger)
	uc.recordReleased(trigger, escrow.Amount)

	return nil
}

// ReleaseIfEligible releases when the card is verified and no dispute froze
// the trade. A lost compare-and-swap race is not an error here; the shipment
// webhook path and the settlement nudger may both observe the same trade.
func (uc *DefaultEscrowUsecase) ReleaseIfEligible(ctx context.Context, trade *domain.Trade, trigger string) error {
	instance, err := uc.CardRepo.GetCardInstanceByID(trade.CardInstanceID)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to load card instance: %v", err)
	}
	if instance.Status != domain.CardVerified {
		return nil
	}
	if err := uc.ensureNoOpenDispute(trade.ID); err != nil {
		slog.Info("skipping auto-release, trade frozen by dispute", "trade_id", trade.ID)
		return nil
	}

	err = uc.ReleaseFrom(ctx, trade, domain.TradeAwaitingVerification, trigger)
	if status.Code(err) == codes.FailedPrecondition {
		return nil
	}
	return err
}

func (uc *DefaultEscrowUsecase) ensureNoOpenDispute(tradeID string) error {
	_, err := uc.DisputeRepo.GetOpenDisputeByTradeID(tradeID)
	if err == nil {
		return status.Error(codes.FailedPrecondition, "trade is frozen by an open dispute")
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return status.Errorf(codes.Internal, "failed to check disputes: %v", err)
}
