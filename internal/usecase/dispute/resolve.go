package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/kafka"
	disputedto "github.com/slabmarket/settlement-service/internal/usecase/dto/dispute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Resolve is the single authority that unfreezes a disputed trade. REFUND
// cancels the trade with a full or partial refund, REJECTED releases to the
// seller, REPLACEMENT keeps the escrow held and restarts the shipment and
// verification cycle for a replacement card. Resolutions are terminal.
func (uc *DefaultDisputeUsecase) Resolve(ctx context.Context, input *disputedto.ResolveDisputeInput) error {
	if input.AdminID == "" {
		return status.Error(codes.Unauthenticated, "admin identity is required")
	}
	switch input.Resolution {
	case domain.DisputeResolvedRefund:
	case domain.DisputeResolvedReplacement, domain.DisputeResolvedRejected:
		if input.RefundAmount != nil {
			return status.Errorf(codes.InvalidArgument, "refund_amount is only valid with %s", domain.DisputeResolvedRefund)
		}
	default:
		return status.Errorf(codes.InvalidArgument, "unknown resolution: %s", input.Resolution)
	}

	dispute, err := uc.DisputeRepo.GetDisputeByID(input.DisputeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status.Error(codes.NotFound, "dispute not found")
		}
		return status.Errorf(codes.Internal, "failed to load dispute: %v", err)
	}
	if dispute.Status.Resolved() {
		return status.Error(codes.FailedPrecondition, "dispute is already resolved")
	}

	trade, err := uc.TradeRepo.GetTradeByID(dispute.TradeID)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to load trade: %v", err)
	}
	if trade.Status != domain.TradeDisputed {
		return status.Errorf(codes.FailedPrecondition, "trade is %s, expected DISPUTED", trade.Status)
	}

	err = uc.DisputeRepo.ResolveDispute(dispute.ID, input.Resolution, input.AdminID, input.AdminNotes, input.RefundAmount)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return status.Error(codes.Aborted, "dispute was resolved concurrently")
		}
		return status.Errorf(codes.Internal, "%v: %v", domain.ErrResolveDispute, err)
	}

	if err := uc.applyResolution(ctx, dispute, trade, input); err != nil {
		// The resolution committed; the escrow step can be retried through
		// the admin escrow endpoints.
		slog.Warn("dispute resolved but settlement step failed",
			"dispute_id", dispute.ID,
			"trade_id", trade.ID,
			"resolution", string(input.Resolution),
			"error", err.Error(),
		)
		return err
	}

	uc.publishResolution(dispute, input.Resolution)
	uc.recordResolved(input.Resolution)

	return nil
}

func (uc *DefaultDisputeUsecase) applyResolution(ctx context.Context, dispute *domain.Dispute, trade *domain.Trade, input *disputedto.ResolveDisputeInput) error {
	switch input.Resolution {
	case domain.DisputeResolvedRefund:
		return uc.EscrowUc.RefundFrom(ctx, trade, domain.TradeDisputed, "dispute_refund", input.RefundAmount)

	case domain.DisputeResolvedRejected:
		return uc.EscrowUc.ReleaseFrom(ctx, trade, domain.TradeDisputed, "dispute_rejected")

	case domain.DisputeResolvedReplacement:
		err := uc.CardRepo.ResetForReplacement(trade.CardInstanceID)
		if err != nil && !errors.Is(err, domain.ErrConflict) {
			return status.Errorf(codes.Internal, "failed to reset card instance: %v", err)
		}
		err = uc.TradeRepo.UpdateTradeStatus(trade.ID, domain.TradeDisputed, domain.TradeAwaitingShipment)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return status.Error(codes.Aborted, "trade changed state concurrently")
			}
			return status.Errorf(codes.Internal, "failed to restart settlement cycle: %v", err)
		}
		return nil
	}
	return nil
}

func (uc *DefaultDisputeUsecase) publishResolution(dispute *domain.Dispute, resolution domain.DisputeStatus) {
	if uc.Publisher == nil {
		return
	}
	go func(event kafka.DisputeEvent) {
		if err := uc.Publisher.PublishDispute(event); err != nil {
			slog.Error("failed to publish kafka dispute event", "stage", "resolving", "error", err.Error())
		}
	}(kafka.DisputeEvent{
		DisputeID:  dispute.ID,
		TradeID:    dispute.TradeID,
		OpenedByID: dispute.OpenedByUserID,
		Reason:     string(dispute.Reason),
		Status:     string(resolution),
		Resolution: string(resolution),
	})
}

func (uc *DefaultDisputeUsecase) recordResolved(resolution domain.DisputeStatus) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordDisputeResolved(string(resolution))
}
