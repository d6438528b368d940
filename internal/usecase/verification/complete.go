package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/slabmarket/settlement-service/internal/domain"
	verificationdto "github.com/slabmarket/settlement-service/internal/usecase/dto/verification"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Complete records the claim holder's verdict and drives the settlement
// consequence: an approved card releases escrow (immediately or on delivery,
// per policy), a rejected card refunds the buyer. A dispute opened meanwhile
// freezes the consequence; the verdict itself is still recorded.
func (uc *DefaultVerificationUsecase) Complete(ctx context.Context, input *verificationdto.CompleteVerificationInput) error {
	if input.AdminID == "" {
		return status.Error(codes.Unauthenticated, "admin identity is required")
	}
	if input.Outcome != domain.CardVerified && input.Outcome != domain.CardRejected {
		return status.Errorf(codes.InvalidArgument, "outcome must be VERIFIED or REJECTED, got %s", input.Outcome)
	}
	if input.Outcome == domain.CardRejected && input.RejectReason == "" {
		return status.Error(codes.InvalidArgument, "a rejection needs a reject_reason")
	}

	instance, err := uc.CardRepo.GetCardInstanceByID(input.InstanceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status.Error(codes.NotFound, "card instance not found")
		}
		return status.Errorf(codes.Internal, "failed to load card instance: %v", err)
	}
	if instance.Status != domain.CardClaimed {
		return status.Errorf(codes.FailedPrecondition, "card instance is %s, completion requires an active claim", instance.Status)
	}
	if instance.ClaimedByAdminID != input.AdminID {
		return status.Error(codes.PermissionDenied, "claim is held by another admin")
	}

	err = uc.CardRepo.CompleteVerification(input.InstanceID, input.AdminID, input.Outcome, input.Notes, input.RejectReason)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return status.Error(codes.Aborted, "claim changed hands concurrently")
		}
		return status.Errorf(codes.Internal, "failed to complete verification: %v", err)
	}
	uc.recordVerification(input.Outcome)

	return uc.applyVerdict(ctx, instance.ID, input.Outcome)
}

func (uc *DefaultVerificationUsecase) applyVerdict(ctx context.Context, instanceID string, outcome domain.CardInstanceStatus) error {
	trade, err := uc.TradeRepo.GetActiveTradeByInstanceID(instanceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return status.Errorf(codes.Internal, "failed to load trade: %v", err)
	}

	if trade.Status == domain.TradeDisputed {
		slog.Info("verification verdict recorded, settlement frozen by dispute",
			"trade_id", trade.ID,
			"card_instance_id", instanceID,
			"outcome", string(outcome),
		)
		return nil
	}
	if trade.Status != domain.TradeAwaitingVerification {
		return nil
	}

	if outcome == domain.CardVerified {
		if uc.ReleaseRequiresDelivery {
			// Settlement waits for the outbound shipment to deliver.
			return nil
		}
		return uc.EscrowUc.ReleaseIfEligible(ctx, trade, "verification")
	}

	err = uc.EscrowUc.RefundFrom(ctx, trade, domain.TradeAwaitingVerification, "verification_rejected", nil)
	if status.Code(err) == codes.FailedPrecondition {
		slog.Warn("refund after rejection lost a state race", "trade_id", trade.ID)
		return nil
	}
	return err
}

func (uc *DefaultVerificationUsecase) recordVerification(outcome domain.CardInstanceStatus) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordVerification(string(outcome))
}
