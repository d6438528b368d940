package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Claim takes the exclusive verification token for an instance whose trade is
// awaiting verification. Exactly one of two racing admins wins; the loser
// gets a conflict and should pick another card from the queue.
func (uc *DefaultVerificationUsecase) Claim(ctx context.Context, adminID, instanceID string) error {
	if adminID == "" {
		return status.Error(codes.Unauthenticated, "admin identity is required")
	}

	trade, err := uc.TradeRepo.GetActiveTradeByInstanceID(instanceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status.Error(codes.FailedPrecondition, "card instance has no trade awaiting verification")
		}
		return status.Errorf(codes.Internal, "failed to load trade: %v", err)
	}
	if trade.Status != domain.TradeAwaitingVerification {
		return status.Errorf(codes.FailedPrecondition, "trade is %s, claims require AWAITING_VERIFICATION", trade.Status)
	}

	err = uc.CardRepo.ClaimCardInstance(instanceID, adminID, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status.Error(codes.NotFound, "card instance not found")
		}
		if errors.Is(err, domain.ErrConflict) {
			uc.recordClaimConflict(adminID)
			return status.Error(codes.Aborted, "card instance is already claimed")
		}
		return status.Errorf(codes.Internal, "failed to claim card instance: %v", err)
	}

	uc.recordClaim(adminID)
	return nil
}

// Unclaim gives the token back without an outcome. Only the holder may do it.
func (uc *DefaultVerificationUsecase) Unclaim(ctx context.Context, adminID, instanceID string) error {
	if adminID == "" {
		return status.Error(codes.Unauthenticated, "admin identity is required")
	}

	instance, err := uc.CardRepo.GetCardInstanceByID(instanceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status.Error(codes.NotFound, "card instance not found")
		}
		return status.Errorf(codes.Internal, "failed to load card instance: %v", err)
	}
	if instance.Status == domain.CardClaimed && instance.ClaimedByAdminID != adminID {
		return status.Error(codes.PermissionDenied, "claim is held by another admin")
	}

	err = uc.CardRepo.ReleaseClaim(instanceID, adminID)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return status.Error(codes.FailedPrecondition, "card instance is not claimed by you")
		}
		return status.Errorf(codes.Internal, "failed to release claim: %v", err)
	}
	return nil
}

// ExpireStaleClaims sweeps claims older than the TTL back to the queue.
// Losing an individual release to a concurrent completion is fine; the claim
// holder finishing first is exactly the desired outcome.
func (uc *DefaultVerificationUsecase) ExpireStaleClaims(ctx context.Context, ttl time.Duration) (int, error) {
	stale, err := uc.CardRepo.FindExpiredClaims(time.Now().Add(-ttl))
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, instance := range stale {
		err := uc.CardRepo.ReleaseClaim(instance.ID, instance.ClaimedByAdminID)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			slog.Error("failed to expire stale claim",
				"card_instance_id", instance.ID,
				"admin_id", instance.ClaimedByAdminID,
				"error", err.Error(),
			)
			continue
		}
		expired++
		uc.recordClaimExpired()
		slog.Info("released stale verification claim",
			"card_instance_id", instance.ID,
			"admin_id", instance.ClaimedByAdminID,
		)
	}
	return expired, nil
}

func (uc *DefaultVerificationUsecase) recordClaim(adminID string) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordClaim(adminID)
}

func (uc *DefaultVerificationUsecase) recordClaimConflict(adminID string) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordClaimConflict(adminID)
}

func (uc *DefaultVerificationUsecase) recordClaimExpired() {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordClaimExpired()
}
