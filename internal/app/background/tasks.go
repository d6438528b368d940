package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
	escrowuc "github.com/slabmarket/settlement-service/internal/usecase/escrow"
	verificationuc "github.com/slabmarket/settlement-service/internal/usecase/verification"
)

// Tasks are the engine's periodic workers: the claim sweeper returns stale
// verification claims to the queue, the settlement nudger releases trades
// whose release trigger fired while the service was down or the triggering
// request failed midway.
type Tasks struct {
	Verification verificationuc.VerificationUsecase
	Escrow       escrowuc.EscrowUsecase
	TradeRepo    domain.TradeRepository

	ClaimTTL        time.Duration
	RequireDelivery bool
	SweepInterval   time.Duration
	NudgeInterval   time.Duration
}

func (t *Tasks) StartAll(ctx context.Context) {
	go t.runClaimSweeper(ctx)
	go t.runSettlementNudger(ctx)
}

func (t *Tasks) runClaimSweeper(ctx context.Context) {
	interval := t.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := t.Verification.ExpireStaleClaims(ctx, t.ClaimTTL)
			if err != nil {
				slog.Error("claim sweep failed", "error", err.Error())
				continue
			}
			if expired > 0 {
				slog.Info("claim sweep released stale claims", "count", expired)
			}
		}
	}
}

func (t *Tasks) runSettlementNudger(ctx context.Context) {
	interval := t.NudgeInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.nudge(ctx)
		}
	}
}

func (t *Tasks) nudge(ctx context.Context) {
	trades, err := t.TradeRepo.FindReleasableTrades(t.RequireDelivery)
	if err != nil {
		slog.Error("settlement nudge query failed", "error", err.Error())
		return
	}

	for _, trade := range trades {
		if err := t.Escrow.ReleaseIfEligible(ctx, trade, "nudger"); err != nil {
			slog.Error("settlement nudge release failed",
				"trade_id", trade.ID,
				"error", err.Error(),
			)
		}
	}
}
