package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/slabmarket/settlement-service/internal/domain"
)

// Authorize builds the HELD escrow for a freshly matched trade and the
// gateway call that funds it. The caller runs the returned func inside the
// match transaction so a declined card rolls the whole match back.
func (uc *DefaultEscrowUsecase) Authorize(ctx context.Context, trade *domain.Trade) (*domain.Escrow, func() (string, error)) {
	escrow := &domain.Escrow{
		ID:        uuid.New().String(),
		TradeID:   trade.ID,
		Amount:    trade.Price,
		Status:    domain.EscrowHeld,
		CreatedAt: time.Now(),
	}

	idempotencyKey := fmt.Sprintf("%s_escrow_%s_authorize", trade.ID, escrow.ID)
	authorize := func() (string, error) {
		return uc.Gateway.Authorize(ctx, trade.BuyerID, trade.Price, idempotencyKey)
	}

	return escrow, authorize
}
