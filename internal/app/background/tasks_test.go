package background

import (
	"context"
	"testing"
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/testutil"
	escrowuc "github.com/slabmarket/settlement-service/internal/usecase/escrow"
	verificationuc "github.com/slabmarket/settlement-service/internal/usecase/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNudgeReleasesEligibleTrades(t *testing.T) {
	store := testutil.NewStore()
	gateway := &testutil.FakeGateway{}
	escrowUsecase := escrowuc.NewDefaultEscrowUsecase(store, store, store, store, store, gateway, nil, nil)
	verificationUsecase := verificationuc.NewDefaultVerificationUsecase(store, store, escrowUsecase, nil, nil, true)

	// A trade whose outbound leg delivered but whose release never ran,
	// e.g. because the webhook handler crashed midway.
	store.Cards["inst-1"] = &domain.CardInstance{
		ID:          "inst-1",
		CardID:      "card-1",
		OwnerUserID: "seller-1",
		Status:      domain.CardVerified,
		CreatedAt:   time.Now(),
	}
	store.Trades["trade-1"] = &domain.Trade{
		ID:             "trade-1",
		CardInstanceID: "inst-1",
		Price:          900,
		BuyerID:        "buyer-1",
		SellerID:       "seller-1",
		Status:         domain.TradeAwaitingVerification,
		CreatedAt:      time.Now(),
	}
	store.Escrows["escrow-1"] = &domain.Escrow{
		ID:               "escrow-1",
		TradeID:          "trade-1",
		Amount:           900,
		Status:           domain.EscrowHeld,
		PaymentIntentRef: "pi_test",
	}
	store.Shipments["ship-1"] = &domain.Shipment{
		ID:        "ship-1",
		TradeID:   "trade-1",
		Direction: domain.DirectionOutbound,
		Status:    domain.ShipmentDelivered,
	}

	// A trade still waiting on delivery must be left alone.
	store.Cards["inst-2"] = &domain.CardInstance{
		ID:        "inst-2",
		CardID:    "card-2",
		Status:    domain.CardVerified,
		CreatedAt: time.Now(),
	}
	store.Trades["trade-2"] = &domain.Trade{
		ID:             "trade-2",
		CardInstanceID: "inst-2",
		Price:          500,
		BuyerID:        "buyer-2",
		SellerID:       "seller-2",
		Status:         domain.TradeAwaitingVerification,
		CreatedAt:      time.Now(),
	}
	store.Escrows["escrow-2"] = &domain.Escrow{
		ID:               "escrow-2",
		TradeID:          "trade-2",
		Amount:           500,
		Status:           domain.EscrowHeld,
		PaymentIntentRef: "pi_test_2",
	}

	tasks := &Tasks{
		Verification:    verificationUsecase,
		Escrow:          escrowUsecase,
		TradeRepo:       store,
		ClaimTTL:        2 * time.Hour,
		RequireDelivery: true,
	}
	tasks.nudge(context.Background())

	assert.Equal(t, domain.EscrowReleased, store.Escrows["escrow-1"].Status)
	assert.Equal(t, domain.TradeCompleted, store.Trades["trade-1"].Status)
	assert.Equal(t, domain.EscrowHeld, store.Escrows["escrow-2"].Status)
	assert.Equal(t, domain.TradeAwaitingVerification, store.Trades["trade-2"].Status)
	require.Len(t, gateway.CallsFor("transfer"), 1)
}
