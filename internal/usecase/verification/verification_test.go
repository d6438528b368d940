package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/testutil"
	verificationdto "github.com/slabmarket/settlement-service/internal/usecase/dto/verification"
	escrowuc "github.com/slabmarket/settlement-service/internal/usecase/escrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type verificationFixture struct {
	store    *testutil.Store
	gateway  *testutil.FakeGateway
	registry *testutil.FakeRegistry
	uc       *DefaultVerificationUsecase
}

// newVerificationFixture seeds a claimed card whose trade awaits verification,
// with a HELD escrow of 900. Release policy settles on approval.
func newVerificationFixture(t *testing.T, releaseRequiresDelivery bool) *verificationFixture {
	t.Helper()

	store := testutil.NewStore()
	gateway := &testutil.FakeGateway{}
	registry := &testutil.FakeRegistry{}
	escrowUsecase := escrowuc.NewDefaultEscrowUsecase(store, store, store, store, store, gateway, nil, nil)
	uc := NewDefaultVerificationUsecase(store, store, escrowUsecase, registry, nil, releaseRequiresDelivery)

	claimedAt := time.Now().Add(-10 * time.Minute)
	store.Cards["inst-1"] = &domain.CardInstance{
		ID:               "inst-1",
		CardID:           "card-1",
		OwnerUserID:      "seller-1",
		Status:           domain.CardClaimed,
		ClaimedByAdminID: "admin-1",
		ClaimedAt:        &claimedAt,
		CreatedAt:        time.Now(),
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

	return &verificationFixture{store: store, gateway: gateway, registry: registry, uc: uc}
}

func TestClaimWinsToken(t *testing.T) {
	f := newVerificationFixture(t, false)
	f.store.Cards["inst-1"].Status = domain.CardUnverified
	f.store.Cards["inst-1"].ClaimedByAdminID = ""
	f.store.Cards["inst-1"].ClaimedAt = nil

	err := f.uc.Claim(context.Background(), "admin-2", "inst-1")
	require.NoError(t, err)

	instance := f.store.Cards["inst-1"]
	assert.Equal(t, domain.CardClaimed, instance.Status)
	assert.Equal(t, "admin-2", instance.ClaimedByAdminID)
	require.NotNil(t, instance.ClaimedAt)
}

func TestClaimLosesToHolder(t *testing.T) {
	f := newVerificationFixture(t, false)

	err := f.uc.Claim(context.Background(), "admin-2", "inst-1")
	require.Error(t, err)
	assert.Equal(t, codes.Aborted, status.Code(err))
	assert.Equal(t, "admin-1", f.store.Cards["inst-1"].ClaimedByAdminID)
}

func TestClaimRequiresTradeAwaitingVerification(t *testing.T) {
	f := newVerificationFixture(t, false)
	f.store.Cards["inst-1"].Status = domain.CardUnverified
	f.store.Trades["trade-1"].Status = domain.TradeAwaitingShipment

	err := f.uc.Claim(context.Background(), "admin-2", "inst-1")
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestUnclaimByNonHolderForbidden(t *testing.T) {
	f := newVerificationFixture(t, false)

	err := f.uc.Unclaim(context.Background(), "admin-2", "inst-1")
	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, domain.CardClaimed, f.store.Cards["inst-1"].Status)
}

func TestUnclaimReturnsCardToQueue(t *testing.T) {
	f := newVerificationFixture(t, false)

	err := f.uc.Unclaim(context.Background(), "admin-1", "inst-1")
	require.NoError(t, err)

	instance := f.store.Cards["inst-1"]
	assert.Equal(t, domain.CardUnverified, instance.Status)
	assert.Empty(t, instance.ClaimedByAdminID)
	assert.Nil(t, instance.ClaimedAt)
}

func TestCompleteApprovalSettlesImmediately(t *testing.T) {
	f := newVerificationFixture(t, false)

	err := f.uc.Complete(context.Background(), &verificationdto.CompleteVerificationInput{
		InstanceID: "inst-1",
		AdminID:    "admin-1",
		Outcome:    domain.CardVerified,
		Notes:      "matches cert photos",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CardVerified, f.store.Cards["inst-1"].Status)
	assert.Equal(t, domain.EscrowReleased, f.store.Escrows["escrow-1"].Status)
	assert.Equal(t, domain.TradeCompleted, f.store.Trades["trade-1"].Status)
	assert.Equal(t, "buyer-1", f.store.Cards["inst-1"].OwnerUserID)
}

func TestCompleteApprovalWaitsForDelivery(t *testing.T) {
	f := newVerificationFixture(t, true)

	err := f.uc.Complete(context.Background(), &verificationdto.CompleteVerificationInput{
		InstanceID: "inst-1",
		AdminID:    "admin-1",
		Outcome:    domain.CardVerified,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CardVerified, f.store.Cards["inst-1"].Status)
	assert.Equal(t, domain.EscrowHeld, f.store.Escrows["escrow-1"].Status)
	assert.Equal(t, domain.TradeAwaitingVerification, f.store.Trades["trade-1"].Status)
	assert.Empty(t, f.gateway.Calls)
}

func TestCompleteRejectionRefundsBuyer(t *testing.T) {
	f := newVerificationFixture(t, false)

	err := f.uc.Complete(context.Background(), &verificationdto.CompleteVerificationInput{
		InstanceID:   "inst-1",
		AdminID:      "admin-1",
		Outcome:      domain.CardRejected,
		RejectReason: "cert number reprinted",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CardRejected, f.store.Cards["inst-1"].Status)
	assert.Equal(t, domain.EscrowRefunded, f.store.Escrows["escrow-1"].Status)
	assert.Equal(t, domain.TradeCancelled, f.store.Trades["trade-1"].Status)

	refunds := f.gateway.CallsFor("refund")
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(900), refunds[0].Amount)
	// The seller keeps the slab.
	assert.Equal(t, "seller-1", f.store.Cards["inst-1"].OwnerUserID)
}

func TestCompleteRejectionNeedsReason(t *testing.T) {
	f := newVerificationFixture(t, false)

	err := f.uc.Complete(context.Background(), &verificationdto.CompleteVerificationInput{
		InstanceID: "inst-1",
		AdminID:    "admin-1",
		Outcome:    domain.CardRejected,
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCompleteByNonHolderForbidden(t *testing.T) {
	f := newVerificationFixture(t, false)

	err := f.uc.Complete(context.Background(), &verificationdto.CompleteVerificationInput{
		InstanceID: "inst-1",
		AdminID:    "admin-2",
		Outcome:    domain.CardVerified,
	})
	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, domain.CardClaimed, f.store.Cards["inst-1"].Status)
}

func TestCompleteRequiresActiveClaim(t *testing.T) {
	f := newVerificationFixture(t, false)
	f.store.Cards["inst-1"].Status = domain.CardUnverified
	f.store.Cards["inst-1"].ClaimedByAdminID = ""

	err := f.uc.Complete(context.Background(), &verificationdto.CompleteVerificationInput{
		InstanceID: "inst-1",
		AdminID:    "admin-1",
		Outcome:    domain.CardVerified,
	})
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestVerdictRecordedWhileDisputeFreezesSettlement(t *testing.T) {
	f := newVerificationFixture(t, false)
	f.store.Trades["trade-1"].Status = domain.TradeDisputed
	f.store.Disputes["disp-1"] = &domain.Dispute{
		ID:      "disp-1",
		TradeID: "trade-1",
		Status:  domain.DisputeOpen,
	}

	err := f.uc.Complete(context.Background(), &verificationdto.CompleteVerificationInput{
		InstanceID: "inst-1",
		AdminID:    "admin-1",
		Outcome:    domain.CardVerified,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CardVerified, f.store.Cards["inst-1"].Status)
	assert.Equal(t, domain.EscrowHeld, f.store.Escrows["escrow-1"].Status)
	assert.Equal(t, domain.TradeDisputed, f.store.Trades["trade-1"].Status)
	assert.Empty(t, f.gateway.Calls)
}

func TestExpireStaleClaims(t *testing.T) {
	f := newVerificationFixture(t, false)
	staleAt := time.Now().Add(-3 * time.Hour)
	f.store.Cards["inst-1"].ClaimedAt = &staleAt

	freshAt := time.Now().Add(-5 * time.Minute)
	f.store.Cards["inst-2"] = &domain.CardInstance{
		ID:               "inst-2",
		CardID:           "card-2",
		Status:           domain.CardClaimed,
		ClaimedByAdminID: "admin-2",
		ClaimedAt:        &freshAt,
		CreatedAt:        time.Now(),
	}

	expired, err := f.uc.ExpireStaleClaims(context.Background(), 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	assert.Equal(t, domain.CardUnverified, f.store.Cards["inst-1"].Status)
	assert.Equal(t, domain.CardClaimed, f.store.Cards["inst-2"].Status)
}

func TestRegisterInstanceRejectsUnknownCert(t *testing.T) {
	f := newVerificationFixture(t, false)

	_, err := f.uc.RegisterInstance(context.Background(), &verificationdto.RegisterInstanceInput{
		CardID:         "card-9",
		OwnerUserID:    "user-9",
		GradingCompany: "PSA",
		CertNumber:     "00000000",
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRegisterInstanceRejectsInvalidatedCert(t *testing.T) {
	f := newVerificationFixture(t, false)
	f.registry.Record = &domain.CertRecord{
		GradingCompany: "PSA",
		CertNumber:     "12345678",
		Valid:          false,
	}

	_, err := f.uc.RegisterInstance(context.Background(), &verificationdto.RegisterInstanceInput{
		CardID:         "card-9",
		OwnerUserID:    "user-9",
		GradingCompany: "PSA",
		CertNumber:     "12345678",
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRegisterInstanceToleratesRegistryOutage(t *testing.T) {
	f := newVerificationFixture(t, false)
	f.registry.Err = errors.New("registry timeout")

	instance, err := f.uc.RegisterInstance(context.Background(), &verificationdto.RegisterInstanceInput{
		CardID:         "card-9",
		OwnerUserID:    "user-9",
		GradingCompany: "BGS",
		CertNumber:     "87654321",
		Grade:          "9.5",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CardUnverified, instance.Status)
	assert.Equal(t, "user-9", instance.OwnerUserID)
	assert.NotNil(t, f.store.Cards[instance.ID])
}

func TestQueueListsOnlyTradesAwaitingVerification(t *testing.T) {
	f := newVerificationFixture(t, false)
	f.store.Cards["inst-1"].Status = domain.CardUnverified
	f.store.Cards["inst-1"].ClaimedByAdminID = ""

	// Registered but not part of any settlement; must not appear.
	f.store.Cards["inst-idle"] = &domain.CardInstance{
		ID:        "inst-idle",
		CardID:    "card-2",
		Status:    domain.CardUnverified,
		CreatedAt: time.Now(),
	}

	queue, total, err := f.uc.Queue(&verificationdto.QueueInput{
		Scope: domain.QueueUnclaimed,
		Page:  1,
		Limit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, queue, 1)
	assert.Equal(t, "inst-1", queue[0].ID)
}
