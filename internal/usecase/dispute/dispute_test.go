package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/testutil"
	disputedto "github.com/slabmarket/settlement-service/internal/usecase/dto/dispute"
	escrowuc "github.com/slabmarket/settlement-service/internal/usecase/escrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type disputeFixture struct {
	store   *testutil.Store
	gateway *testutil.FakeGateway
	uc      *DefaultDisputeUsecase
	escrow  escrowuc.EscrowUsecase
}

// newDisputeFixture seeds a trade in AWAITING_VERIFICATION with a HELD escrow
// of 900 and a VERIFIED card.
func newDisputeFixture(t *testing.T) *disputeFixture {
	t.Helper()

	store := testutil.NewStore()
	gateway := &testutil.FakeGateway{}
	escrowUsecase := escrowuc.NewDefaultEscrowUsecase(store, store, store, store, store, gateway, nil, nil)
	uc := NewDefaultDisputeUsecase(store, store, store, escrowUsecase, nil, nil)

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

	return &disputeFixture{store: store, gateway: gateway, uc: uc, escrow: escrowUsecase}
}

func (f *disputeFixture) openDispute(t *testing.T, userID string) *domain.Dispute {
	t.Helper()
	dispute, err := f.uc.Open(context.Background(), &disputedto.OpenDisputeInput{
		TradeID:     "trade-1",
		UserID:      userID,
		Reason:      domain.ReasonGradeDiscrepancy,
		Description: "slab grade does not match the listing",
		Evidence:    []string{"https://img.example/slab-front.jpg"},
	})
	require.NoError(t, err)
	return dispute
}

func TestOpenFreezesTrade(t *testing.T) {
	f := newDisputeFixture(t)

	dispute := f.openDispute(t, "buyer-1")

	assert.Equal(t, domain.DisputeOpen, dispute.Status)
	assert.Equal(t, domain.TradeAwaitingVerification, dispute.TradeStatusOriginal)
	assert.Equal(t, domain.TradeDisputed, f.store.Trades["trade-1"].Status)
}

func TestOpenByOutsiderForbidden(t *testing.T) {
	f := newDisputeFixture(t)

	_, err := f.uc.Open(context.Background(), &disputedto.OpenDisputeInput{
		TradeID:     "trade-1",
		UserID:      "stranger",
		Reason:      domain.ReasonOther,
		Description: "I just disagree",
	})
	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, domain.TradeAwaitingVerification, f.store.Trades["trade-1"].Status)
}

func TestSellerMayOpen(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.openDispute(t, "seller-1")
	assert.Equal(t, "seller-1", dispute.OpenedByUserID)
}

func TestSecondOpenDisputeRejected(t *testing.T) {
	f := newDisputeFixture(t)
	f.openDispute(t, "buyer-1")

	_, err := f.uc.Open(context.Background(), &disputedto.OpenDisputeInput{
		TradeID:     "trade-1",
		UserID:      "seller-1",
		Reason:      domain.ReasonOther,
		Description: "counter-dispute",
	})
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestOpenRejectsSettledTrade(t *testing.T) {
	f := newDisputeFixture(t)
	f.store.Trades["trade-1"].Status = domain.TradeCompleted

	_, err := f.uc.Open(context.Background(), &disputedto.OpenDisputeInput{
		TradeID:     "trade-1",
		UserID:      "buyer-1",
		Reason:      domain.ReasonShippingDamage,
		Description: "arrived cracked",
	})
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestOpenValidation(t *testing.T) {
	f := newDisputeFixture(t)

	_, err := f.uc.Open(context.Background(), &disputedto.OpenDisputeInput{
		TradeID:     "trade-1",
		UserID:      "buyer-1",
		Reason:      "VIBES",
		Description: "bad vibes",
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.uc.Open(context.Background(), &disputedto.OpenDisputeInput{
		TradeID: "trade-1",
		UserID:  "buyer-1",
		Reason:  domain.ReasonOther,
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestResolveRefundCancelsTrade(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.openDispute(t, "buyer-1")

	err := f.uc.Resolve(context.Background(), &disputedto.ResolveDisputeInput{
		DisputeID:  dispute.ID,
		AdminID:    "admin-1",
		Resolution: domain.DisputeResolvedRefund,
		AdminNotes: "seller shipped the wrong slab",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DisputeResolvedRefund, f.store.Disputes[dispute.ID].Status)
	assert.Equal(t, domain.EscrowRefunded, f.store.Escrows["escrow-1"].Status)
	assert.Equal(t, domain.TradeCancelled, f.store.Trades["trade-1"].Status)

	refunds := f.gateway.CallsFor("refund")
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(900), refunds[0].Amount)
}

func TestResolvePartialRefundSplitsEscrow(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.openDispute(t, "buyer-1")
	amount := int64(450)

	err := f.uc.Resolve(context.Background(), &disputedto.ResolveDisputeInput{
		DisputeID:    dispute.ID,
		AdminID:      "admin-1",
		Resolution:   domain.DisputeResolvedRefund,
		AdminNotes:   "minor corner damage, split the difference",
		RefundAmount: &amount,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.EscrowPartiallyRefunded, f.store.Escrows["escrow-1"].Status)
	assert.Equal(t, domain.TradeCancelled, f.store.Trades["trade-1"].Status)

	refunds := f.gateway.CallsFor("refund")
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(450), refunds[0].Amount)

	transfers := f.gateway.CallsFor("transfer")
	require.Len(t, transfers, 1)
	assert.Equal(t, int64(450), transfers[0].Amount)
	assert.Equal(t, "seller-1", transfers[0].UserID)
}

func TestResolveRejectedReleasesToSeller(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.openDispute(t, "buyer-1")

	err := f.uc.Resolve(context.Background(), &disputedto.ResolveDisputeInput{
		DisputeID:  dispute.ID,
		AdminID:    "admin-1",
		Resolution: domain.DisputeResolvedRejected,
		AdminNotes: "grade matches the cert",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DisputeResolvedRejected, f.store.Disputes[dispute.ID].Status)
	assert.Equal(t, domain.EscrowReleased, f.store.Escrows["escrow-1"].Status)
	assert.Equal(t, domain.TradeCompleted, f.store.Trades["trade-1"].Status)
	assert.Equal(t, "buyer-1", f.store.Cards["inst-1"].OwnerUserID)
}

func TestResolveReplacementRestartsCycle(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.openDispute(t, "buyer-1")

	err := f.uc.Resolve(context.Background(), &disputedto.ResolveDisputeInput{
		DisputeID:  dispute.ID,
		AdminID:    "admin-1",
		Resolution: domain.DisputeResolvedReplacement,
		AdminNotes: "seller sends a replacement slab",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DisputeResolvedReplacement, f.store.Disputes[dispute.ID].Status)
	// The escrow stays put; only the shipment and verification cycle restarts.
	assert.Equal(t, domain.EscrowHeld, f.store.Escrows["escrow-1"].Status)
	assert.Equal(t, domain.TradeAwaitingShipment, f.store.Trades["trade-1"].Status)
	assert.Equal(t, domain.CardUnverified, f.store.Cards["inst-1"].Status)
	assert.Empty(t, f.gateway.Calls)
}

func TestRefundAmountOnlyValidWithRefund(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.openDispute(t, "buyer-1")
	amount := int64(450)

	err := f.uc.Resolve(context.Background(), &disputedto.ResolveDisputeInput{
		DisputeID:    dispute.ID,
		AdminID:      "admin-1",
		Resolution:   domain.DisputeResolvedRejected,
		RefundAmount: &amount,
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, domain.DisputeOpen, f.store.Disputes[dispute.ID].Status)
}

func TestResolveTwiceFails(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.openDispute(t, "buyer-1")

	require.NoError(t, f.uc.Resolve(context.Background(), &disputedto.ResolveDisputeInput{
		DisputeID:  dispute.ID,
		AdminID:    "admin-1",
		Resolution: domain.DisputeResolvedRejected,
	}))

	err := f.uc.Resolve(context.Background(), &disputedto.ResolveDisputeInput{
		DisputeID:  dispute.ID,
		AdminID:    "admin-1",
		Resolution: domain.DisputeResolvedRefund,
	})
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Len(t, f.gateway.CallsFor("capture"), 1)
}

func TestResolveRequiresAdmin(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.openDispute(t, "buyer-1")

	err := f.uc.Resolve(context.Background(), &disputedto.ResolveDisputeInput{
		DisputeID:  dispute.ID,
		Resolution: domain.DisputeResolvedRefund,
	})
	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestResolveReleaseRetriesAfterGatewayFailure(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.openDispute(t, "buyer-1")
	f.gateway.CaptureErr = errors.New("processor outage")

	err := f.uc.Resolve(context.Background(), &disputedto.ResolveDisputeInput{
		DisputeID:  dispute.ID,
		AdminID:    "admin-1",
		Resolution: domain.DisputeResolvedRejected,
	})
	require.Error(t, err)

	// The resolution committed but no money moved.
	assert.Equal(t, domain.DisputeResolvedRejected, f.store.Disputes[dispute.ID].Status)
	assert.Equal(t, domain.TradeDisputed, f.store.Trades["trade-1"].Status)
	assert.Equal(t, domain.EscrowHeld, f.store.Escrows["escrow-1"].Status)

	// The gateway recovers; the admin release endpoint retries the payout.
	f.gateway.CaptureErr = nil
	require.NoError(t, f.escrow.Release(context.Background(), "trade-1"))

	assert.Equal(t, domain.EscrowReleased, f.store.Escrows["escrow-1"].Status)
	assert.Equal(t, domain.TradeCompleted, f.store.Trades["trade-1"].Status)
	assert.Equal(t, "buyer-1", f.store.Cards["inst-1"].OwnerUserID)
	assert.Len(t, f.gateway.CallsFor("transfer"), 1)
}

func TestResolveRefundRetriesAfterGatewayFailure(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.openDispute(t, "buyer-1")
	amount := int64(450)
	f.gateway.RefundErr = errors.New("processor outage")

	err := f.uc.Resolve(context.Background(), &disputedto.ResolveDisputeInput{
		DisputeID:    dispute.ID,
		AdminID:      "admin-1",
		Resolution:   domain.DisputeResolvedRefund,
		RefundAmount: &amount,
	})
	require.Error(t, err)
	assert.Equal(t, domain.TradeDisputed, f.store.Trades["trade-1"].Status)
	assert.Equal(t, domain.EscrowHeld, f.store.Escrows["escrow-1"].Status)

	f.gateway.RefundErr = nil
	require.NoError(t, f.escrow.Cancel(context.Background(), "trade-1", "dispute_refund", &amount))

	assert.Equal(t, domain.EscrowPartiallyRefunded, f.store.Escrows["escrow-1"].Status)
	assert.Equal(t, domain.TradeCancelled, f.store.Trades["trade-1"].Status)

	refunds := f.gateway.CallsFor("refund")
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(450), refunds[0].Amount)
}

func TestReplacementCycleCanDisputeAgain(t *testing.T) {
	f := newDisputeFixture(t)
	first := f.openDispute(t, "buyer-1")

	require.NoError(t, f.uc.Resolve(context.Background(), &disputedto.ResolveDisputeInput{
		DisputeID:  first.ID,
		AdminID:    "admin-1",
		Resolution: domain.DisputeResolvedReplacement,
	}))

	// The replacement leg disappoints too.
	second, err := f.uc.Open(context.Background(), &disputedto.OpenDisputeInput{
		TradeID:     "trade-1",
		UserID:      "buyer-1",
		Reason:      domain.ReasonNonDelivery,
		Description: "replacement never shipped",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TradeAwaitingShipment, second.TradeStatusOriginal)
	assert.Equal(t, domain.TradeDisputed, f.store.Trades["trade-1"].Status)
}
