package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/testutil"
	shipmentdto "github.com/slabmarket/settlement-service/internal/usecase/dto/shipment"
	escrowuc "github.com/slabmarket/settlement-service/internal/usecase/escrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type shipmentFixture struct {
	store   *testutil.Store
	gateway *testutil.FakeGateway
	uc      *DefaultShipmentUsecase
}

// newShipmentFixture seeds a matched trade in AWAITING_SHIPMENT with a HELD
// escrow and an unverified card.
func newShipmentFixture(t *testing.T) *shipmentFixture {
	t.Helper()

	store := testutil.NewStore()
	gateway := &testutil.FakeGateway{}
	escrowUsecase := escrowuc.NewDefaultEscrowUsecase(store, store, store, store, store, gateway, nil, nil)
	uc := NewDefaultShipmentUsecase(store, store, store, escrowUsecase, nil)

	store.Cards["inst-1"] = &domain.CardInstance{
		ID:          "inst-1",
		CardID:      "card-1",
		OwnerUserID: "seller-1",
		Status:      domain.CardUnverified,
		CreatedAt:   time.Now(),
	}
	store.Trades["trade-1"] = &domain.Trade{
		ID:             "trade-1",
		CardInstanceID: "inst-1",
		Price:          900,
		BuyerID:        "buyer-1",
		SellerID:       "seller-1",
		Status:         domain.TradeAwaitingShipment,
		CreatedAt:      time.Now(),
	}
	store.Escrows["escrow-1"] = &domain.Escrow{
		ID:               "escrow-1",
		TradeID:          "trade-1",
		Amount:           900,
		Status:           domain.EscrowHeld,
		PaymentIntentRef: "pi_test",
	}

	return &shipmentFixture{store: store, gateway: gateway, uc: uc}
}

func (f *shipmentFixture) createInbound(t *testing.T) *domain.Shipment {
	t.Helper()
	shipment, err := f.uc.Create(context.Background(), &shipmentdto.CreateShipmentInput{
		TradeID:        "trade-1",
		Direction:      domain.DirectionInbound,
		TrackingNumber: "1Z999",
		Carrier:        "UPS",
	})
	require.NoError(t, err)
	return shipment
}

func (f *shipmentFixture) advance(t *testing.T, shipmentID string, statuses ...domain.ShipmentStatus) {
	t.Helper()
	for _, next := range statuses {
		_, err := f.uc.UpdateStatus(context.Background(), &shipmentdto.UpdateShipmentStatusInput{
			ShipmentID: shipmentID,
			NextStatus: next,
		})
		require.NoError(t, err)
	}
}

func TestCreateInbound(t *testing.T) {
	f := newShipmentFixture(t)

	shipment := f.createInbound(t)
	assert.Equal(t, domain.ShipmentLabelCreated, shipment.Status)
	assert.Equal(t, "inst-1", shipment.CardInstanceID)
	assert.Equal(t, domain.DirectionInbound, shipment.Direction)
}

func TestCreateInboundRequiresAwaitingShipment(t *testing.T) {
	f := newShipmentFixture(t)
	f.store.Trades["trade-1"].Status = domain.TradeAwaitingVerification

	_, err := f.uc.Create(context.Background(), &shipmentdto.CreateShipmentInput{
		TradeID:        "trade-1",
		Direction:      domain.DirectionInbound,
		TrackingNumber: "1Z999",
		Carrier:        "UPS",
	})
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestCreateOutboundRequiresVerifiedCard(t *testing.T) {
	f := newShipmentFixture(t)
	f.store.Trades["trade-1"].Status = domain.TradeAwaitingVerification

	_, err := f.uc.Create(context.Background(), &shipmentdto.CreateShipmentInput{
		TradeID:        "trade-1",
		Direction:      domain.DirectionOutbound,
		TrackingNumber: "1Z998",
		Carrier:        "UPS",
	})
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	f.store.Cards["inst-1"].Status = domain.CardVerified
	shipment, err := f.uc.Create(context.Background(), &shipmentdto.CreateShipmentInput{
		TradeID:        "trade-1",
		Direction:      domain.DirectionOutbound,
		TrackingNumber: "1Z998",
		Carrier:        "UPS",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionOutbound, shipment.Direction)
}

func TestSecondInFlightLegRejected(t *testing.T) {
	f := newShipmentFixture(t)
	f.createInbound(t)

	_, err := f.uc.Create(context.Background(), &shipmentdto.CreateShipmentInput{
		TradeID:        "trade-1",
		Direction:      domain.DirectionInbound,
		TrackingNumber: "1Z997",
		Carrier:        "FedEx",
	})
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestNewLegAllowedAfterPreviousWentTerminal(t *testing.T) {
	f := newShipmentFixture(t)
	first := f.createInbound(t)

	_, err := f.uc.UpdateStatus(context.Background(), &shipmentdto.UpdateShipmentStatusInput{
		ShipmentID: first.ID,
		NextStatus: domain.ShipmentReturned,
		Notes:      "address unknown",
	})
	require.NoError(t, err)

	second := f.createInbound(t)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestBackwardAndSkippingTransitionsRejected(t *testing.T) {
	f := newShipmentFixture(t)
	shipment := f.createInbound(t)

	_, err := f.uc.UpdateStatus(context.Background(), &shipmentdto.UpdateShipmentStatusInput{
		ShipmentID: shipment.ID,
		NextStatus: domain.ShipmentInTransit,
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	f.advance(t, shipment.ID, domain.ShipmentShipped, domain.ShipmentInTransit)

	_, err = f.uc.UpdateStatus(context.Background(), &shipmentdto.UpdateShipmentStatusInput{
		ShipmentID: shipment.ID,
		NextStatus: domain.ShipmentShipped,
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestUpdateStatusWithoutNotesKeepsExistingNotes(t *testing.T) {
	f := newShipmentFixture(t)
	shipment := f.createInbound(t)

	_, err := f.uc.UpdateStatus(context.Background(), &shipmentdto.UpdateShipmentStatusInput{
		ShipmentID: shipment.ID,
		NextStatus: domain.ShipmentShipped,
		Notes:      "left at dock",
	})
	require.NoError(t, err)

	_, err = f.uc.UpdateStatus(context.Background(), &shipmentdto.UpdateShipmentStatusInput{
		ShipmentID: shipment.ID,
		NextStatus: domain.ShipmentInTransit,
	})
	require.NoError(t, err)

	assert.Equal(t, "left at dock", f.store.Shipments[shipment.ID].Notes)
}

func TestInboundDeliveryOpensVerification(t *testing.T) {
	f := newShipmentFixture(t)
	shipment := f.createInbound(t)

	f.advance(t, shipment.ID, domain.ShipmentShipped, domain.ShipmentInTransit, domain.ShipmentDelivered)

	assert.Equal(t, domain.ShipmentDelivered, f.store.Shipments[shipment.ID].Status)
	assert.Equal(t, domain.TradeAwaitingVerification, f.store.Trades["trade-1"].Status)
	assert.Equal(t, domain.EscrowHeld, f.store.Escrows["escrow-1"].Status)
}

func TestInboundDeliveryToleratesDisputedTrade(t *testing.T) {
	f := newShipmentFixture(t)
	shipment := f.createInbound(t)
	f.advance(t, shipment.ID, domain.ShipmentShipped, domain.ShipmentInTransit)

	// The buyer disputed non-delivery just before the carrier webhook landed.
	f.store.Trades["trade-1"].Status = domain.TradeDisputed

	_, err := f.uc.UpdateStatus(context.Background(), &shipmentdto.UpdateShipmentStatusInput{
		ShipmentID: shipment.ID,
		NextStatus: domain.ShipmentDelivered,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TradeDisputed, f.store.Trades["trade-1"].Status)
}

func TestOutboundDeliverySettlesTrade(t *testing.T) {
	f := newShipmentFixture(t)
	f.store.Trades["trade-1"].Status = domain.TradeAwaitingVerification
	f.store.Cards["inst-1"].Status = domain.CardVerified

	shipment, err := f.uc.Create(context.Background(), &shipmentdto.CreateShipmentInput{
		TradeID:        "trade-1",
		Direction:      domain.DirectionOutbound,
		TrackingNumber: "1Z996",
		Carrier:        "USPS",
	})
	require.NoError(t, err)

	f.advance(t, shipment.ID, domain.ShipmentShipped, domain.ShipmentInTransit, domain.ShipmentDelivered)

	assert.Equal(t, domain.EscrowReleased, f.store.Escrows["escrow-1"].Status)
	assert.Equal(t, domain.TradeCompleted, f.store.Trades["trade-1"].Status)
	assert.Equal(t, "buyer-1", f.store.Cards["inst-1"].OwnerUserID)
	assert.Len(t, f.gateway.CallsFor("capture"), 1)
	assert.Len(t, f.gateway.CallsFor("transfer"), 1)
}

func TestOutboundDeliveryHoldsEscrowDuringDispute(t *testing.T) {
	f := newShipmentFixture(t)
	f.store.Trades["trade-1"].Status = domain.TradeAwaitingVerification
	f.store.Cards["inst-1"].Status = domain.CardVerified

	shipment, err := f.uc.Create(context.Background(), &shipmentdto.CreateShipmentInput{
		TradeID:        "trade-1",
		Direction:      domain.DirectionOutbound,
		TrackingNumber: "1Z995",
		Carrier:        "USPS",
	})
	require.NoError(t, err)
	f.advance(t, shipment.ID, domain.ShipmentShipped, domain.ShipmentInTransit)

	f.store.Disputes["disp-1"] = &domain.Dispute{
		ID:      "disp-1",
		TradeID: "trade-1",
		Status:  domain.DisputeOpen,
	}
	f.store.Trades["trade-1"].Status = domain.TradeDisputed

	_, err = f.uc.UpdateStatus(context.Background(), &shipmentdto.UpdateShipmentStatusInput{
		ShipmentID: shipment.ID,
		NextStatus: domain.ShipmentDelivered,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.EscrowHeld, f.store.Escrows["escrow-1"].Status)
	assert.Empty(t, f.gateway.CallsFor("capture"))
}

func TestCreateValidation(t *testing.T) {
	f := newShipmentFixture(t)

	_, err := f.uc.Create(context.Background(), &shipmentdto.CreateShipmentInput{
		TradeID:   "trade-1",
		Direction: domain.DirectionInbound,
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.uc.Create(context.Background(), &shipmentdto.CreateShipmentInput{
		TradeID:        "trade-1",
		Direction:      "SIDEWAYS",
		TrackingNumber: "1Z999",
		Carrier:        "UPS",
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.uc.Create(context.Background(), &shipmentdto.CreateShipmentInput{
		TradeID:        "missing",
		Direction:      domain.DirectionInbound,
		TrackingNumber: "1Z999",
		Carrier:        "UPS",
	})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}
