package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/kafka"
	disputedto "github.com/slabmarket/settlement-service/internal/usecase/dto/dispute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var validReasons = map[domain.DisputeReason]bool{
	domain.ReasonShippingDamage:   true,
	domain.ReasonWrongCard:        true,
	domain.ReasonGradeDiscrepancy: true,
	domain.ReasonNonDelivery:      true,
	domain.ReasonOther:            true,
}

// Open files a dispute and freezes the trade: the insert and the move to
// DISPUTED commit together, so verification and shipment events recorded
// afterwards can no longer touch the escrow.
func (uc *DefaultDisputeUsecase) Open(ctx context.Context, input *disputedto.OpenDisputeInput) (*domain.Dispute, error) {
	if !validReasons[input.Reason] {
		return nil, status.Errorf(codes.InvalidArgument, "unknown dispute reason: %s", input.Reason)
	}
	if input.Description == "" {
		return nil, status.Error(codes.InvalidArgument, "a dispute needs a description")
	}

	trade, err := uc.TradeRepo.GetTradeByID(input.TradeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "trade not found")
		}
		return nil, status.Errorf(codes.Internal, "failed to load trade: %v", err)
	}

	if input.UserID != trade.BuyerID && input.UserID != trade.SellerID {
		return nil, status.Error(codes.PermissionDenied, "only the buyer or seller may open a dispute")
	}
	if trade.Status.Terminal() {
		return nil, status.Error(codes.FailedPrecondition, "trade is already settled")
	}
	if trade.Status == domain.TradeDisputed {
		return nil, status.Error(codes.FailedPrecondition, "trade already has an open dispute")
	}

	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to init id generator: %v", err)
	}

	dispute := &domain.Dispute{
		ID:                  idGenerator(),
		TradeID:             trade.ID,
		OpenedByUserID:      input.UserID,
		Reason:              input.Reason,
		Description:         input.Description,
		Evidence:            input.Evidence,
		Status:              domain.DisputeOpen,
		TradeStatusOriginal: trade.Status,
		CreatedAt:           time.Now(),
	}

	if err := uc.DisputeRepo.CreateDispute(dispute, trade.Status); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, status.Error(codes.FailedPrecondition, "trade already has an open dispute or changed state")
		}
		return nil, status.Errorf(codes.Internal, "%v: %v", domain.ErrOpenDispute, err)
	}

	uc.publishDisputeEvent(dispute, "opened")
	uc.recordOpened(dispute)

	return dispute, nil
}

func (uc *DefaultDisputeUsecase) publishDisputeEvent(dispute *domain.Dispute, stage string) {
	if uc.Publisher == nil {
		return
	}
	go func(event kafka.DisputeEvent) {
		if err := uc.Publisher.PublishDispute(event); err != nil {
			slog.Error("failed to publish kafka dispute event", "stage", stage, "error", err.Error())
		}
	}(kafka.DisputeEvent{
		DisputeID:  dispute.ID,
		TradeID:    dispute.TradeID,
		OpenedByID: dispute.OpenedByUserID,
		Reason:     string(dispute.Reason),
		Status:     string(dispute.Status),
	})
}

func (uc *DefaultDisputeUsecase) recordOpened(dispute *domain.Dispute) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordDisputeOpened(string(dispute.Reason))
}
