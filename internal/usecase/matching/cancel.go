package usecase

import (
	"context"
	"errors"

	"github.com/slabmarket/settlement-service/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CancelOrder withdraws a resting order. Only the owner may cancel, and only
// while the order is still OPEN; losing the race against a concurrent match
// is a conflict, not a cancellation.
func (uc *DefaultMatchingUsecase) CancelOrder(ctx context.Context, userID, orderID string) error {
	order, err := uc.OrderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status.Error(codes.NotFound, "order not found")
		}
		return status.Errorf(codes.Internal, "failed to load order: %v", err)
	}

	if order.UserID != userID {
		return status.Error(codes.PermissionDenied, "order belongs to another user")
	}
	if order.Status != domain.OrderOpen {
		return status.Errorf(codes.FailedPrecondition, "order is %s, only OPEN orders can be cancelled", order.Status)
	}

	err = uc.OrderRepo.UpdateOrderStatus(orderID, domain.OrderOpen, domain.OrderCancelled)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return status.Error(codes.FailedPrecondition, "order was matched or cancelled concurrently")
		}
		if errors.Is(err, domain.ErrNotFound) {
			return status.Error(codes.NotFound, "order not found")
		}
		return status.Errorf(codes.Internal, "%v: %v", domain.ErrCancelOrder, err)
	}

	uc.recordOrderCancelled(order)
	return nil
}

func (uc *DefaultMatchingUsecase) recordOrderCancelled(order *domain.Order) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordOrderCancelled(string(order.Side))
}
