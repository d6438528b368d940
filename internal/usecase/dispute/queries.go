package usecase

import (
	"errors"

	"github.com/slabmarket/settlement-service/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (uc *DefaultDisputeUsecase) GetDisputeByID(disputeID string) (*domain.Dispute, error) {
	dispute, err := uc.DisputeRepo.GetDisputeByID(disputeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "dispute not found")
		}
		return nil, status.Errorf(codes.Internal, "failed to load dispute: %v", err)
	}
	return dispute, nil
}

func (uc *DefaultDisputeUsecase) ListDisputes(filters domain.DisputeFilters, page, limit int64) ([]*domain.Dispute, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	disputes, total, err := uc.DisputeRepo.ListDisputes(filters, page, limit)
	if err != nil {
		return nil, 0, status.Errorf(codes.Internal, "failed to list disputes: %v", err)
	}
	return disputes, total, nil
}
