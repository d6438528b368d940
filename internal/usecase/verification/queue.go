package usecase

import (
	"github.com/slabmarket/settlement-service/internal/domain"
	verificationdto "github.com/slabmarket/settlement-service/internal/usecase/dto/verification"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (uc *DefaultVerificationUsecase) Queue(input *verificationdto.QueueInput) ([]*domain.CardInstance, int64, error) {
	scope := input.Scope
	if scope == "" {
		scope = domain.QueueUnclaimed
	}
	if scope == domain.QueueMyClaims && input.AdminID == "" {
		return nil, 0, status.Error(codes.Unauthenticated, "admin identity is required for my_claims")
	}

	page, limit := input.Page, input.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	instances, total, err := uc.CardRepo.ListVerificationQueue(scope, input.AdminID, page, limit)
	if err != nil {
		return nil, 0, status.Errorf(codes.Internal, "failed to list verification queue: %v", err)
	}
	return instances, total, nil
}
