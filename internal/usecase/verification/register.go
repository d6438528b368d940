package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/slabmarket/settlement-service/internal/domain"
	verificationdto "github.com/slabmarket/settlement-service/internal/usecase/dto/verification"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RegisterInstance records a physical slab in the owner's name. The grading
// registry is consulted when reachable; an unknown cert is rejected outright,
// a registry outage only logs.
func (uc *DefaultVerificationUsecase) RegisterInstance(ctx context.Context, input *verificationdto.RegisterInstanceInput) (*domain.CardInstance, error) {
	if input.CardID == "" || input.OwnerUserID == "" {
		return nil, status.Error(codes.InvalidArgument, "card_id and owner_user_id are required")
	}
	if input.GradingCompany == "" || input.CertNumber == "" {
		return nil, status.Error(codes.InvalidArgument, "grading_company and cert_number are required")
	}

	if uc.Registry != nil {
		record, err := uc.Registry.LookupCert(ctx, input.GradingCompany, input.CertNumber)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, status.Error(codes.InvalidArgument, "cert number is not known to the grading authority")
		case err != nil:
			slog.Warn("grading registry unreachable, registering without cert check",
				"grading_company", input.GradingCompany,
				"cert_number", input.CertNumber,
				"error", err.Error(),
			)
		case !record.Valid:
			return nil, status.Error(codes.InvalidArgument, "cert has been invalidated by the grading authority")
		}
	}

	instance := &domain.CardInstance{
		ID:             uuid.New().String(),
		CardID:         input.CardID,
		OwnerUserID:    input.OwnerUserID,
		GradingCompany: input.GradingCompany,
		CertNumber:     input.CertNumber,
		Grade:          input.Grade,
		Status:         domain.CardUnverified,
		CreatedAt:      time.Now(),
	}

	if err := uc.CardRepo.CreateCardInstance(instance); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to register card instance: %v", err)
	}
	return instance, nil
}

func (uc *DefaultVerificationUsecase) GetInstanceByID(instanceID string) (*domain.CardInstance, error) {
	instance, err := uc.CardRepo.GetCardInstanceByID(instanceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "card instance not found")
		}
		return nil, status.Errorf(codes.Internal, "failed to load card instance: %v", err)
	}
	return instance, nil
}

func (uc *DefaultVerificationUsecase) LookupCert(ctx context.Context, gradingCompany, certNumber string) (*domain.CertRecord, error) {
	if uc.Registry == nil {
		return nil, status.Error(codes.Unavailable, "grading registry is not configured")
	}
	record, err := uc.Registry.LookupCert(ctx, gradingCompany, certNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "cert not found")
		}
		return nil, status.Errorf(codes.Unavailable, "grading registry lookup failed: %v", err)
	}
	return record, nil
}
