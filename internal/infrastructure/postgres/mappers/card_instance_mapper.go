package mappers

import (
	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/models"
)

func ToDomainCardInstance(model *models.CardInstanceModel) *domain.CardInstance {
	return &domain.CardInstance{
		ID:               model.ID,
		CardID:           model.CardID,
		OwnerUserID:      model.OwnerUserID,
		GradingCompany:   model.GradingCompany,
		CertNumber:       model.CertNumber,
		Grade:            model.Grade,
		Status:           model.Status,
		ClaimedByAdminID: model.ClaimedByAdminID,
		ClaimedAt:        model.ClaimedAt,
		VerifierNotes:    model.VerifierNotes,
		RejectReason:     model.RejectReason,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func ToGORMCardInstance(instance *domain.CardInstance) *models.CardInstanceModel {
	return &models.CardInstanceModel{
		ID:               instance.ID,
		CardID:           instance.CardID,
		OwnerUserID:      instance.OwnerUserID,
		GradingCompany:   instance.GradingCompany,
		CertNumber:       instance.CertNumber,
		Grade:            instance.Grade,
		Status:           instance.Status,
		ClaimedByAdminID: instance.ClaimedByAdminID,
		ClaimedAt:        instance.ClaimedAt,
		VerifierNotes:    instance.VerifierNotes,
		RejectReason:     instance.RejectReason,
		CreatedAt:        instance.CreatedAt,
		UpdatedAt:        instance.UpdatedAt,
	}
}
