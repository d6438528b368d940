package mappers

import (
	"encoding/json"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/models"
)

func ToDomainDispute(model *models.DisputeModel) *domain.Dispute {
	var evidence []string
	if model.EvidenceJSON != "" {
		_ = json.Unmarshal([]byte(model.EvidenceJSON), &evidence)
	}
	return &domain.Dispute{
		ID:                  model.ID,
		TradeID:             model.TradeID,
		OpenedByUserID:      model.OpenedByUserID,
		Reason:              model.Reason,
		Description:         model.Description,
		Evidence:            evidence,
		Status:              model.Status,
		TradeStatusOriginal: model.TradeStatusOriginal,
		AdminNotes:          model.AdminNotes,
		ResolvedByAdminID:   model.ResolvedByAdminID,
		RefundAmount:        model.RefundAmount,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

func ToGORMDispute(dispute *domain.Dispute) *models.DisputeModel {
	evidenceJSON, _ := json.Marshal(dispute.Evidence)
	return &models.DisputeModel{
		ID:                  dispute.ID,
		TradeID:             dispute.TradeID,
		OpenedByUserID:      dispute.OpenedByUserID,
		Reason:              dispute.Reason,
		Description:         dispute.Description,
		EvidenceJSON:        string(evidenceJSON),
		Status:              dispute.Status,
		TradeStatusOriginal: dispute.TradeStatusOriginal,
		AdminNotes:          dispute.AdminNotes,
		ResolvedByAdminID:   dispute.ResolvedByAdminID,
		RefundAmount:        dispute.RefundAmount,
		CreatedAt:           dispute.CreatedAt,
		UpdatedAt:           dispute.UpdatedAt,
	}
}
