package repository

import (
	"fmt"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/mappers"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultDisputeRepository struct {
	db *gorm.DB
}

func NewDefaultDisputeRepository(db *gorm.DB) *DefaultDisputeRepository {
	return &DefaultDisputeRepository{db: db}
}

// CreateDispute inserts the dispute and flips the trade to DISPUTED in one
// transaction. The trade row lock serializes concurrent opens, so the
// at-most-one-OPEN invariant holds without a partial unique index.
func (r *DefaultDisputeRepository) CreateDispute(dispute *domain.Dispute, expectedTradeStatus domain.TradeStatus) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var tradeModel models.TradeModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&tradeModel, "id = ?", dispute.TradeID).Error; err != nil {
			return translateErr(err)
		}

		var openCount int64
		if err := tx.Model(&models.DisputeModel{}).
			Where("trade_id = ? AND status = ?", dispute.TradeID, domain.DisputeOpen).
			Count(&openCount).Error; err != nil {
			return err
		}
		if openCount > 0 {
			return domain.ErrConflict
		}

		res := tx.Model(&models.TradeModel{}).
			Where("id = ? AND status = ?", dispute.TradeID, expectedTradeStatus).
			Update("status", domain.TradeDisputed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}

		disputeModel := mappers.ToGORMDispute(dispute)
		if err := tx.Create(disputeModel).Error; err != nil {
			return fmt.Errorf("failed to create dispute: %w", err)
		}
		dispute.ID = disputeModel.ID
		return nil
	})
}

func (r *DefaultDisputeRepository) GetDisputeByID(disputeID string) (*domain.Dispute, error) {
	var disputeModel models.DisputeModel
	if err := r.db.First(&disputeModel, "id = ?", disputeID).Error; err != nil {
		return nil, translateErr(err)
	}
	return mappers.ToDomainDispute(&disputeModel), nil
}

func (r *DefaultDisputeRepository) GetOpenDisputeByTradeID(tradeID string) (*domain.Dispute, error) {
	var disputeModel models.DisputeModel
	if err := r.db.First(&disputeModel, "trade_id = ? AND status = ?", tradeID, domain.DisputeOpen).Error; err != nil {
		return nil, translateErr(err)
	}
	return mappers.ToDomainDispute(&disputeModel), nil
}

// ResolveDispute commits only while the dispute is still OPEN; a resolved
// dispute cannot be resolved again.
func (r *DefaultDisputeRepository) ResolveDispute(disputeID string, next domain.DisputeStatus, adminID, adminNotes string, refundAmount *int64) error {
	updates := map[string]interface{}{
		"status":               next,
		"resolved_by_admin_id": adminID,
		"admin_notes":          adminNotes,
	}
	if refundAmount != nil {
		updates["refund_amount"] = *refundAmount
	}

	res := r.db.Model(&models.DisputeModel{}).
		Where("id = ? AND status = ?", disputeID, domain.DisputeOpen).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var disputeModel models.DisputeModel
		if err := r.db.First(&disputeModel, "id = ?", disputeID).Error; err != nil {
			return translateErr(err)
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *DefaultDisputeRepository) ListDisputes(filters domain.DisputeFilters, page, limit int64) ([]*domain.Dispute, int64, error) {
	query := r.db.Model(&models.DisputeModel{})

	if filters.TradeID != "" {
		query = query.Where("dispute_models.trade_id = ?", filters.TradeID)
	}
	if filters.UserID != "" {
		query = query.
			Joins("JOIN trade_models ON trade_models.id = dispute_models.trade_id").
			Where("trade_models.buyer_id = ? OR trade_models.seller_id = ?", filters.UserID, filters.UserID)
	}
	if filters.Status != "" {
		query = query.Where("dispute_models.status = ?", filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	offset := (page - 1) * limit
	query = query.Offset(int(offset)).Limit(int(limit))

	var disputeModels []models.DisputeModel
	if err := query.
		Order("dispute_models.created_at DESC").
		Find(&disputeModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find dispute models: %w", err)
	}

	disputes := make([]*domain.Dispute, len(disputeModels))
	for i := range disputeModels {
		disputes[i] = mappers.ToDomainDispute(&disputeModels[i])
	}

	return disputes, total, nil
}
