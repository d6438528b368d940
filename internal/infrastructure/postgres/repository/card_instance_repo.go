package repository

import (
	"fmt"
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/mappers"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultCardInstanceRepository struct {
	DB *gorm.DB
}

func NewDefaultCardInstanceRepository(db *gorm.DB) *DefaultCardInstanceRepository {
	return &DefaultCardInstanceRepository{DB: db}
}

func (r *DefaultCardInstanceRepository) CreateCardInstance(instance *domain.CardInstance) error {
	instanceModel := mappers.ToGORMCardInstance(instance)
	return r.DB.Create(instanceModel).Error
}

func (r *DefaultCardInstanceRepository) GetCardInstanceByID(instanceID string) (*domain.CardInstance, error) {
	var instanceModel models.CardInstanceModel
	if err := r.DB.First(&instanceModel, "id = ?", instanceID).Error; err != nil {
		return nil, translateErr(err)
	}
	return mappers.ToDomainCardInstance(&instanceModel), nil
}

// ClaimCardInstance acquires the single-claimant token with one conditional
// update. Two racing admins both pass the read; only one update matches
// status=UNVERIFIED, the other gets ErrConflict.
func (r *DefaultCardInstanceRepository) ClaimCardInstance(instanceID, adminID string, at time.Time) error {
	res := r.DB.Model(&models.CardInstanceModel{}).
		Where("id = ? AND status = ?", instanceID, domain.CardUnverified).
		Updates(map[string]interface{}{
			"status":              domain.CardClaimed,
			"claimed_by_admin_id": adminID,
			"claimed_at":          at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var instanceModel models.CardInstanceModel
		if err := r.DB.First(&instanceModel, "id = ?", instanceID).Error; err != nil {
			return translateErr(err)
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *DefaultCardInstanceRepository) ReleaseClaim(instanceID, adminID string) error {
	res := r.DB.Model(&models.CardInstanceModel{}).
		Where("id = ? AND status = ? AND claimed_by_admin_id = ?", instanceID, domain.CardClaimed, adminID).
		Updates(map[string]interface{}{
			"status":              domain.CardUnverified,
			"claimed_by_admin_id": "",
			"claimed_at":          nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var instanceModel models.CardInstanceModel
		if err := r.DB.First(&instanceModel, "id = ?", instanceID).Error; err != nil {
			return translateErr(err)
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *DefaultCardInstanceRepository) CompleteVerification(instanceID, adminID string, next domain.CardInstanceStatus, notes, rejectReason string) error {
	if next != domain.CardVerified && next != domain.CardRejected {
		return fmt.Errorf("invalid verification outcome: %s", next)
	}
	res := r.DB.Model(&models.CardInstanceModel{}).
		Where("id = ? AND status = ? AND claimed_by_admin_id = ?", instanceID, domain.CardClaimed, adminID).
		Updates(map[string]interface{}{
			"status":              next,
			"claimed_by_admin_id": "",
			"claimed_at":          nil,
			"verifier_notes":      notes,
			"reject_reason":       rejectReason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var instanceModel models.CardInstanceModel
		if err := r.DB.First(&instanceModel, "id = ?", instanceID).Error; err != nil {
			return translateErr(err)
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *DefaultCardInstanceRepository) ResetForReplacement(instanceID string) error {
	res := r.DB.Model(&models.CardInstanceModel{}).
		Where("id = ? AND status IN (?)", instanceID, []domain.CardInstanceStatus{domain.CardVerified, domain.CardRejected}).
		Updates(map[string]interface{}{
			"status":         domain.CardUnverified,
			"verifier_notes": "",
			"reject_reason":  "",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *DefaultCardInstanceRepository) ListVerificationQueue(scope domain.VerificationQueueScope, adminID string, page, limit int64) ([]*domain.CardInstance, int64, error) {
	// The queue is scoped to instances whose trade actually awaits
	// verification; freshly registered instances with no settling trade do
	// not show up.
	query := r.DB.Model(&models.CardInstanceModel{}).
		Joins("JOIN trade_models ON trade_models.card_instance_id = card_instance_models.id AND trade_models.status = ?", domain.TradeAwaitingVerification)

	switch scope {
	case domain.QueueUnclaimed:
		query = query.Where("card_instance_models.status = ?", domain.CardUnverified)
	case domain.QueueMyClaims:
		query = query.Where("card_instance_models.status = ? AND card_instance_models.claimed_by_admin_id = ?", domain.CardClaimed, adminID)
	case domain.QueueAll:
		query = query.Where("card_instance_models.status IN (?)", []domain.CardInstanceStatus{domain.CardUnverified, domain.CardClaimed})
	default:
		return nil, 0, fmt.Errorf("unknown queue scope: %s", scope)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count queue: %w", err)
	}

	offset := (page - 1) * limit
	var instanceModels []models.CardInstanceModel
	if err := query.
		Order("card_instance_models.created_at ASC").
		Offset(int(offset)).
		Limit(int(limit)).
		Find(&instanceModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find queue entries: %w", err)
	}

	instances := make([]*domain.CardInstance, len(instanceModels))
	for i := range instanceModels {
		instances[i] = mappers.ToDomainCardInstance(&instanceModels[i])
	}

	return instances, total, nil
}

func (r *DefaultCardInstanceRepository) FindExpiredClaims(olderThan time.Time) ([]*domain.CardInstance, error) {
	var instanceModels []models.CardInstanceModel
	if err := r.DB.
		Where("status = ?", domain.CardClaimed).
		Where("claimed_at < ?", olderThan).
		Find(&instanceModels).Error; err != nil {
		return nil, err
	}

	instances := make([]*domain.CardInstance, len(instanceModels))
	for i := range instanceModels {
		instances[i] = mappers.ToDomainCardInstance(&instanceModels[i])
	}
	return instances, nil
}

func (r *DefaultCardInstanceRepository) UpdateOwner(instanceID, newOwnerUserID string) error {
	res := r.DB.Model(&models.CardInstanceModel{}).
		Where("id = ?", instanceID).
		Update("owner_user_id", newOwnerUserID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
