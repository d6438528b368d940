package repository

import (
	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/mappers"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultEscrowRepository struct {
	DB *gorm.DB
}

func NewDefaultEscrowRepository(db *gorm.DB) *DefaultEscrowRepository {
	return &DefaultEscrowRepository{DB: db}
}

func (r *DefaultEscrowRepository) GetEscrowByTradeID(tradeID string) (*domain.Escrow, error) {
	var escrowModel models.EscrowModel
	if err := r.DB.First(&escrowModel, "trade_id = ?", tradeID).Error; err != nil {
		return nil, translateErr(err)
	}
	return mappers.ToDomainEscrow(&escrowModel), nil
}

// ProcessEscrowCriticalOperation is the single money-moving commit path.
// Escrow and trade statuses are swapped under CAS and the gateway call runs
// inside the same transaction, so a gateway failure rolls both swaps back and
// a lost CAS never reaches the gateway. Escrow monotonicity falls out of the
// expected-status precondition: terminal states never match HELD.
func (r *DefaultEscrowRepository) ProcessEscrowCriticalOperation(
	escrowID string,
	expectedEscrow, nextEscrow domain.EscrowStatus,
	tradeID string,
	expectedTrade, nextTrade domain.TradeStatus,
	gatewayFunc func() error,
) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.EscrowModel{}).
			Where("id = ? AND status = ?", escrowID, expectedEscrow).
			Update("status", nextEscrow)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var escrowModel models.EscrowModel
			if err := tx.First(&escrowModel, "id = ?", escrowID).Error; err != nil {
				return translateErr(err)
			}
			return domain.ErrConflict
		}

		res = tx.Model(&models.TradeModel{}).
			Where("id = ? AND status = ?", tradeID, expectedTrade).
			Update("status", nextTrade)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}

		if gatewayFunc != nil {
			if err := gatewayFunc(); err != nil {
				return err
			}
		}

		return nil
	})
}
