package repository

import (
	"fmt"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/mappers"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultTradeRepository struct {
	DB *gorm.DB
}

func NewDefaultTradeRepository(db *gorm.DB) *DefaultTradeRepository {
	return &DefaultTradeRepository{DB: db}
}

func (r *DefaultTradeRepository) GetTradeByID(tradeID string) (*domain.Trade, error) {
	var trade models.TradeModel
	if err := r.DB.First(&trade, "id = ?", tradeID).Error; err != nil {
		return nil, translateErr(err)
	}
	return mappers.ToDomainTrade(&trade), nil
}

func (r *DefaultTradeRepository) GetActiveTradeByInstanceID(instanceID string) (*domain.Trade, error) {
	var trade models.TradeModel
	err := r.DB.
		Where("card_instance_id = ?", instanceID).
		Where("status NOT IN (?)", []domain.TradeStatus{domain.TradeCompleted, domain.TradeCancelled}).
		Order("created_at DESC").
		First(&trade).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return mappers.ToDomainTrade(&trade), nil
}

func (r *DefaultTradeRepository) UpdateTradeStatus(tradeID string, expected, next domain.TradeStatus) error {
	res := r.DB.Model(&models.TradeModel{}).
		Where("id = ? AND status = ?", tradeID, expected).
		Update("status", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var trade models.TradeModel
		if err := r.DB.First(&trade, "id = ?", tradeID).Error; err != nil {
			return translateErr(err)
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *DefaultTradeRepository) ListTrades(filters domain.TradeFilters, page, limit int64) ([]*domain.Trade, int64, error) {
	query := r.DB.Model(&models.TradeModel{})

	if filters.UserID != "" {
		query = query.Where("buyer_id = ? OR seller_id = ?", filters.UserID, filters.UserID)
	}
	if filters.CardID != "" {
		query = query.
			Joins("JOIN card_instance_models ON card_instance_models.id = trade_models.card_instance_id").
			Where("card_instance_models.card_id = ?", filters.CardID)
	}
	if len(filters.Statuses) > 0 {
		query = query.Where("trade_models.status IN (?)", filters.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count trades: %w", err)
	}

	offset := (page - 1) * limit
	var tradeModels []models.TradeModel
	if err := query.
		Order("trade_models.created_at DESC").
		Offset(int(offset)).
		Limit(int(limit)).
		Find(&tradeModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find trades: %w", err)
	}

	trades := make([]*domain.Trade, len(tradeModels))
	for i := range tradeModels {
		trades[i] = mappers.ToDomainTrade(&tradeModels[i])
	}

	return trades, total, nil
}

func (r *DefaultTradeRepository) FindReleasableTrades(requireDelivery bool) ([]*domain.Trade, error) {
	query := r.DB.Model(&models.TradeModel{}).
		Joins("JOIN escrow_models ON escrow_models.trade_id = trade_models.id").
		Joins("JOIN card_instance_models ON card_instance_models.id = trade_models.card_instance_id").
		Where("trade_models.status = ?", domain.TradeAwaitingVerification).
		Where("escrow_models.status = ?", domain.EscrowHeld).
		Where("card_instance_models.status = ?", domain.CardVerified).
		Where("NOT EXISTS (SELECT 1 FROM dispute_models WHERE dispute_models.trade_id = trade_models.id AND dispute_models.status = ?)", domain.DisputeOpen)

	if requireDelivery {
		query = query.Where(
			"EXISTS (SELECT 1 FROM shipment_models WHERE shipment_models.trade_id = trade_models.id AND shipment_models.direction = ? AND shipment_models.status = ?)",
			domain.DirectionOutbound, domain.ShipmentDelivered,
		)
	}

	var tradeModels []models.TradeModel
	if err := query.Find(&tradeModels).Error; err != nil {
		return nil, err
	}

	trades := make([]*domain.Trade, len(tradeModels))
	for i := range tradeModels {
		trades[i] = mappers.ToDomainTrade(&tradeModels[i])
	}
	return trades, nil
}

// ExecuteMatch commits a match as one transaction: both orders are re-checked
// under row locks, filled, the trade and its escrow created, and the gateway
// authorization executed last. Any failure, a gateway decline included, rolls
// the whole match back and leaves both orders OPEN.
func (r *DefaultTradeRepository) ExecuteMatch(
	buyOrderID, sellOrderID string,
	trade *domain.Trade,
	escrow *domain.Escrow,
	authorize func() (string, error),
) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var buy, sell models.OrderModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&buy, "id = ?", buyOrderID).Error; err != nil {
			return translateErr(err)
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&sell, "id = ?", sellOrderID).Error; err != nil {
			return translateErr(err)
		}

		// Re-check under lock: a concurrent match or cancel wins the race.
		if buy.Status != domain.OrderOpen || sell.Status != domain.OrderOpen {
			return domain.ErrConflict
		}

		for _, orderID := range []string{buyOrderID, sellOrderID} {
			res := tx.Model(&models.OrderModel{}).
				Where("id = ? AND status = ?", orderID, domain.OrderOpen).
				Update("status", domain.OrderFilled)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrConflict
			}
		}

		tradeModel := mappers.ToGORMTrade(trade)
		tradeModel.Status = domain.TradePendingEscrow
		if err := tx.Create(tradeModel).Error; err != nil {
			return fmt.Errorf("failed to create trade: %w", err)
		}

		escrowModel := mappers.ToGORMEscrow(escrow)
		if err := tx.Create(escrowModel).Error; err != nil {
			return fmt.Errorf("failed to create escrow: %w", err)
		}

		ref, err := authorize()
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrAuthorizeFail, err)
		}

		if err := tx.Model(&models.EscrowModel{}).
			Where("id = ?", escrow.ID).
			Update("payment_intent_ref", ref).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.TradeModel{}).
			Where("id = ?", trade.ID).
			Update("status", domain.TradeAwaitingShipment).Error; err != nil {
			return err
		}

		escrow.PaymentIntentRef = ref
		trade.Status = domain.TradeAwaitingShipment
		return nil
	})
}
