package repository

import (
	"fmt"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/mappers"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultOrderRepository struct {
	DB *gorm.DB
}

func NewDefaultOrderRepository(db *gorm.DB) *DefaultOrderRepository {
	return &DefaultOrderRepository{DB: db}
}

func (r *DefaultOrderRepository) CreateOrder(order *domain.Order) error {
	orderModel := mappers.ToGORMOrder(order)
	if err := r.DB.Create(orderModel).Error; err != nil {
		return err
	}
	return nil
}

func (r *DefaultOrderRepository) GetOrderByID(orderID string) (*domain.Order, error) {
	var order models.OrderModel
	if err := r.DB.First(&order, "id = ?", orderID).Error; err != nil {
		return nil, translateErr(err)
	}

	return mappers.ToDomainOrder(&order), nil
}

// UpdateOrderStatus is a compare-and-swap on status. A stale expectation
// loses the race and surfaces as ErrConflict.
func (r *DefaultOrderRepository) UpdateOrderStatus(orderID string, expected, next domain.OrderStatus) error {
	res := r.DB.Model(&models.OrderModel{}).
		Where("id = ? AND status = ?", orderID, expected).
		Update("status", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var order models.OrderModel
		if err := r.DB.First(&order, "id = ?", orderID).Error; err != nil {
			return translateErr(err)
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *DefaultOrderRepository) GetOrderBook(cardID string) (*domain.OrderBook, error) {
	var bidModels []models.OrderModel
	if err := r.DB.
		Where("card_id = ? AND side = ? AND status = ?", cardID, domain.SideBuy, domain.OrderOpen).
		Order("limit_price DESC, created_at ASC").
		Find(&bidModels).Error; err != nil {
		return nil, fmt.Errorf("failed to load bids: %w", err)
	}

	var askModels []models.OrderModel
	if err := r.DB.
		Where("card_id = ? AND side = ? AND status = ?", cardID, domain.SideSell, domain.OrderOpen).
		Order("limit_price ASC, created_at ASC").
		Find(&askModels).Error; err != nil {
		return nil, fmt.Errorf("failed to load asks: %w", err)
	}

	book := &domain.OrderBook{
		CardID: cardID,
		Bids:   make([]*domain.Order, len(bidModels)),
		Asks:   make([]*domain.Order, len(askModels)),
	}
	for i := range bidModels {
		book.Bids[i] = mappers.ToDomainOrder(&bidModels[i])
	}
	for i := range askModels {
		book.Asks[i] = mappers.ToDomainOrder(&askModels[i])
	}

	return book, nil
}

// FindBestCounterOrder applies price-time priority: best price first, oldest
// order breaking the tie. Self-matching is excluded.
func (r *DefaultOrderRepository) FindBestCounterOrder(order *domain.Order) (*domain.Order, error) {
	query := r.DB.Model(&models.OrderModel{}).
		Where("card_id = ? AND status = ? AND user_id <> ?", order.CardID, domain.OrderOpen, order.UserID)

	switch order.Side {
	case domain.SideSell:
		query = query.
			Where("side = ? AND limit_price >= ?", domain.SideBuy, order.LimitPrice).
			Order("limit_price DESC, created_at ASC")
	case domain.SideBuy:
		query = query.
			Where("side = ? AND limit_price <= ?", domain.SideSell, order.LimitPrice).
			Order("limit_price ASC, created_at ASC")
	default:
		return nil, fmt.Errorf("unknown order side: %s", order.Side)
	}

	var counter models.OrderModel
	if err := query.First(&counter).Error; err != nil {
		if translateErr(err) == domain.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	return mappers.ToDomainOrder(&counter), nil
}

func (r *DefaultOrderRepository) ListOrders(filters domain.OrderFilters, page, limit int64) ([]*domain.Order, int64, error) {
	query := r.DB.Model(&models.OrderModel{})

	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.CardID != "" {
		query = query.Where("card_id = ?", filters.CardID)
	}
	if len(filters.Statuses) > 0 {
		query = query.Where("status IN (?)", filters.Statuses)
	}
	if filters.Side != "" {
		query = query.Where("side = ?", filters.Side)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * limit
	var orderModels []models.OrderModel
	if err := query.
		Order("created_at DESC").
		Offset(int(offset)).
		Limit(int(limit)).
		Find(&orderModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find orders: %w", err)
	}

	orders := make([]*domain.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = mappers.ToDomainOrder(&orderModels[i])
	}

	return orders, total, nil
}
