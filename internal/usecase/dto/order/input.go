package orderdto

import "github.com/slabmarket/settlement-service/internal/domain"

type PlaceOrderInput struct {
	UserID         string
	CardID         string
	CardInstanceID string
	Side           domain.OrderSide
	LimitPrice     int64
}

// PlaceOrderOutput always carries the resting or filled order; Trade is set
// only when placement matched immediately.
type PlaceOrderOutput struct {
	Order *domain.Order
	Trade *domain.Trade
}

type ListOrdersInput struct {
	Filters domain.OrderFilters
	Page    int64
	Limit   int64
}
