package domain

import "time"

type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

type OrderStatus string

const (
	OrderOpen            OrderStatus = "OPEN"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderFilled          OrderStatus = "FILLED"
	OrderCancelled       OrderStatus = "CANCELLED"
)

// Order is a single-unit limit order for one card listing. LimitPrice is in
// minor currency units (cents). SELL orders carry the physical instance the
// seller is offering; BUY orders have no instance until matched.
type Order struct {
	ID             string
	UserID         string
	CardID         string
	CardInstanceID string
	Side           OrderSide
	LimitPrice     int64
	Status         OrderStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderBook struct {
	CardID string
	Bids   []*Order // desc by price, then age
	Asks   []*Order // asc by price, then age
}

type OrderFilters struct {
	UserID   string
	CardID   string
	Statuses []OrderStatus
	Side     OrderSide
}

type OrderRepository interface {
	CreateOrder(order *Order) error
	GetOrderByID(orderID string) (*Order, error)
	// UpdateOrderStatus commits only if the stored status equals expected.
	// ErrConflict otherwise.
	UpdateOrderStatus(orderID string, expected, next OrderStatus) error
	GetOrderBook(cardID string) (*OrderBook, error)
	// FindBestCounterOrder returns the best-priced oldest OPEN order on the
	// opposite side compatible with the given order, or nil.
	FindBestCounterOrder(order *Order) (*Order, error)
	ListOrders(filters OrderFilters, page, limit int64) ([]*Order, int64, error)
}
