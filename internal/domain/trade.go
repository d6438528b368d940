package domain

import "time"

type TradeStatus string

const (
	TradePendingEscrow        TradeStatus = "PENDING_ESCROW"
	TradeAwaitingShipment     TradeStatus = "AWAITING_SHIPMENT"
	TradeAwaitingVerification TradeStatus = "AWAITING_VERIFICATION"
	TradeCompleted            TradeStatus = "COMPLETED"
	TradeCancelled            TradeStatus = "CANCELLED"
	TradeDisputed             TradeStatus = "DISPUTED"
)

// Trade is the aggregate root of a settlement: one matched buy/sell pair,
// one escrow, up to two shipments and at most one open dispute.
type Trade struct {
	ID             string
	Reference      string
	OrderBuyID     string
	OrderSellID    string
	CardInstanceID string
	Price          int64
	BuyerID        string
	SellerID       string
	Status         TradeStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (s TradeStatus) Terminal() bool {
	return s == TradeCompleted || s == TradeCancelled
}

type TradeFilters struct {
	UserID   string
	CardID   string
	Statuses []TradeStatus
}

type TradeRepository interface {
	GetTradeByID(tradeID string) (*Trade, error)
	// GetActiveTradeByInstanceID returns the non-terminal trade settling the
	// given card instance, or ErrNotFound.
	GetActiveTradeByInstanceID(instanceID string) (*Trade, error)
	UpdateTradeStatus(tradeID string, expected, next TradeStatus) error
	ListTrades(filters TradeFilters, page, limit int64) ([]*Trade, int64, error)
	// FindReleasableTrades returns trades in AWAITING_VERIFICATION whose card
	// is VERIFIED, with no open dispute and, when requireDelivery is set, a
	// DELIVERED outbound shipment. Used by the settlement nudger.
	FindReleasableTrades(requireDelivery bool) ([]*Trade, error)

	// ExecuteMatch atomically fills both orders, creates the trade with its
	// escrow and rebinds the card instance, calling authorize inside the same
	// transaction. Any failure, including a gateway decline, rolls the whole
	// match back and both orders stay OPEN.
	ExecuteMatch(buyOrderID, sellOrderID string, trade *Trade, escrow *Escrow, authorize func() (string, error)) error
}
