package domain

import "time"

type EscrowStatus string

const (
	EscrowHeld              EscrowStatus = "HELD"
	EscrowReleased          EscrowStatus = "RELEASED"
	EscrowRefunded          EscrowStatus = "REFUNDED"
	EscrowPartiallyRefunded EscrowStatus = "PARTIALLY_REFUNDED"
)

// Escrow holds the buyer's authorized funds for exactly one trade.
// Status transitions are monotonic: once HELD is left it is never re-entered.
type Escrow struct {
	ID               string
	TradeID          string
	Amount           int64
	Status           EscrowStatus
	PaymentIntentRef string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (s EscrowStatus) Terminal() bool {
	return s != EscrowHeld
}

type EscrowRepository interface {
	GetEscrowByTradeID(tradeID string) (*Escrow, error)
	// ProcessEscrowCriticalOperation transitions escrow and trade statuses
	// under compare-and-swap and runs the gateway call inside the same
	// transaction. RowsAffected of zero on either update aborts with
	// ErrConflict; a gateway failure rolls everything back so money is never
	// moved against a state that did not commit.
	ProcessEscrowCriticalOperation(
		escrowID string,
		expectedEscrow, nextEscrow EscrowStatus,
		tradeID string,
		expectedTrade, nextTrade TradeStatus,
		gatewayFunc func() error,
	) error
}
