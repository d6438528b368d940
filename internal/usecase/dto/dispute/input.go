package disputedto

import "github.com/slabmarket/settlement-service/internal/domain"

type OpenDisputeInput struct {
	TradeID     string
	UserID      string
	Reason      domain.DisputeReason
	Description string
	Evidence    []string
}

type ResolveDisputeInput struct {
	DisputeID    string
	AdminID      string
	Resolution   domain.DisputeStatus
	AdminNotes   string
	RefundAmount *int64
}
