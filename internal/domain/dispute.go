package domain

import "time"

type DisputeReason string

const (
	ReasonShippingDamage   DisputeReason = "SHIPPING_DAMAGE"
	ReasonWrongCard        DisputeReason = "WRONG_CARD"
	ReasonGradeDiscrepancy DisputeReason = "GRADE_DISCREPANCY"
	ReasonNonDelivery      DisputeReason = "NON_DELIVERY"
	ReasonOther            DisputeReason = "OTHER"
)

type DisputeStatus string

const (
	DisputeOpen                DisputeStatus = "OPEN"
	DisputeResolvedRefund      DisputeStatus = "RESOLVED_REFUND"
	DisputeResolvedReplacement DisputeStatus = "RESOLVED_REPLACEMENT"
	DisputeResolvedRejected    DisputeStatus = "RESOLVED_REJECTED"
)

func (s DisputeStatus) Resolved() bool {
	return s != DisputeOpen
}

type Dispute struct {
	ID             string
	TradeID        string
	OpenedByUserID string
	Reason         DisputeReason
	Description    string
	Evidence       []string
	Status         DisputeStatus
	// TradeStatusOriginal records where the trade stood when the dispute
	// froze it.
	TradeStatusOriginal TradeStatus
	AdminNotes          string
	ResolvedByAdminID   string
	RefundAmount        *int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type DisputeFilters struct {
	TradeID string
	UserID  string
	Status  DisputeStatus
}

type DisputeRepository interface {
	// CreateDispute inserts the dispute and moves the trade to DISPUTED in one
	// transaction. ErrConflict if the trade already has an OPEN dispute or
	// left the expected status.
	CreateDispute(dispute *Dispute, expectedTradeStatus TradeStatus) error
	GetDisputeByID(disputeID string) (*Dispute, error)
	GetOpenDisputeByTradeID(tradeID string) (*Dispute, error)
	// ResolveDispute commits the resolution only while the dispute is OPEN.
	ResolveDispute(disputeID string, next DisputeStatus, adminID, adminNotes string, refundAmount *int64) error
	ListDisputes(filters DisputeFilters, page, limit int64) ([]*Dispute, int64, error)
}
