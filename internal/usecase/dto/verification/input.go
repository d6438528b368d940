package verificationdto

import "github.com/slabmarket/settlement-service/internal/domain"

type RegisterInstanceInput struct {
	CardID         string
	OwnerUserID    string
	GradingCompany string
	CertNumber     string
	Grade          string
}

type CompleteVerificationInput struct {
	InstanceID   string
	AdminID      string
	Outcome      domain.CardInstanceStatus
	Notes        string
	RejectReason string
}

type QueueInput struct {
	Scope   domain.VerificationQueueScope
	AdminID string
	Page    int64
	Limit   int64
}
