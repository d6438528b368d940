package domain

import "time"

type CardInstanceStatus string

const (
	CardUnverified CardInstanceStatus = "UNVERIFIED"
	CardClaimed    CardInstanceStatus = "CLAIMED"
	CardVerified   CardInstanceStatus = "VERIFIED"
	CardRejected   CardInstanceStatus = "REJECTED"
)

// CardInstance is one physical graded card. The claim token
// (ClaimedByAdminID + ClaimedAt) is the only mutual-exclusion resource in
// the engine: at most one admin holds it, and it is only set while
// status is CLAIMED.
type CardInstance struct {
	ID               string
	CardID           string
	OwnerUserID      string
	GradingCompany   string
	CertNumber       string
	Grade            string
	Status           CardInstanceStatus
	ClaimedByAdminID string
	ClaimedAt        *time.Time
	VerifierNotes    string
	RejectReason     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type VerificationQueueScope string

const (
	QueueUnclaimed VerificationQueueScope = "unclaimed"
	QueueMyClaims  VerificationQueueScope = "my_claims"
	QueueAll       VerificationQueueScope = "all"
)

type CardInstanceRepository interface {
	CreateCardInstance(instance *CardInstance) error
	GetCardInstanceByID(instanceID string) (*CardInstance, error)
	// ClaimCardInstance acquires the claim token with a conditional update on
	// UNVERIFIED. ErrConflict if another admin got there first.
	ClaimCardInstance(instanceID, adminID string, at time.Time) error
	// ReleaseClaim clears the token; only the holder may release.
	ReleaseClaim(instanceID, adminID string) error
	// CompleteVerification moves CLAIMED -> VERIFIED/REJECTED for the holder
	// and clears the claim token in the same update.
	CompleteVerification(instanceID, adminID string, next CardInstanceStatus, notes, rejectReason string) error
	// ResetForReplacement returns a VERIFIED/REJECTED instance to UNVERIFIED
	// for a replacement verification cycle.
	ResetForReplacement(instanceID string) error
	ListVerificationQueue(scope VerificationQueueScope, adminID string, page, limit int64) ([]*CardInstance, int64, error)
	FindExpiredClaims(olderThan time.Time) ([]*CardInstance, error)
	UpdateOwner(instanceID, newOwnerUserID string) error
}
