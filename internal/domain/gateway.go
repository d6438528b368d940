package domain

import "context"

// PaymentGateway is the opaque payment-processor capability. Accounts and
// payment methods are resolved by user id on the gateway side; every
// money-moving call carries an idempotency key so an ambiguous failure can be
// retried as a safe no-op.
type PaymentGateway interface {
	Authorize(ctx context.Context, buyerID string, amount int64, idempotencyKey string) (paymentIntentRef string, err error)
	Capture(ctx context.Context, paymentIntentRef string, idempotencyKey string) error
	Transfer(ctx context.Context, sellerID string, amount int64, idempotencyKey string) error
	Refund(ctx context.Context, paymentIntentRef string, amount int64, idempotencyKey string) error
}

// CertRecord is the external grading-authority registry view of a slab.
type CertRecord struct {
	GradingCompany   string
	CertNumber       string
	CardName         string
	Grade            string
	PopulationHigher int64
	Valid            bool
}

// GradingRegistry answers read-only cert lookups; it never mutates engine
// state.
type GradingRegistry interface {
	LookupCert(ctx context.Context, gradingCompany, certNumber string) (*CertRecord, error)
}
