package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/slabmarket/settlement-service/internal/domain"
)

type GatewayCall struct {
	Op     string
	Ref    string
	UserID string
	Amount int64
	Key    string
}

// FakeGateway records every money-moving call and fails on demand.
type FakeGateway struct {
	mu    sync.Mutex
	Calls []GatewayCall

	AuthorizeErr error
	CaptureErr   error
	TransferErr  error
	RefundErr    error
}

func (g *FakeGateway) Authorize(_ context.Context, buyerID string, amount int64, idempotencyKey string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.AuthorizeErr != nil {
		return "", g.AuthorizeErr
	}
	ref := "pi_" + uuid.NewString()
	g.Calls = append(g.Calls, GatewayCall{Op: "authorize", Ref: ref, UserID: buyerID, Amount: amount, Key: idempotencyKey})
	return ref, nil
}

func (g *FakeGateway) Capture(_ context.Context, paymentIntentRef, idempotencyKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CaptureErr != nil {
		return g.CaptureErr
	}
	g.Calls = append(g.Calls, GatewayCall{Op: "capture", Ref: paymentIntentRef, Key: idempotencyKey})
	return nil
}

func (g *FakeGateway) Transfer(_ context.Context, sellerID string, amount int64, idempotencyKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.TransferErr != nil {
		return g.TransferErr
	}
	g.Calls = append(g.Calls, GatewayCall{Op: "transfer", UserID: sellerID, Amount: amount, Key: idempotencyKey})
	return nil
}

func (g *FakeGateway) Refund(_ context.Context, paymentIntentRef string, amount int64, idempotencyKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.RefundErr != nil {
		return g.RefundErr
	}
	g.Calls = append(g.Calls, GatewayCall{Op: "refund", Ref: paymentIntentRef, Amount: amount, Key: idempotencyKey})
	return nil
}

func (g *FakeGateway) CallsFor(op string) []GatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	var matched []GatewayCall
	for _, call := range g.Calls {
		if call.Op == op {
			matched = append(matched, call)
		}
	}
	return matched
}

// FakeRegistry serves a single canned cert record.
type FakeRegistry struct {
	Record *domain.CertRecord
	Err    error
}

func (r *FakeRegistry) LookupCert(_ context.Context, gradingCompany, certNumber string) (*domain.CertRecord, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Record == nil || r.Record.GradingCompany != gradingCompany || r.Record.CertNumber != certNumber {
		return nil, domain.ErrNotFound
	}
	cp := *r.Record
	return &cp, nil
}
