package domain

import "errors"

// Store-level sentinels. Usecases recover these into the wire taxonomy
// (grpc status codes) at the workflow boundary.
var (
	ErrNotFound       = errors.New("aggregate not found")
	ErrConflict       = errors.New("concurrent modification conflict")
	ErrAuthorizeFail  = errors.New("escrow authorization failed")
	ErrReleaseFailed  = errors.New("escrow release failed")
	ErrRefundFailed   = errors.New("escrow refund failed")
	ErrOpenDispute    = errors.New("failed to open dispute")
	ErrResolveDispute = errors.New("failed to resolve dispute")
	ErrCancelOrder    = errors.New("failed to cancel order")
)
