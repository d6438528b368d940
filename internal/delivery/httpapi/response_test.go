package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestWriteErrorMapsStatusCodes(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		httpStatus int
		code       string
	}{
		{"invalid argument", status.Error(codes.InvalidArgument, "bad input"), http.StatusBadRequest, codeValidation},
		{"not found", status.Error(codes.NotFound, "gone"), http.StatusNotFound, codeNotFound},
		{"failed precondition", status.Error(codes.FailedPrecondition, "wrong state"), http.StatusConflict, codeConflict},
		{"aborted", status.Error(codes.Aborted, "lost race"), http.StatusConflict, codeConflict},
		{"permission denied", status.Error(codes.PermissionDenied, "not yours"), http.StatusForbidden, codeForbidden},
		{"unauthenticated", status.Error(codes.Unauthenticated, "who are you"), http.StatusUnauthorized, codeUnauthorized},
		{"resource exhausted", status.Error(codes.ResourceExhausted, "slow down"), http.StatusTooManyRequests, codeRateLimited},
		{"unavailable", status.Error(codes.Unavailable, "upstream down"), http.StatusServiceUnavailable, codeUpstream},
		{"internal", status.Error(codes.Internal, "boom"), http.StatusInternalServerError, codeInternal},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, codeInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)

			assert.Equal(t, tc.httpStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body errorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestCompleteVerificationOutcomeShapes(t *testing.T) {
	approved := true
	declined := false

	testCases := []struct {
		name string
		req  completeVerificationRequest
		want domain.CardInstanceStatus
		ok   bool
	}{
		{"verified", completeVerificationRequest{Outcome: "VERIFIED"}, domain.CardVerified, true},
		{"rejected", completeVerificationRequest{Outcome: "REJECTED"}, domain.CardRejected, true},
		{"lowercase", completeVerificationRequest{Outcome: "verified"}, domain.CardVerified, true},
		{"legacy approved string", completeVerificationRequest{Outcome: "APPROVED"}, domain.CardVerified, true},
		{"legacy passed", completeVerificationRequest{Outcome: "passed"}, domain.CardVerified, true},
		{"legacy failed", completeVerificationRequest{Outcome: "FAILED"}, domain.CardRejected, true},
		{"legacy approved bool", completeVerificationRequest{Approved: &approved}, domain.CardVerified, true},
		{"legacy declined bool", completeVerificationRequest{Approved: &declined}, domain.CardRejected, true},
		{"outcome wins over bool", completeVerificationRequest{Outcome: "REJECTED", Approved: &approved}, domain.CardRejected, true},
		{"empty", completeVerificationRequest{}, "", false},
		{"garbage", completeVerificationRequest{Outcome: "MAYBE"}, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.req.outcome()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRequireUser(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/orders", nil)

	_, ok := requireUser(rec, r)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	r.Header.Set(headerUserID, "user-1")
	uid, ok := requireUser(rec, r)
	assert.True(t, ok)
	assert.Equal(t, "user-1", uid)
}

func TestActorLimiter(t *testing.T) {
	limiter := newActorLimiter(1, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := limiter.Middleware(next)

	statusFor := func(user string) int {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/orders", nil)
		r.Header.Set(headerUserID, user)
		handler.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, statusFor("user-1"))
	assert.Equal(t, http.StatusOK, statusFor("user-1"))
	assert.Equal(t, http.StatusTooManyRequests, statusFor("user-1"))

	// A different actor has its own bucket.
	assert.Equal(t, http.StatusOK, statusFor("user-2"))
}
