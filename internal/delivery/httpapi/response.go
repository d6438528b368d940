package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Machine-readable error codes. Stable across releases; clients switch on
// these, not on messages.
const (
	codeValidation   = "VALIDATION_ERROR"
	codeConflict     = "CONFLICT"
	codeNotFound     = "NOT_FOUND"
	codeForbidden    = "FORBIDDEN"
	codeUnauthorized = "UNAUTHORIZED"
	codeRateLimited  = "RATE_LIMITED"
	codeUpstream     = "UPSTREAM_UNAVAILABLE"
	codeInternal     = "INTERNAL_ERROR"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type listMeta struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err.Error())
	}
}

// writeError translates the usecase layer's grpc-status vocabulary into HTTP.
func writeError(w http.ResponseWriter, err error) {
	st, ok := status.FromError(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: codeInternal, Message: err.Error()})
		return
	}

	var httpStatus int
	var code string
	switch st.Code() {
	case codes.InvalidArgument:
		httpStatus, code = http.StatusBadRequest, codeValidation
	case codes.NotFound:
		httpStatus, code = http.StatusNotFound, codeNotFound
	case codes.FailedPrecondition, codes.Aborted:
		httpStatus, code = http.StatusConflict, codeConflict
	case codes.PermissionDenied:
		httpStatus, code = http.StatusForbidden, codeForbidden
	case codes.Unauthenticated:
		httpStatus, code = http.StatusUnauthorized, codeUnauthorized
	case codes.ResourceExhausted:
		httpStatus, code = http.StatusTooManyRequests, codeRateLimited
	case codes.Unavailable:
		httpStatus, code = http.StatusServiceUnavailable, codeUpstream
	default:
		httpStatus, code = http.StatusInternalServerError, codeInternal
	}

	if httpStatus == http.StatusInternalServerError {
		slog.Error("request failed", "error", st.Message())
	}
	writeJSON(w, httpStatus, errorBody{Code: code, Message: st.Message()})
}

func writeValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Code: codeValidation, Message: message})
}
