package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/slabmarket/settlement-service/internal/domain"
	verificationdto "github.com/slabmarket/settlement-service/internal/usecase/dto/verification"
)

type registerInstanceRequest struct {
	CardID         string `json:"card_id"`
	GradingCompany string `json:"grading_company"`
	CertNumber     string `json:"cert_number"`
	Grade          string `json:"grade"`
}

func (h *Handler) RegisterCardInstance(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req registerInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}

	instance, err := h.Verification.RegisterInstance(r.Context(), &verificationdto.RegisterInstanceInput{
		CardID:         req.CardID,
		OwnerUserID:    uid,
		GradingCompany: req.GradingCompany,
		CertNumber:     req.CertNumber,
		Grade:          req.Grade,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardInstanceView(instance))
}

func (h *Handler) GetCardInstance(w http.ResponseWriter, r *http.Request) {
	instance, err := h.Verification.GetInstanceByID(mux.Vars(r)["instanceId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardInstanceView(instance))
}

func (h *Handler) VerificationQueue(w http.ResponseWriter, r *http.Request) {
	aid, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	page, limit := pagination(r)
	instances, total, err := h.Verification.Queue(&verificationdto.QueueInput{
		Scope:   domain.VerificationQueueScope(r.URL.Query().Get("scope")),
		AdminID: aid,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"instances": toCardInstanceViews(instances),
		"meta":      listMeta{Page: page, Limit: limit, Total: total},
	})
}

func (h *Handler) ClaimVerification(w http.ResponseWriter, r *http.Request) {
	aid, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	if err := h.Verification.Claim(r.Context(), aid, mux.Vars(r)["instanceId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "claimed"})
}

func (h *Handler) UnclaimVerification(w http.ResponseWriter, r *http.Request) {
	aid, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	if err := h.Verification.Unclaim(r.Context(), aid, mux.Vars(r)["instanceId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unclaimed"})
}

// completeVerificationRequest accepts both the current shape ("outcome") and
// the legacy client shapes ("approved" boolean, "passed"/"failed" strings)
// still sent by older admin tooling.
type completeVerificationRequest struct {
	Outcome      string `json:"outcome"`
	Approved     *bool  `json:"approved,omitempty"`
	Notes        string `json:"notes"`
	RejectReason string `json:"reject_reason"`
}

func (req *completeVerificationRequest) outcome() (domain.CardInstanceStatus, bool) {
	switch strings.ToUpper(req.Outcome) {
	case string(domain.CardVerified), "APPROVED", "PASSED":
		return domain.CardVerified, true
	case string(domain.CardRejected), "FAILED":
		return domain.CardRejected, true
	}
	if req.Approved != nil {
		if *req.Approved {
			return domain.CardVerified, true
		}
		return domain.CardRejected, true
	}
	return "", false
}

func (h *Handler) CompleteVerification(w http.ResponseWriter, r *http.Request) {
	aid, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req completeVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	outcome, ok := req.outcome()
	if !ok {
		writeValidationError(w, "outcome must be VERIFIED or REJECTED")
		return
	}

	err := h.Verification.Complete(r.Context(), &verificationdto.CompleteVerificationInput{
		InstanceID:   mux.Vars(r)["instanceId"],
		AdminID:      aid,
		Outcome:      outcome,
		Notes:        req.Notes,
		RejectReason: req.RejectReason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(outcome)})
}

func (h *Handler) LookupCert(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	vars := mux.Vars(r)
	record, err := h.Verification.LookupCert(r.Context(), vars["gradingCompany"], vars["certNumber"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCertView(record))
}
