package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/slabmarket/settlement-service/internal/domain"
	disputedto "github.com/slabmarket/settlement-service/internal/usecase/dto/dispute"
)

type openDisputeRequest struct {
	Reason      string   `json:"reason"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence"`
}

func (h *Handler) OpenDispute(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req openDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}

	dispute, err := h.Disputes.Open(r.Context(), &disputedto.OpenDisputeInput{
		TradeID:     mux.Vars(r)["tradeId"],
		UserID:      uid,
		Reason:      domain.DisputeReason(req.Reason),
		Description: req.Description,
		Evidence:    req.Evidence,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDisputeView(dispute))
}

type resolveDisputeRequest struct {
	Resolution   string `json:"resolution"`
	AdminNotes   string `json:"admin_notes"`
	RefundAmount *int64 `json:"refund_amount,omitempty"`
}

func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	aid, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req resolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}

	err := h.Disputes.Resolve(r.Context(), &disputedto.ResolveDisputeInput{
		DisputeID:    mux.Vars(r)["disputeId"],
		AdminID:      aid,
		Resolution:   domain.DisputeStatus(req.Resolution),
		AdminNotes:   req.AdminNotes,
		RefundAmount: req.RefundAmount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Resolution})
}

func (h *Handler) GetDispute(w http.ResponseWriter, r *http.Request) {
	dispute, err := h.Disputes.GetDisputeByID(mux.Vars(r)["disputeId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDisputeView(dispute))
}

func (h *Handler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	page, limit := pagination(r)
	filters := domain.DisputeFilters{
		TradeID: r.URL.Query().Get("trade_id"),
		UserID:  r.URL.Query().Get("user_id"),
		Status:  domain.DisputeStatus(r.URL.Query().Get("status")),
	}

	disputes, total, err := h.Disputes.ListDisputes(filters, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"disputes": toDisputeViews(disputes),
		"meta":     listMeta{Page: page, Limit: limit, Total: total},
	})
}
