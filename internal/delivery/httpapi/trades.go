package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/slabmarket/settlement-service/internal/domain"
)

func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	trade, err := h.Matching.GetTradeByID(mux.Vars(r)["tradeId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTradeView(trade))
}

func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	page, limit := pagination(r)
	filters := domain.TradeFilters{
		UserID: uid,
		CardID: r.URL.Query().Get("card_id"),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filters.Statuses = []domain.TradeStatus{domain.TradeStatus(s)}
	}

	trades, total, err := h.Matching.ListTrades(filters, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trades": toTradeViews(trades),
		"meta":   listMeta{Page: page, Limit: limit, Total: total},
	})
}

func (h *Handler) GetEscrow(w http.ResponseWriter, r *http.Request) {
	escrow, err := h.Escrow.GetEscrowByTradeID(mux.Vars(r)["tradeId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEscrowView(escrow))
}

func (h *Handler) ReleaseEscrow(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	if err := h.Escrow.Release(r.Context(), mux.Vars(r)["tradeId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

type cancelTradeRequest struct {
	Reason       string `json:"reason"`
	RefundAmount *int64 `json:"refund_amount,omitempty"`
}

func (h *Handler) CancelTrade(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req cancelTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if req.Reason == "" {
		req.Reason = "admin_cancel"
	}

	if err := h.Escrow.Cancel(r.Context(), mux.Vars(r)["tradeId"], req.Reason, req.RefundAmount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
