package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/slabmarket/settlement-service/internal/domain"
	orderdto "github.com/slabmarket/settlement-service/internal/usecase/dto/order"
)

type placeOrderRequest struct {
	CardID         string `json:"card_id"`
	CardInstanceID string `json:"card_instance_id"`
	Side           string `json:"side"`
	LimitPrice     int64  `json:"limit_price"`
}

type placeOrderResponse struct {
	Order orderView  `json:"order"`
	Trade *tradeView `json:"trade,omitempty"`
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}

	output, err := h.Matching.PlaceOrder(r.Context(), &orderdto.PlaceOrderInput{
		UserID:         uid,
		CardID:         req.CardID,
		CardInstanceID: req.CardInstanceID,
		Side:           domain.OrderSide(req.Side),
		LimitPrice:     req.LimitPrice,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := placeOrderResponse{Order: toOrderView(output.Order)}
	if output.Trade != nil {
		tv := toTradeView(output.Trade)
		resp.Trade = &tv
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	orderID := mux.Vars(r)["orderId"]

	if err := h.Matching.CancelOrder(r.Context(), uid, orderID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Matching.GetOrderByID(mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(order))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	page, limit := pagination(r)
	filters := domain.OrderFilters{
		UserID: uid,
		CardID: r.URL.Query().Get("card_id"),
		Side:   domain.OrderSide(r.URL.Query().Get("side")),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filters.Statuses = []domain.OrderStatus{domain.OrderStatus(s)}
	}

	orders, total, err := h.Matching.ListOrders(&orderdto.ListOrdersInput{
		Filters: filters,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders": toOrderViews(orders),
		"meta":   listMeta{Page: page, Limit: limit, Total: total},
	})
}

type orderBookResponse struct {
	CardID string      `json:"card_id"`
	Bids   []orderView `json:"bids"`
	Asks   []orderView `json:"asks"`
}

func (h *Handler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.Matching.GetOrderBook(mux.Vars(r)["cardId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderBookResponse{
		CardID: book.CardID,
		Bids:   toOrderViews(book.Bids),
		Asks:   toOrderViews(book.Asks),
	})
}

func pagination(r *http.Request) (int64, int64) {
	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
