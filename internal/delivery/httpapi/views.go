package httpapi

import (
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
)

type orderView struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CardID         string    `json:"card_id"`
	CardInstanceID string    `json:"card_instance_id,omitempty"`
	Side           string    `json:"side"`
	LimitPrice     int64     `json:"limit_price"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func toOrderView(o *domain.Order) orderView {
	return orderView{
		ID:             o.ID,
		UserID:         o.UserID,
		CardID:         o.CardID,
		CardInstanceID: o.CardInstanceID,
		Side:           string(o.Side),
		LimitPrice:     o.LimitPrice,
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt,
	}
}

func toOrderViews(orders []*domain.Order) []orderView {
	views := make([]orderView, len(orders))
	for i, o := range orders {
		views[i] = toOrderView(o)
	}
	return views
}

type tradeView struct {
	ID             string    `json:"id"`
	Reference      string    `json:"reference"`
	OrderBuyID     string    `json:"order_buy_id"`
	OrderSellID    string    `json:"order_sell_id"`
	CardInstanceID string    `json:"card_instance_id"`
	Price          int64     `json:"price"`
	BuyerID        string    `json:"buyer_id"`
	SellerID       string    `json:"seller_id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func toTradeView(t *domain.Trade) tradeView {
	return tradeView{
		ID:             t.ID,
		Reference:      t.Reference,
		OrderBuyID:     t.OrderBuyID,
		OrderSellID:    t.OrderSellID,
		CardInstanceID: t.CardInstanceID,
		Price:          t.Price,
		BuyerID:        t.BuyerID,
		SellerID:       t.SellerID,
		Status:         string(t.Status),
		CreatedAt:      t.CreatedAt,
	}
}

func toTradeViews(trades []*domain.Trade) []tradeView {
	views := make([]tradeView, len(trades))
	for i, t := range trades {
		views[i] = toTradeView(t)
	}
	return views
}

type escrowView struct {
	ID        string    `json:"id"`
	TradeID   string    `json:"trade_id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toEscrowView(e *domain.Escrow) escrowView {
	return escrowView{
		ID:        e.ID,
		TradeID:   e.TradeID,
		Amount:    e.Amount,
		Status:    string(e.Status),
		CreatedAt: e.CreatedAt,
	}
}

type cardInstanceView struct {
	ID               string     `json:"id"`
	CardID           string     `json:"card_id"`
	OwnerUserID      string     `json:"owner_user_id"`
	GradingCompany   string     `json:"grading_company"`
	CertNumber       string     `json:"cert_number"`
	Grade            string     `json:"grade"`
	Status           string     `json:"status"`
	ClaimedByAdminID string     `json:"claimed_by_admin_id,omitempty"`
	ClaimedAt        *time.Time `json:"claimed_at,omitempty"`
	VerifierNotes    string     `json:"verifier_notes,omitempty"`
	RejectReason     string     `json:"reject_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toCardInstanceView(c *domain.CardInstance) cardInstanceView {
	return cardInstanceView{
		ID:               c.ID,
		CardID:           c.CardID,
		OwnerUserID:      c.OwnerUserID,
		GradingCompany:   c.GradingCompany,
		CertNumber:       c.CertNumber,
		Grade:            c.Grade,
		Status:           string(c.Status),
		ClaimedByAdminID: c.ClaimedByAdminID,
		ClaimedAt:        c.ClaimedAt,
		VerifierNotes:    c.VerifierNotes,
		RejectReason:     c.RejectReason,
		CreatedAt:        c.CreatedAt,
	}
}

func toCardInstanceViews(instances []*domain.CardInstance) []cardInstanceView {
	views := make([]cardInstanceView, len(instances))
	for i, c := range instances {
		views[i] = toCardInstanceView(c)
	}
	return views
}

type shipmentView struct {
	ID             string    `json:"id"`
	TradeID        string    `json:"trade_id"`
	CardInstanceID string    `json:"card_instance_id"`
	Direction      string    `json:"direction"`
	Status         string    `json:"status"`
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toShipmentView(s *domain.Shipment) shipmentView {
	return shipmentView{
		ID:             s.ID,
		TradeID:        s.TradeID,
		CardInstanceID: s.CardInstanceID,
		Direction:      string(s.Direction),
		Status:         string(s.Status),
		TrackingNumber: s.TrackingNumber,
		Carrier:        s.Carrier,
		Notes:          s.Notes,
		CreatedAt:      s.CreatedAt,
	}
}

func toShipmentViews(shipments []*domain.Shipment) []shipmentView {
	views := make([]shipmentView, len(shipments))
	for i, s := range shipments {
		views[i] = toShipmentView(s)
	}
	return views
}

type disputeView struct {
	ID                string    `json:"id"`
	TradeID           string    `json:"trade_id"`
	OpenedByUserID    string    `json:"opened_by_user_id"`
	Reason            string    `json:"reason"`
	Description       string    `json:"description"`
	Evidence          []string  `json:"evidence,omitempty"`
	Status            string    `json:"status"`
	AdminNotes        string    `json:"admin_notes,omitempty"`
	ResolvedByAdminID string    `json:"resolved_by_admin_id,omitempty"`
	RefundAmount      *int64    `json:"refund_amount,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func toDisputeView(d *domain.Dispute) disputeView {
	return disputeView{
		ID:                d.ID,
		TradeID:           d.TradeID,
		OpenedByUserID:    d.OpenedByUserID,
		Reason:            string(d.Reason),
		Description:       d.Description,
		Evidence:          d.Evidence,
		Status:            string(d.Status),
		AdminNotes:        d.AdminNotes,
		ResolvedByAdminID: d.ResolvedByAdminID,
		RefundAmount:      d.RefundAmount,
		CreatedAt:         d.CreatedAt,
	}
}

func toDisputeViews(disputes []*domain.Dispute) []disputeView {
	views := make([]disputeView, len(disputes))
	for i, d := range disputes {
		views[i] = toDisputeView(d)
	}
	return views
}

type certView struct {
	GradingCompany   string `json:"grading_company"`
	CertNumber       string `json:"cert_number"`
	CardName         string `json:"card_name"`
	Grade            string `json:"grade"`
	PopulationHigher int64  `json:"population_higher"`
	Valid            bool   `json:"valid"`
}

func toCertView(c *domain.CertRecord) certView {
	return certView{
		GradingCompany:   c.GradingCompany,
		CertNumber:       c.CertNumber,
		CardName:         c.CardName,
		Grade:            c.Grade,
		PopulationHigher: c.PopulationHigher,
		Valid:            c.Valid,
	}
}
