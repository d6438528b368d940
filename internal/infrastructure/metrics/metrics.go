package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SettlementMetrics covers the whole trade lifecycle: matching, escrow
// movement, verification claims and dispute outcomes.
type SettlementMetrics struct {
	OrdersPlacedTotal    prometheus.CounterVec
	OrdersCancelledTotal prometheus.CounterVec
	OrdersMatchedTotal   prometheus.CounterVec
	MatchingDuration     prometheus.HistogramVec

	TradesOpenedTotal    prometheus.CounterVec
	TradesCompletedTotal prometheus.CounterVec
	TradesCancelledTotal prometheus.CounterVec

	EscrowHeldAmountTotal     prometheus.CounterVec
	EscrowReleasedAmountTotal prometheus.CounterVec
	EscrowRefundedAmountTotal prometheus.CounterVec
	EscrowConflictsTotal      prometheus.CounterVec

	ClaimsAcquiredTotal  prometheus.CounterVec
	ClaimConflictsTotal  prometheus.CounterVec
	ClaimsExpiredTotal   prometheus.CounterVec
	VerificationsTotal   prometheus.CounterVec

	ShipmentUpdatesTotal prometheus.CounterVec

	DisputesOpenedTotal   prometheus.CounterVec
	DisputesResolvedTotal prometheus.CounterVec
}

func NewSettlementMetrics() *SettlementMetrics {
	return &SettlementMetrics{
		OrdersPlacedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_placed_total",
				Help: "Total orders placed",
			},
			[]string{"side"},
		),

		OrdersCancelledTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_cancelled_total",
				Help: "Total orders cancelled by their owner",
			},
			[]string{"side"},
		),

		OrdersMatchedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_matched_total",
				Help: "Total matched order pairs",
			},
			[]string{"card_id"},
		),

		MatchingDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "matching_duration_seconds",
				Help:    "Time from order placement to match commit",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"outcome"},
		),

		TradesOpenedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trades_opened_total",
				Help: "Total trades created with escrow authorized",
			},
			[]string{"card_id"},
		),

		TradesCompletedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trades_completed_total",
				Help: "Total trades settled with escrow released",
			},
			[]string{"trigger"},
		),

		TradesCancelledTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trades_cancelled_total",
				Help: "Total trades cancelled with escrow refunded",
			},
			[]string{"reason"},
		),

		EscrowHeldAmountTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_held_amount_total",
				Help: "Total amount placed in escrow, minor units",
			},
			[]string{"currency"},
		),

		EscrowReleasedAmountTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_released_amount_total",
				Help: "Total amount released to sellers, minor units",
			},
			[]string{"currency"},
		),

		EscrowRefundedAmountTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_refunded_amount_total",
				Help: "Total amount refunded to buyers, minor units",
			},
			[]string{"currency", "kind"},
		),

		EscrowConflictsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_conflicts_total",
				Help: "Escrow operations rejected on a terminal state",
			},
			[]string{"operation"},
		),

		ClaimsAcquiredTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_claims_acquired_total",
				Help: "Verification claims acquired by admins",
			},
			[]string{"admin_id"},
		),

		ClaimConflictsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_claim_conflicts_total",
				Help: "Claim attempts lost to another admin",
			},
			[]string{"admin_id"},
		),

		ClaimsExpiredTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_claims_expired_total",
				Help: "Stale claims released by the sweeper",
			},
			[]string{},
		),

		VerificationsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verifications_total",
				Help: "Completed verifications by outcome",
			},
			[]string{"outcome"},
		),

		ShipmentUpdatesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipment_updates_total",
				Help: "Shipment status transitions",
			},
			[]string{"direction", "status"},
		),

		DisputesOpenedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disputes_opened_total",
				Help: "Disputes opened by trade parties",
			},
			[]string{"reason"},
		),

		DisputesResolvedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disputes_resolved_total",
				Help: "Disputes resolved by admins, by outcome",
			},
			[]string{"resolution"},
		),
	}
}

func (m *SettlementMetrics) RecordOrderPlaced(side string) {
	m.OrdersPlacedTotal.WithLabelValues(side).Inc()
}

func (m *SettlementMetrics) RecordOrderCancelled(side string) {
	m.OrdersCancelledTotal.WithLabelValues(side).Inc()
}

func (m *SettlementMetrics) RecordMatch(cardID string, amount int64, durationSeconds float64) {
	m.OrdersMatchedTotal.WithLabelValues(cardID).Inc()
	m.TradesOpenedTotal.WithLabelValues(cardID).Inc()
	m.EscrowHeldAmountTotal.WithLabelValues("usd").Add(float64(amount))
	m.MatchingDuration.WithLabelValues("matched").Observe(durationSeconds)
}

func (m *SettlementMetrics) RecordTradeCompleted(trigger string, amount int64) {
	m.TradesCompletedTotal.WithLabelValues(trigger).Inc()
	m.EscrowReleasedAmountTotal.WithLabelValues("usd").Add(float64(amount))
}

func (m *SettlementMetrics) RecordTradeCancelled(reason string, refunded int64, partial bool) {
	m.TradesCancelledTotal.WithLabelValues(reason).Inc()
	kind := "full"
	if partial {
		kind = "partial"
	}
	m.EscrowRefundedAmountTotal.WithLabelValues("usd", kind).Add(float64(refunded))
}

func (m *SettlementMetrics) RecordEscrowConflict(operation string) {
	m.EscrowConflictsTotal.WithLabelValues(operation).Inc()
}

func (m *SettlementMetrics) RecordClaim(adminID string) {
	m.ClaimsAcquiredTotal.WithLabelValues(adminID).Inc()
}

func (m *SettlementMetrics) RecordClaimConflict(adminID string) {
	m.ClaimConflictsTotal.WithLabelValues(adminID).Inc()
}

func (m *SettlementMetrics) RecordClaimExpired() {
	m.ClaimsExpiredTotal.WithLabelValues().Inc()
}

func (m *SettlementMetrics) RecordVerification(outcome string) {
	m.VerificationsTotal.WithLabelValues(outcome).Inc()
}

func (m *SettlementMetrics) RecordShipmentUpdate(direction, status string) {
	m.ShipmentUpdatesTotal.WithLabelValues(direction, status).Inc()
}

func (m *SettlementMetrics) RecordDisputeOpened(reason string) {
	m.DisputesOpenedTotal.WithLabelValues(reason).Inc()
}

func (m *SettlementMetrics) RecordDisputeResolved(resolution string) {
	m.DisputesResolvedTotal.WithLabelValues(resolution).Inc()
}
