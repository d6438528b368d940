// Package testutil provides an in-memory store implementing the domain
// repository ports with the same compare-and-swap semantics as the postgres
// layer. Used by usecase tests; never wired into the service.
package testutil

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
)

type Store struct {
	mu        sync.Mutex
	Orders    map[string]*domain.Order
	Trades    map[string]*domain.Trade
	Escrows   map[string]*domain.Escrow
	Cards     map[string]*domain.CardInstance
	Shipments map[string]*domain.Shipment
	Disputes  map[string]*domain.Dispute
}

func NewStore() *Store {
	return &Store{
		Orders:    make(map[string]*domain.Order),
		Trades:    make(map[string]*domain.Trade),
		Escrows:   make(map[string]*domain.Escrow),
		Cards:     make(map[string]*domain.CardInstance),
		Shipments: make(map[string]*domain.Shipment),
		Disputes:  make(map[string]*domain.Dispute),
	}
}

// ---- OrderRepository ----

func (s *Store) CreateOrder(order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *order
	s.Orders[order.ID] = &cp
	return nil
}

func (s *Store) GetOrderByID(orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (s *Store) UpdateOrderStatus(orderID string, expected, next domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	if order.Status != expected {
		return domain.ErrConflict
	}
	order.Status = next
	order.UpdatedAt = time.Now()
	return nil
}

func (s *Store) GetOrderBook(cardID string) (*domain.OrderBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book := &domain.OrderBook{CardID: cardID}
	for _, order := range s.Orders {
		if order.CardID != cardID || order.Status != domain.OrderOpen {
			continue
		}
		cp := *order
		if order.Side == domain.SideBuy {
			book.Bids = append(book.Bids, &cp)
		} else {
			book.Asks = append(book.Asks, &cp)
		}
	}
	sort.Slice(book.Bids, func(i, j int) bool {
		if book.Bids[i].LimitPrice != book.Bids[j].LimitPrice {
			return book.Bids[i].LimitPrice > book.Bids[j].LimitPrice
		}
		return book.Bids[i].CreatedAt.Before(book.Bids[j].CreatedAt)
	})
	sort.Slice(book.Asks, func(i, j int) bool {
		if book.Asks[i].LimitPrice != book.Asks[j].LimitPrice {
			return book.Asks[i].LimitPrice < book.Asks[j].LimitPrice
		}
		return book.Asks[i].CreatedAt.Before(book.Asks[j].CreatedAt)
	})
	return book, nil
}

func (s *Store) FindBestCounterOrder(order *domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *domain.Order
	for _, candidate := range s.Orders {
		if candidate.CardID != order.CardID ||
			candidate.Status != domain.OrderOpen ||
			candidate.Side == order.Side ||
			candidate.UserID == order.UserID {
			continue
		}
		if order.Side == domain.SideSell {
			// Counter is a bid; it must meet the ask.
			if candidate.LimitPrice < order.LimitPrice {
				continue
			}
			if best == nil ||
				candidate.LimitPrice > best.LimitPrice ||
				(candidate.LimitPrice == best.LimitPrice && candidate.CreatedAt.Before(best.CreatedAt)) {
				best = candidate
			}
		} else {
			// Counter is an ask; it must be at or under the bid.
			if candidate.LimitPrice > order.LimitPrice {
				continue
			}
			if best == nil ||
				candidate.LimitPrice < best.LimitPrice ||
				(candidate.LimitPrice == best.LimitPrice && candidate.CreatedAt.Before(best.CreatedAt)) {
				best = candidate
			}
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (s *Store) ListOrders(filters domain.OrderFilters, page, limit int64) ([]*domain.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*domain.Order
	for _, order := range s.Orders {
		if filters.UserID != "" && order.UserID != filters.UserID {
			continue
		}
		if filters.CardID != "" && order.CardID != filters.CardID {
			continue
		}
		if filters.Side != "" && order.Side != filters.Side {
			continue
		}
		if len(filters.Statuses) > 0 && !containsOrderStatus(filters.Statuses, order.Status) {
			continue
		}
		cp := *order
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page, limit)
}

// ---- TradeRepository ----

func (s *Store) GetTradeByID(tradeID string) (*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trade, ok := s.Trades[tradeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *trade
	return &cp, nil
}

func (s *Store) GetActiveTradeByInstanceID(instanceID string) (*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.Trade
	for _, trade := range s.Trades {
		if trade.CardInstanceID != instanceID || trade.Status.Terminal() {
			continue
		}
		if latest == nil || trade.CreatedAt.After(latest.CreatedAt) {
			latest = trade
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *Store) UpdateTradeStatus(tradeID string, expected, next domain.TradeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	trade, ok := s.Trades[tradeID]
	if !ok {
		return domain.ErrNotFound
	}
	if trade.Status != expected {
		return domain.ErrConflict
	}
	trade.Status = next
	trade.UpdatedAt = time.Now()
	return nil
}

func (s *Store) ListTrades(filters domain.TradeFilters, page, limit int64) ([]*domain.Trade, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*domain.Trade
	for _, trade := range s.Trades {
		if filters.UserID != "" && trade.BuyerID != filters.UserID && trade.SellerID != filters.UserID {
			continue
		}
		if filters.CardID != "" {
			instance, ok := s.Cards[trade.CardInstanceID]
			if !ok || instance.CardID != filters.CardID {
				continue
			}
		}
		if len(filters.Statuses) > 0 && !containsTradeStatus(filters.Statuses, trade.Status) {
			continue
		}
		cp := *trade
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page, limit)
}

func (s *Store) FindReleasableTrades(requireDelivery bool) ([]*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var releasable []*domain.Trade
	for _, trade := range s.Trades {
		if trade.Status != domain.TradeAwaitingVerification {
			continue
		}
		escrow := s.escrowByTradeLocked(trade.ID)
		if escrow == nil || escrow.Status != domain.EscrowHeld {
			continue
		}
		instance, ok := s.Cards[trade.CardInstanceID]
		if !ok || instance.Status != domain.CardVerified {
			continue
		}
		if s.openDisputeByTradeLocked(trade.ID) != nil {
			continue
		}
		if requireDelivery && !s.hasDeliveredOutboundLocked(trade.ID) {
			continue
		}
		cp := *trade
		releasable = append(releasable, &cp)
	}
	return releasable, nil
}

func (s *Store) ExecuteMatch(buyOrderID, sellOrderID string, trade *domain.Trade, escrow *domain.Escrow, authorize func() (string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buy, ok := s.Orders[buyOrderID]
	if !ok {
		return domain.ErrNotFound
	}
	sell, ok := s.Orders[sellOrderID]
	if !ok {
		return domain.ErrNotFound
	}
	if buy.Status != domain.OrderOpen || sell.Status != domain.OrderOpen {
		return domain.ErrConflict
	}

	ref, err := authorize()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthorizeFail, err)
	}

	buy.Status = domain.OrderFilled
	sell.Status = domain.OrderFilled
	escrow.PaymentIntentRef = ref
	trade.Status = domain.TradeAwaitingShipment

	tradeCp := *trade
	escrowCp := *escrow
	s.Trades[trade.ID] = &tradeCp
	s.Escrows[escrow.ID] = &escrowCp
	return nil
}

// ---- EscrowRepository ----

func (s *Store) GetEscrowByTradeID(tradeID string) (*domain.Escrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	escrow := s.escrowByTradeLocked(tradeID)
	if escrow == nil {
		return nil, domain.ErrNotFound
	}
	cp := *escrow
	return &cp, nil
}

func (s *Store) ProcessEscrowCriticalOperation(
	escrowID string,
	expectedEscrow, nextEscrow domain.EscrowStatus,
	tradeID string,
	expectedTrade, nextTrade domain.TradeStatus,
	gatewayFunc func() error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	escrow, ok := s.Escrows[escrowID]
	if !ok {
		return domain.ErrNotFound
	}
	trade, ok := s.Trades[tradeID]
	if !ok {
		return domain.ErrNotFound
	}
	if escrow.Status != expectedEscrow || trade.Status != expectedTrade {
		return domain.ErrConflict
	}
	if err := gatewayFunc(); err != nil {
		return err
	}
	escrow.Status = nextEscrow
	escrow.UpdatedAt = time.Now()
	trade.Status = nextTrade
	trade.UpdatedAt = time.Now()
	return nil
}

// ---- CardInstanceRepository ----

func (s *Store) CreateCardInstance(instance *domain.CardInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *instance
	s.Cards[instance.ID] = &cp
	return nil
}

func (s *Store) GetCardInstanceByID(instanceID string) (*domain.CardInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.Cards[instanceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *instance
	return &cp, nil
}

func (s *Store) ClaimCardInstance(instanceID, adminID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.Cards[instanceID]
	if !ok {
		return domain.ErrNotFound
	}
	if instance.Status != domain.CardUnverified {
		return domain.ErrConflict
	}
	instance.Status = domain.CardClaimed
	instance.ClaimedByAdminID = adminID
	claimedAt := at
	instance.ClaimedAt = &claimedAt
	return nil
}

func (s *Store) ReleaseClaim(instanceID, adminID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.Cards[instanceID]
	if !ok {
		return domain.ErrNotFound
	}
	if instance.Status != domain.CardClaimed || instance.ClaimedByAdminID != adminID {
		return domain.ErrConflict
	}
	instance.Status = domain.CardUnverified
	instance.ClaimedByAdminID = ""
	instance.ClaimedAt = nil
	return nil
}

func (s *Store) CompleteVerification(instanceID, adminID string, next domain.CardInstanceStatus, notes, rejectReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.Cards[instanceID]
	if !ok {
		return domain.ErrNotFound
	}
	if instance.Status != domain.CardClaimed || instance.ClaimedByAdminID != adminID {
		return domain.ErrConflict
	}
	instance.Status = next
	instance.ClaimedByAdminID = ""
	instance.ClaimedAt = nil
	instance.VerifierNotes = notes
	instance.RejectReason = rejectReason
	return nil
}

func (s *Store) ResetForReplacement(instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.Cards[instanceID]
	if !ok {
		return domain.ErrNotFound
	}
	if instance.Status != domain.CardVerified && instance.Status != domain.CardRejected {
		return domain.ErrConflict
	}
	instance.Status = domain.CardUnverified
	instance.VerifierNotes = ""
	instance.RejectReason = ""
	return nil
}

func (s *Store) ListVerificationQueue(scope domain.VerificationQueueScope, adminID string, page, limit int64) ([]*domain.CardInstance, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*domain.CardInstance
	for _, instance := range s.Cards {
		if !s.awaitingVerificationLocked(instance.ID) {
			continue
		}
		switch scope {
		case domain.QueueUnclaimed:
			if instance.Status != domain.CardUnverified {
				continue
			}
		case domain.QueueMyClaims:
			if instance.Status != domain.CardClaimed || instance.ClaimedByAdminID != adminID {
				continue
			}
		case domain.QueueAll:
			if instance.Status != domain.CardUnverified && instance.Status != domain.CardClaimed {
				continue
			}
		default:
			return nil, 0, fmt.Errorf("unknown queue scope: %s", scope)
		}
		cp := *instance
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return paginate(matched, page, limit)
}

func (s *Store) FindExpiredClaims(olderThan time.Time) ([]*domain.CardInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stale []*domain.CardInstance
	for _, instance := range s.Cards {
		if instance.Status != domain.CardClaimed || instance.ClaimedAt == nil {
			continue
		}
		if instance.ClaimedAt.Before(olderThan) {
			cp := *instance
			stale = append(stale, &cp)
		}
	}
	return stale, nil
}

func (s *Store) UpdateOwner(instanceID, newOwnerUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.Cards[instanceID]
	if !ok {
		return domain.ErrNotFound
	}
	instance.OwnerUserID = newOwnerUserID
	return nil
}

// ---- ShipmentRepository ----

func (s *Store) CreateShipment(shipment *domain.Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *shipment
	s.Shipments[shipment.ID] = &cp
	return nil
}

func (s *Store) GetShipmentByID(shipmentID string) (*domain.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shipment, ok := s.Shipments[shipmentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *shipment
	return &cp, nil
}

func (s *Store) GetShipmentByTradeAndDirection(tradeID string, direction domain.ShipmentDirection) (*domain.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.Shipment
	for _, shipment := range s.Shipments {
		if shipment.TradeID != tradeID || shipment.Direction != direction {
			continue
		}
		if latest == nil || shipment.CreatedAt.After(latest.CreatedAt) {
			latest = shipment
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *Store) UpdateShipmentStatus(shipmentID string, expected, next domain.ShipmentStatus, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	shipment, ok := s.Shipments[shipmentID]
	if !ok {
		return domain.ErrNotFound
	}
	if shipment.Status != expected {
		return domain.ErrConflict
	}
	shipment.Status = next
	if notes != "" {
		shipment.Notes = notes
	}
	shipment.UpdatedAt = time.Now()
	return nil
}

func (s *Store) MarkTradeShipmentsException(tradeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, shipment := range s.Shipments {
		if shipment.TradeID != tradeID {
			continue
		}
		switch shipment.Status {
		case domain.ShipmentLabelCreated, domain.ShipmentShipped, domain.ShipmentInTransit:
			shipment.Status = domain.ShipmentException
		}
	}
	return nil
}

func (s *Store) ListShipmentsByTradeID(tradeID string) ([]*domain.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*domain.Shipment
	for _, shipment := range s.Shipments {
		if shipment.TradeID != tradeID {
			continue
		}
		cp := *shipment
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

// ---- DisputeRepository ----

func (s *Store) CreateDispute(dispute *domain.Dispute, expectedTradeStatus domain.TradeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	trade, ok := s.Trades[dispute.TradeID]
	if !ok {
		return domain.ErrNotFound
	}
	if s.openDisputeByTradeLocked(dispute.TradeID) != nil {
		return domain.ErrConflict
	}
	if trade.Status != expectedTradeStatus {
		return domain.ErrConflict
	}
	cp := *dispute
	s.Disputes[dispute.ID] = &cp
	trade.Status = domain.TradeDisputed
	return nil
}

func (s *Store) GetDisputeByID(disputeID string) (*domain.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispute, ok := s.Disputes[disputeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *dispute
	return &cp, nil
}

func (s *Store) GetOpenDisputeByTradeID(tradeID string) (*domain.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispute := s.openDisputeByTradeLocked(tradeID)
	if dispute == nil {
		return nil, domain.ErrNotFound
	}
	cp := *dispute
	return &cp, nil
}

func (s *Store) ResolveDispute(disputeID string, next domain.DisputeStatus, adminID, adminNotes string, refundAmount *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispute, ok := s.Disputes[disputeID]
	if !ok {
		return domain.ErrNotFound
	}
	if dispute.Status != domain.DisputeOpen {
		return domain.ErrConflict
	}
	dispute.Status = next
	dispute.ResolvedByAdminID = adminID
	dispute.AdminNotes = adminNotes
	dispute.RefundAmount = refundAmount
	dispute.UpdatedAt = time.Now()
	return nil
}

func (s *Store) ListDisputes(filters domain.DisputeFilters, page, limit int64) ([]*domain.Dispute, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*domain.Dispute
	for _, dispute := range s.Disputes {
		if filters.TradeID != "" && dispute.TradeID != filters.TradeID {
			continue
		}
		if filters.UserID != "" && dispute.OpenedByUserID != filters.UserID {
			continue
		}
		if filters.Status != "" && dispute.Status != filters.Status {
			continue
		}
		cp := *dispute
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page, limit)
}

// ---- helpers ----

func (s *Store) escrowByTradeLocked(tradeID string) *domain.Escrow {
	for _, escrow := range s.Escrows {
		if escrow.TradeID == tradeID {
			return escrow
		}
	}
	return nil
}

func (s *Store) openDisputeByTradeLocked(tradeID string) *domain.Dispute {
	for _, dispute := range s.Disputes {
		if dispute.TradeID == tradeID && dispute.Status == domain.DisputeOpen {
			return dispute
		}
	}
	return nil
}

func (s *Store) hasDeliveredOutboundLocked(tradeID string) bool {
	for _, shipment := range s.Shipments {
		if shipment.TradeID == tradeID &&
			shipment.Direction == domain.DirectionOutbound &&
			shipment.Status == domain.ShipmentDelivered {
			return true
		}
	}
	return false
}

func (s *Store) awaitingVerificationLocked(instanceID string) bool {
	for _, trade := range s.Trades {
		if trade.CardInstanceID == instanceID && trade.Status == domain.TradeAwaitingVerification {
			return true
		}
	}
	return false
}

func containsOrderStatus(statuses []domain.OrderStatus, status domain.OrderStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func containsTradeStatus(statuses []domain.TradeStatus, status domain.TradeStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func paginate[T any](items []*T, page, limit int64) ([]*T, int64, error) {
	total := int64(len(items))
	if limit <= 0 {
		return items, total, nil
	}
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], total, nil
}
