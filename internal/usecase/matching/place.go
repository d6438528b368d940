package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/kafka"
	orderdto "github.com/slabmarket/settlement-service/internal/usecase/dto/order"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// matchAttempts caps the re-match loop when concurrent placements keep
// winning the row locks.
const matchAttempts = 3

// PlaceOrder validates and rests a single-unit limit order, then immediately
// tries to cross it against the best open counter-order. A successful cross
// returns the trade with escrow already authorized; a gateway decline leaves
// both orders OPEN and returns the resting order without a trade.
func (uc *DefaultMatchingUsecase) PlaceOrder(ctx context.Context, input *orderdto.PlaceOrderInput) (*orderdto.PlaceOrderOutput, error) {
	if err := uc.validatePlaceOrder(input); err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:             uuid.New().String(),
		UserID:         input.UserID,
		CardID:         input.CardID,
		CardInstanceID: input.CardInstanceID,
		Side:           input.Side,
		LimitPrice:     input.LimitPrice,
		Status:         domain.OrderOpen,
		CreatedAt:      time.Now(),
	}

	if err := uc.OrderRepo.CreateOrder(order); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to create order: %v", err)
	}
	uc.recordOrderPlaced(order)

	trade, err := uc.tryMatch(ctx, order)
	if err != nil {
		return nil, err
	}
	if trade != nil {
		order.Status = domain.OrderFilled
	}

	return &orderdto.PlaceOrderOutput{Order: order, Trade: trade}, nil
}

func (uc *DefaultMatchingUsecase) validatePlaceOrder(input *orderdto.PlaceOrderInput) error {
	if input.UserID == "" || input.CardID == "" {
		return status.Error(codes.InvalidArgument, "user_id and card_id are required")
	}
	if input.Side != domain.SideBuy && input.Side != domain.SideSell {
		return status.Errorf(codes.InvalidArgument, "unknown order side: %s", input.Side)
	}
	if input.LimitPrice <= 0 {
		return status.Error(codes.InvalidArgument, "limit price must be positive")
	}

	if input.Side == domain.SideBuy {
		if input.CardInstanceID != "" {
			return status.Error(codes.InvalidArgument, "buy orders must not name a card instance")
		}
		return nil
	}

	if input.CardInstanceID == "" {
		return status.Error(codes.InvalidArgument, "sell orders must name the card instance on offer")
	}
	instance, err := uc.CardRepo.GetCardInstanceByID(input.CardInstanceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return status.Error(codes.NotFound, "card instance not found")
		}
		return status.Errorf(codes.Internal, "failed to load card instance: %v", err)
	}
	if instance.OwnerUserID != input.UserID {
		return status.Error(codes.PermissionDenied, "card instance belongs to another user")
	}
	if instance.CardID != input.CardID {
		return status.Error(codes.InvalidArgument, "card instance does not match the listed card")
	}

	_, err = uc.TradeRepo.GetActiveTradeByInstanceID(input.CardInstanceID)
	if err == nil {
		return status.Error(codes.FailedPrecondition, "card instance is already being settled")
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return status.Errorf(codes.Internal, "failed to check active trades: %v", err)
	}
	return nil
}

// tryMatch crosses the order against the book. Price-time priority; the trade
// executes at the sell side's limit price. A conflict means a concurrent
// match or cancel took the counter-order, so the search repeats against the
// updated book.
func (uc *DefaultMatchingUsecase) tryMatch(ctx context.Context, order *domain.Order) (*domain.Trade, error) {
	matchStart := time.Now()

	for attempt := 0; attempt < matchAttempts; attempt++ {
		counter, err := uc.OrderRepo.FindBestCounterOrder(order)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "failed to search counter-orders: %v", err)
		}
		if counter == nil {
			return nil, nil
		}

		buy, sell := order, counter
		if order.Side == domain.SideSell {
			buy, sell = counter, order
		}

		trade := &domain.Trade{
			ID:             uuid.New().String(),
			Reference:      uc.referenceGen(),
			OrderBuyID:     buy.ID,
			OrderSellID:    sell.ID,
			CardInstanceID: sell.CardInstanceID,
			Price:          sell.LimitPrice,
			BuyerID:        buy.UserID,
			SellerID:       sell.UserID,
			Status:         domain.TradePendingEscrow,
			CreatedAt:      time.Now(),
		}

		escrow, authorize := uc.EscrowUc.Authorize(ctx, trade)
		err = uc.TradeRepo.ExecuteMatch(buy.ID, sell.ID, trade, escrow, authorize)
		switch {
		case err == nil:
			uc.publishTradeEvent(trade, "matched")
			uc.recordMatch(order.CardID, trade.Price, time.Since(matchStart).Seconds())
			return trade, nil
		case errors.Is(err, domain.ErrAuthorizeFail):
			slog.Warn("escrow authorization declined, match rolled back",
				"order_buy_id", buy.ID,
				"order_sell_id", sell.ID,
				"price", trade.Price,
				"error", err.Error(),
			)
			return nil, nil
		case errors.Is(err, domain.ErrConflict):
			continue
		default:
			return nil, status.Errorf(codes.Internal, "failed to execute match: %v", err)
		}
	}

	return nil, nil
}

func (uc *DefaultMatchingUsecase) publishTradeEvent(trade *domain.Trade, stage string) {
	if uc.Publisher == nil {
		return
	}
	go func(event kafka.TradeEvent) {
		if err := uc.Publisher.PublishTrade(event); err != nil {
			slog.Error("failed to publish kafka trade event", "stage", stage, "error", err.Error())
		}
	}(kafka.TradeEvent{
		TradeID:        trade.ID,
		Reference:      trade.Reference,
		BuyerID:        trade.BuyerID,
		SellerID:       trade.SellerID,
		CardInstanceID: trade.CardInstanceID,
		Price:          trade.Price,
		Status:         string(trade.Status),
		Stage:          stage,
	})
}

func (uc *DefaultMatchingUsecase) recordOrderPlaced(order *domain.Order) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordOrderPlaced(string(order.Side))
}

func (uc *DefaultMatchingUsecase) recordMatch(cardID string, amount int64, durationSeconds float64) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordMatch(cardID, amount, durationSeconds)
}
