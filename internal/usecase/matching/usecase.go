package usecase

import (
	"context"

	"github.com/jaevor/go-nanoid"
	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/kafka"
	"github.com/slabmarket/settlement-service/internal/infrastructure/metrics"
	escrowuc "github.com/slabmarket/settlement-service/internal/usecase/escrow"
	orderdto "github.com/slabmarket/settlement-service/internal/usecase/dto/order"
)

type MatchingUsecase interface {
	PlaceOrder(ctx context.Context, input *orderdto.PlaceOrderInput) (*orderdto.PlaceOrderOutput, error)
	CancelOrder(ctx context.Context, userID, orderID string) error

	GetOrderByID(orderID string) (*domain.Order, error)
	GetOrderBook(cardID string) (*domain.OrderBook, error)
	ListOrders(input *orderdto.ListOrdersInput) ([]*domain.Order, int64, error)
	GetTradeByID(tradeID string) (*domain.Trade, error)
	ListTrades(filters domain.TradeFilters, page, limit int64) ([]*domain.Trade, int64, error)
}

type TradeEventPublisher interface {
	PublishTrade(event kafka.TradeEvent) error
}

type DefaultMatchingUsecase struct {
	OrderRepo domain.OrderRepository
	TradeRepo domain.TradeRepository
	CardRepo  domain.CardInstanceRepository
	EscrowUc  escrowuc.EscrowUsecase
	Publisher TradeEventPublisher
	Metrics   *metrics.SettlementMetrics

	referenceGen func() string
}

func NewDefaultMatchingUsecase(
	orderRepo domain.OrderRepository,
	tradeRepo domain.TradeRepository,
	cardRepo domain.CardInstanceRepository,
	escrowUsecase escrowuc.EscrowUsecase,
	publisher TradeEventPublisher,
	settlementMetrics *metrics.SettlementMetrics) (*DefaultMatchingUsecase, error) {

	referenceGen, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}

	return &DefaultMatchingUsecase{
		OrderRepo:    orderRepo,
		TradeRepo:    tradeRepo,
		CardRepo:     cardRepo,
		EscrowUc:     escrowUsecase,
		Publisher:    publisher,
		Metrics:      settlementMetrics,
		referenceGen: referenceGen,
	}, nil
}
