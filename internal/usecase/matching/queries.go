package usecase

import (
	"errors"

	"github.com/slabmarket/settlement-service/internal/domain"
	orderdto "github.com/slabmarket/settlement-service/internal/usecase/dto/order"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (uc *DefaultMatchingUsecase) GetOrderByID(orderID string) (*domain.Order, error) {
	order, err := uc.OrderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "order not found")
		}
		return nil, status.Errorf(codes.Internal, "failed to load order: %v", err)
	}
	return order, nil
}

func (uc *DefaultMatchingUsecase) GetOrderBook(cardID string) (*domain.OrderBook, error) {
	if cardID == "" {
		return nil, status.Error(codes.InvalidArgument, "card_id is required")
	}
	book, err := uc.OrderRepo.GetOrderBook(cardID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to load order book: %v", err)
	}
	return book, nil
}

func (uc *DefaultMatchingUsecase) ListOrders(input *orderdto.ListOrdersInput) ([]*domain.Order, int64, error) {
	page, limit := normalizePage(input.Page, input.Limit)
	orders, total, err := uc.OrderRepo.ListOrders(input.Filters, page, limit)
	if err != nil {
		return nil, 0, status.Errorf(codes.Internal, "failed to list orders: %v", err)
	}
	return orders, total, nil
}

func (uc *DefaultMatchingUsecase) GetTradeByID(tradeID string) (*domain.Trade, error) {
	trade, err := uc.TradeRepo.GetTradeByID(tradeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "trade not found")
		}
		return nil, status.Errorf(codes.Internal, "failed to load trade: %v", err)
	}
	return trade, nil
}

func (uc *DefaultMatchingUsecase) ListTrades(filters domain.TradeFilters, page, limit int64) ([]*domain.Trade, int64, error) {
	page, limit = normalizePage(page, limit)
	trades, total, err := uc.TradeRepo.ListTrades(filters, page, limit)
	if err != nil {
		return nil, 0, status.Errorf(codes.Internal, "failed to list trades: %v", err)
	}
	return trades, total, nil
}

func normalizePage(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
