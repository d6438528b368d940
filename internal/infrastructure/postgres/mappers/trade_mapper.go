package mappers

import (
	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/models"
)

func ToDomainTrade(model *models.TradeModel) *domain.Trade {
	return &domain.Trade{
		ID:             model.ID,
		Reference:      model.Reference,
		OrderBuyID:     model.OrderBuyID,
		OrderSellID:    model.OrderSellID,
		CardInstanceID: model.CardInstanceID,
		Price:          model.Price,
		BuyerID:        model.BuyerID,
		SellerID:       model.SellerID,
		Status:         model.Status,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func ToGORMTrade(trade *domain.Trade) *models.TradeModel {
	return &models.TradeModel{
		ID:             trade.ID,
		Reference:      trade.Reference,
		OrderBuyID:     trade.OrderBuyID,
		OrderSellID:    trade.OrderSellID,
		CardInstanceID: trade.CardInstanceID,
		Price:          trade.Price,
		BuyerID:        trade.BuyerID,
		SellerID:       trade.SellerID,
		Status:         trade.Status,
		CreatedAt:      trade.CreatedAt,
		UpdatedAt:      trade.UpdatedAt,
	}
}

func ToDomainEscrow(model *models.EscrowModel) *domain.Escrow {
	return &domain.Escrow{
		ID:               model.ID,
		TradeID:          model.TradeID,
		Amount:           model.Amount,
		Status:           model.Status,
		PaymentIntentRef: model.PaymentIntentRef,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func ToGORMEscrow(escrow *domain.Escrow) *models.EscrowModel {
	return &models.EscrowModel{
		ID:               escrow.ID,
		TradeID:          escrow.TradeID,
		Amount:           escrow.Amount,
		Status:           escrow.Status,
		PaymentIntentRef: escrow.PaymentIntentRef,
		CreatedAt:        escrow.CreatedAt,
		UpdatedAt:        escrow.UpdatedAt,
	}
}
