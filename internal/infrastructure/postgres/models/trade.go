package models

import (
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
)

type TradeModel struct {
	ID             string `gorm:"primaryKey;type:uuid"`
	Reference      string `gorm:"uniqueIndex"`
	OrderBuyID     string `gorm:"type:uuid;uniqueIndex"`
	OrderSellID    string `gorm:"type:uuid;uniqueIndex"`
	CardInstanceID string `gorm:"type:uuid;index"`
	Price          int64  `gorm:"not null"`
	BuyerID        string `gorm:"index"`
	SellerID       string `gorm:"index"`
	Status         domain.TradeStatus `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (TradeModel) TableName() string {
	return "trade_models"
}
