package models

import (
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
)

type OrderModel struct {
	ID             string             `gorm:"primaryKey;type:uuid"`
	UserID         string             `gorm:"index;not null"`
	CardID         string             `gorm:"index:idx_card_side_status;not null"`
	CardInstanceID string             `gorm:"type:uuid"`
	Side           domain.OrderSide   `gorm:"index:idx_card_side_status;not null"`
	LimitPrice     int64              `gorm:"not null"`
	Status         domain.OrderStatus `gorm:"index:idx_card_side_status"`
	CreatedAt      time.Time          `gorm:"index:idx_created_at"`
	UpdatedAt      time.Time
}

func (OrderModel) TableName() string {
	return "order_models"
}
