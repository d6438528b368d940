package models

import (
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
)

type EscrowModel struct {
	ID               string     `gorm:"primaryKey;type:uuid"`
	TradeID          string     `gorm:"type:uuid;uniqueIndex"`
	Trade            TradeModel `gorm:"foreignKey:TradeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	Amount           int64      `gorm:"not null"`
	Status           domain.EscrowStatus `gorm:"index"`
	PaymentIntentRef string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (EscrowModel) TableName() string {
	return "escrow_models"
}
