package models

import (
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
)

type ShipmentModel struct {
	ID             string     `gorm:"primaryKey;type:uuid"`
	TradeID        string     `gorm:"type:uuid;index:idx_trade_direction"`
	Trade          TradeModel `gorm:"foreignKey:TradeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	CardInstanceID string     `gorm:"type:uuid;index"`
	// No unique constraint on (trade_id, direction): a replacement cycle
	// creates a second inbound shipment. One ACTIVE shipment per direction is
	// enforced at the workflow level.
	Direction      domain.ShipmentDirection `gorm:"index:idx_trade_direction"`
	Status         domain.ShipmentStatus    `gorm:"index"`
	TrackingNumber string
	Carrier        string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ShipmentModel) TableName() string {
	return "shipment_models"
}
