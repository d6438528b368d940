package models

import (
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
)

type DisputeModel struct {
	ID                  string     `gorm:"primaryKey"`
	TradeID             string     `gorm:"type:uuid;index"`
	Trade               TradeModel `gorm:"foreignKey:TradeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	OpenedByUserID      string     `gorm:"index"`
	Reason              domain.DisputeReason
	Description         string
	EvidenceJSON        string `gorm:"type:jsonb"`
	Status              domain.DisputeStatus `gorm:"index"`
	TradeStatusOriginal domain.TradeStatus
	AdminNotes          string
	ResolvedByAdminID   string
	RefundAmount        *int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (DisputeModel) TableName() string {
	return "dispute_models"
}
