package models

import (
	"time"

	"github.com/slabmarket/settlement-service/internal/domain"
)

type CardInstanceModel struct {
	ID               string `gorm:"primaryKey;type:uuid"`
	CardID           string `gorm:"index;not null"`
	OwnerUserID      string `gorm:"index"`
	GradingCompany   string `gorm:"index:idx_cert,unique"`
	CertNumber       string `gorm:"index:idx_cert,unique"`
	Grade            string
	Status           domain.CardInstanceStatus `gorm:"index"`
	ClaimedByAdminID string                    `gorm:"index"`
	ClaimedAt        *time.Time
	VerifierNotes    string
	RejectReason     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (CardInstanceModel) TableName() string {
	return "card_instance_models"
}
