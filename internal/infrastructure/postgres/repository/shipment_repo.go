package repository

import (
	"github.com/slabmarket/settlement-service/internal/domain"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/mappers"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultShipmentRepository struct {
	DB *gorm.DB
}

func NewDefaultShipmentRepository(db *gorm.DB) *DefaultShipmentRepository {
	return &DefaultShipmentRepository{DB: db}
}

func (r *DefaultShipmentRepository) CreateShipment(shipment *domain.Shipment) error {
	shipmentModel := mappers.ToGORMShipment(shipment)
	return r.DB.Create(shipmentModel).Error
}

func (r *DefaultShipmentRepository) GetShipmentByID(shipmentID string) (*domain.Shipment, error) {
	var shipmentModel models.ShipmentModel
	if err := r.DB.First(&shipmentModel, "id = ?", shipmentID).Error; err != nil {
		return nil, translateErr(err)
	}
	return mappers.ToDomainShipment(&shipmentModel), nil
}

// GetShipmentByTradeAndDirection returns the latest leg for the direction; a
// replacement cycle leaves several rows per direction behind.
func (r *DefaultShipmentRepository) GetShipmentByTradeAndDirection(tradeID string, direction domain.ShipmentDirection) (*domain.Shipment, error) {
	var shipmentModel models.ShipmentModel
	if err := r.DB.
		Where("trade_id = ? AND direction = ?", tradeID, direction).
		Order("created_at DESC").
		First(&shipmentModel).Error; err != nil {
		return nil, translateErr(err)
	}
	return mappers.ToDomainShipment(&shipmentModel), nil
}

func (r *DefaultShipmentRepository) UpdateShipmentStatus(shipmentID string, expected, next domain.ShipmentStatus, notes string) error {
	updates := map[string]interface{}{"status": next}
	if notes != "" {
		updates["notes"] = notes
	}
	res := r.DB.Model(&models.ShipmentModel{}).
		Where("id = ? AND status = ?", shipmentID, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var shipmentModel models.ShipmentModel
		if err := r.DB.First(&shipmentModel, "id = ?", shipmentID).Error; err != nil {
			return translateErr(err)
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *DefaultShipmentRepository) MarkTradeShipmentsException(tradeID string) error {
	inFlight := []domain.ShipmentStatus{
		domain.ShipmentLabelCreated,
		domain.ShipmentShipped,
		domain.ShipmentInTransit,
	}
	return r.DB.Model(&models.ShipmentModel{}).
		Where("trade_id = ? AND status IN (?)", tradeID, inFlight).
		Update("status", domain.ShipmentException).Error
}

func (r *DefaultShipmentRepository) ListShipmentsByTradeID(tradeID string) ([]*domain.Shipment, error) {
	var shipmentModels []models.ShipmentModel
	if err := r.DB.
		Where("trade_id = ?", tradeID).
		Order("created_at ASC").
		Find(&shipmentModels).Error; err != nil {
		return nil, err
	}

	shipments := make([]*domain.Shipment, len(shipmentModels))
	for i := range shipmentModels {
		shipments[i] = mappers.ToDomainShipment(&shipmentModels[i])
	}
	return shipments, nil
}
