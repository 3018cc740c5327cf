package availability

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	"github.com/rakapradana/kostumpos-backend/pkg/enums"
)

// Repository exposes the read side of the availability calculation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListUnits(ctx context.Context, productID uuid.UUID) ([]models.InventoryUnit, error)
	ListActiveReservations(ctx context.Context, unitIDs []uuid.UUID) ([]models.Reservation, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an availability repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListUnits(ctx context.Context, productID uuid.UUID) ([]models.InventoryUnit, error) {
	var units []models.InventoryUnit
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("barcode ASC").
		Find(&units).Error
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (r *repository) ListActiveReservations(ctx context.Context, unitIDs []uuid.UUID) ([]models.Reservation, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	var entries []models.Reservation
	err := r.db.WithContext(ctx).
		Where("unit_id IN ? AND status = ?", unitIDs, enums.ReservationStatusActive).
		Order("start_date ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
