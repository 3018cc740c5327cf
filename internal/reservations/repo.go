package reservations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	"github.com/rakapradana/kostumpos-backend/pkg/enums"
)

// Repository is the reservation ledger. Rows are inserted and cancelled,
// never rewritten.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entries []models.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Reservation, error)
	ListActiveByUnits(ctx context.Context, unitIDs []uuid.UUID) ([]models.Reservation, error)
	CountActiveByUnit(ctx context.Context, unitID uuid.UUID) (int64, error)
	Cancel(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entries []models.Reservation) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var entry models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Where("id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Reservation, error) {
	var entries []models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Unit").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListActiveByUnits(ctx context.Context, unitIDs []uuid.UUID) ([]models.Reservation, error) {
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

func (r *repository) CountActiveByUnit(ctx context.Context, unitID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("unit_id = ? AND status = ?", unitID, enums.ReservationStatusActive).
		Count(&count).Error
	return count, err
}

func (r *repository) Cancel(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("status", enums.ReservationStatusCancelled).Error
}
