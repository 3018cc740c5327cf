package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	"github.com/rakapradana/kostumpos-backend/pkg/enums"
)

// Repository persists rental orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.RentalOrder) error
	CreateLines(ctx context.Context, lines []models.OrderLine) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.RentalOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) CreateLines(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.RentalOrder{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.RentalOrder{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error) {
	var order models.RentalOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
