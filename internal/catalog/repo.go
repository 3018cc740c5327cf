package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	"github.com/rakapradana/kostumpos-backend/pkg/enums"
	"github.com/rakapradana/kostumpos-backend/pkg/pagination"
)

// Repository is the catalog read model: products, categories, bundles and
// their serialized units.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListProducts(ctx context.Context, categoryID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Product, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListBundles(ctx context.Context) ([]models.Bundle, error)
	FindBundle(ctx context.Context, id uuid.UUID) (*models.Bundle, error)
	ListActiveReservations(ctx context.Context, unitIDs []uuid.UUID) ([]models.Reservation, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListProducts(ctx context.Context, categoryID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Units").
		Order("created_at ASC, id ASC").
		Limit(limit)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Units").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) ListBundles(ctx context.Context) ([]models.Bundle, error) {
	var bundles []models.Bundle
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Order("name ASC").
		Find(&bundles).Error
	if err != nil {
		return nil, err
	}
	return bundles, nil
}

func (r *repository) FindBundle(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Where("id = ?", id).
		First(&bundle).Error
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r *repository) ListActiveReservations(ctx context.Context, unitIDs []uuid.UUID) ([]models.Reservation, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	var entries []models.Reservation
	err := r.db.WithContext(ctx).
		Where("unit_id IN ? AND status = ?", unitIDs, enums.ReservationStatusActive).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
