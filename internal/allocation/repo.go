package allocation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgdb "github.com/rakapradana/kostumpos-backend/pkg/db"
	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	"github.com/rakapradana/kostumpos-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/kostumpos-backend/pkg/errors"
)

// overlapConstraint is the Postgres exclusion constraint that rejects two
// active reservations whose exclusion windows intersect on the same unit.
const overlapConstraint = "reservations_no_overlap"

// Repository is the write-side data access the allocator needs. All methods
// are expected to run on the caller's transaction via WithTx.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBundleWithItems(ctx context.Context, id uuid.UUID) (*models.Bundle, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	LockProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	ListRentableUnits(ctx context.Context, productID uuid.UUID) ([]models.InventoryUnit, error)
	ListActiveReservations(ctx context.Context, unitIDs []uuid.UUID) ([]models.Reservation, error)
	CreateReservations(ctx context.Context, entries []models.Reservation) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an allocation repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindBundleWithItems(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&bundle).Error
	if err != nil {
		return nil, err
	}
	return &bundle, nil
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

// LockProducts loads the product rows in ascending ID order. On Postgres the
// rows are locked FOR UPDATE so concurrent checkouts on the same products
// serialize; SQLite's single-writer transactions make the lock redundant.
func (r *repository) LockProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC")
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) ListRentableUnits(ctx context.Context, productID uuid.UUID) ([]models.InventoryUnit, error) {
	var units []models.InventoryUnit
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND status NOT IN ?", productID,
			[]enums.UnitStatus{enums.UnitStatusDamaged, enums.UnitStatusRetired}).
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
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) CreateReservations(ctx context.Context, entries []models.Reservation) error {
	if len(entries) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&entries).Error; err != nil {
		if pkgdb.IsUniqueViolation(err, overlapConstraint) {
			return pkgerrors.Wrap(pkgerrors.CodeAllocationContention, err, "unit reserved by a concurrent checkout")
		}
		return err
	}
	return nil
}
