package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rakapradana/kostumpos-backend/pkg/enums"
)

// InventoryUnit is one serialized physical garment. A unit belongs to exactly
// one product for its lifetime and carries a unique scannable barcode.
// Status is a cached projection of the reservation ledger.
type InventoryUnit struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Barcode   string           `gorm:"column:barcode;not null;uniqueIndex"`
	ProductID uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	Status    enums.UnitStatus `gorm:"column:status;not null;default:'available'"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
