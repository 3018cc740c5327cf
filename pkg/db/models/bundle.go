package models

import (
	"time"

	"github.com/google/uuid"
)

// Bundle is a fixed-price grouping of products rented together. The flat
// per-day price is the discount mechanism; it deliberately ignores the sum of
// component prices. A bundle owns no inventory of its own.
type Bundle struct {
	ID          uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string       `gorm:"column:name;not null"`
	PricePerDay int64        `gorm:"column:price_per_day;not null"`
	Items       []BundleItem `gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// BundleItem is one (product, quantity) component of a bundle.
type BundleItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BundleID  uuid.UUID `gorm:"column:bundle_id;type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	Quantity  int       `gorm:"column:quantity;not null"`
}
