package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a rentable costume model. Monetary fields are IDR minor units;
// float arithmetic never touches them. Physical stock lives in the owned
// InventoryUnit rows, one per serialized garment.
type Product struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string          `gorm:"column:name;not null"`
	CategoryID         uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	Category           *Category       `gorm:"foreignKey:CategoryID"`
	PricePerDay        int64           `gorm:"column:price_per_day;not null"`
	ReplacementCost    int64           `gorm:"column:replacement_cost;not null"`
	CleaningDaysBuffer int             `gorm:"column:cleaning_days_buffer;not null;default:0"`
	Units              []InventoryUnit `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
