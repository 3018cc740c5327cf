package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rakapradana/kostumpos-backend/pkg/enums"
	"github.com/rakapradana/kostumpos-backend/pkg/types"
)

// Reservation is an append-only ledger entry holding one unit over the
// half-open rental interval [start_date, end_date). BufferDays snapshots the
// product's cleaning buffer at booking time so the exclusion interval
// [start_date, end_date + buffer_days) stays stable even if the product's
// buffer is edited later. Rows are never mutated beyond cancellation.
type Reservation struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UnitID      uuid.UUID               `gorm:"column:unit_id;type:uuid;not null;index"`
	Unit        *InventoryUnit          `gorm:"foreignKey:UnitID"`
	OrderID     uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	OrderLineID uuid.UUID               `gorm:"column:order_line_id;type:uuid;not null"`
	StartDate   types.Date              `gorm:"column:start_date;type:date;not null"`
	EndDate     types.Date              `gorm:"column:end_date;type:date;not null"`
	BufferDays  int                     `gorm:"column:buffer_days;not null;default:0"`
	Status      enums.ReservationStatus `gorm:"column:status;not null;default:'active';index"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
