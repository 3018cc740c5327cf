package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rakapradana/kostumpos-backend/pkg/enums"
	"github.com/rakapradana/kostumpos-backend/pkg/types"
)

// RentalOrder is a confirmed (or rejected) checkout. All lines share the
// order-level date range. Monetary fields are IDR minor units.
type RentalOrder struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Status              enums.OrderStatus `gorm:"column:status;not null;default:'draft'"`
	StartDate           types.Date        `gorm:"column:start_date;type:date;not null"`
	EndDate             types.Date        `gorm:"column:end_date;type:date;not null"`
	Days                int               `gorm:"column:days;not null"`
	Subtotal            int64             `gorm:"column:subtotal;not null;default:0"`
	Deposit             int64             `gorm:"column:deposit;not null;default:0"`
	DepositWaived       bool              `gorm:"column:deposit_waived;not null;default:false"`
	TotalPayout         int64             `gorm:"column:total_payout;not null;default:0"`
	GuaranteeProvided   bool              `gorm:"column:guarantee_provided;not null;default:false"`
	GuaranteeDocumentID *uuid.UUID        `gorm:"column:guarantee_document_id;type:uuid"`
	Lines               []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLine snapshots one cart line at checkout time. Name and per-day price
// are copied from the product or bundle so later catalog edits cannot change
// a printed invoice. Assigned unit barcodes are recovered by joining
// reservations on order_line_id.
type OrderLine struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index"`
	Kind        enums.LineKind `gorm:"column:kind;not null"`
	ProductID   *uuid.UUID     `gorm:"column:product_id;type:uuid"`
	BundleID    *uuid.UUID     `gorm:"column:bundle_id;type:uuid"`
	Name        string         `gorm:"column:name;not null"`
	Quantity    int            `gorm:"column:quantity;not null"`
	PricePerDay int64          `gorm:"column:price_per_day;not null"`
	LineTotal   int64          `gorm:"column:line_total;not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}
