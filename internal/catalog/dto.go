package catalog

import (
	"github.com/google/uuid"

	"github.com/rakapradana/kostumpos-backend/pkg/enums"
)

// ProductSummary is the POS browse-screen view of one product.
type ProductSummary struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	CategoryID         uuid.UUID `json:"category_id"`
	CategoryName       string    `json:"category_name,omitempty"`
	PricePerDay        int64     `json:"price_per_day"`
	ReplacementCost    int64     `json:"replacement_cost"`
	CleaningDaysBuffer int       `json:"cleaning_days_buffer"`
	TotalUnits         int       `json:"total_units"`
	AvailableToday     int       `json:"available_today"`
}

// ProductPage is one page of products plus the cursor for the next page.
type ProductPage struct {
	Items      []ProductSummary `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// UnitView is one serialized garment with its cached status.
type UnitView struct {
	ID      uuid.UUID        `json:"id"`
	Barcode string           `json:"barcode"`
	Status  enums.UnitStatus `json:"status"`
}

// ProductDetail adds the unit roster to the summary view.
type ProductDetail struct {
	ProductSummary
	Units []UnitView `json:"units"`
}

// CategoryView is one browse category.
type CategoryView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// BundleComponent is one product inside a bundle.
type BundleComponent struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Quantity    int       `json:"quantity"`
}

// BundleView is one fixed-price package.
type BundleView struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	PricePerDay int64             `json:"price_per_day"`
	Items       []BundleComponent `json:"items"`
}
