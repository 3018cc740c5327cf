package checkout

import (
	"github.com/google/uuid"

	"github.com/rakapradana/kostumpos-backend/pkg/enums"
	"github.com/rakapradana/kostumpos-backend/pkg/types"
)

// SubmitLine is one cart line on a checkout submission. Exactly one of
// ProductID or BundleID must be set.
type SubmitLine struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	BundleID  *uuid.UUID `json:"bundle_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

// SubmitInput is a full checkout request.
type SubmitInput struct {
	Lines               []SubmitLine `json:"lines"`
	StartDate           types.Date   `json:"start_date"`
	EndDate             types.Date   `json:"end_date"`
	GuaranteeProvided   bool         `json:"guarantee_provided"`
	GuaranteeDocumentID *uuid.UUID   `json:"guarantee_document_id,omitempty"`
}

// AssignedUnit names one concrete garment reserved for a line.
type AssignedUnit struct {
	UnitID        uuid.UUID `json:"unit_id"`
	Barcode       string    `json:"barcode"`
	ReservationID uuid.UUID `json:"reservation_id"`
}

// ConfirmationLine is one priced, allocated line on the confirmation.
type ConfirmationLine struct {
	LineID      uuid.UUID      `json:"line_id"`
	Kind        enums.LineKind `json:"kind"`
	ProductID   *uuid.UUID     `json:"product_id,omitempty"`
	BundleID    *uuid.UUID     `json:"bundle_id,omitempty"`
	Name        string         `json:"name"`
	Quantity    int            `json:"quantity"`
	PricePerDay int64          `json:"price_per_day"`
	LineTotal   int64          `json:"line_total"`
	Units       []AssignedUnit `json:"units"`
}

// Confirmation is the receipt for a confirmed checkout.
type Confirmation struct {
	OrderID       uuid.UUID          `json:"order_id"`
	Status        enums.OrderStatus  `json:"status"`
	StartDate     types.Date         `json:"start_date"`
	EndDate       types.Date         `json:"end_date"`
	Days          int                `json:"days"`
	Subtotal      int64              `json:"subtotal"`
	Deposit       int64              `json:"deposit"`
	DepositWaived bool               `json:"deposit_waived"`
	Total         int64              `json:"total"`
	Lines         []ConfirmationLine `json:"lines"`
}
