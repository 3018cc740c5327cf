package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rakapradana/kostumpos-backend/api/responses"
	"github.com/rakapradana/kostumpos-backend/api/validators"
	checkoutsvc "github.com/rakapradana/kostumpos-backend/internal/checkout"
	pkgerrors "github.com/rakapradana/kostumpos-backend/pkg/errors"
	"github.com/rakapradana/kostumpos-backend/pkg/logger"
	"github.com/rakapradana/kostumpos-backend/pkg/types"
)

// Checkout submits a rental cart and returns the confirmed order with unit
// assignments, or a rejection explaining what could not be fulfilled.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		confirmation, err := svc.Submit(r.Context(), payload.toSubmitInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, confirmation)
	}
}

// GetOrder returns one rental order with its lines.
func GetOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

type checkoutLineRequest struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	BundleID  *uuid.UUID `json:"bundle_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,min=1"`
}

type checkoutRequest struct {
	Lines               []checkoutLineRequest `json:"lines" validate:"required,min=1"`
	StartDate           types.Date            `json:"start_date" validate:"required"`
	EndDate             types.Date            `json:"end_date" validate:"required"`
	GuaranteeProvided   bool                  `json:"guarantee_provided"`
	GuaranteeDocumentID *uuid.UUID            `json:"guarantee_document_id,omitempty"`
}

func (r checkoutRequest) toSubmitInput() checkoutsvc.SubmitInput {
	input := checkoutsvc.SubmitInput{
		StartDate:           r.StartDate,
		EndDate:             r.EndDate,
		GuaranteeProvided:   r.GuaranteeProvided,
		GuaranteeDocumentID: r.GuaranteeDocumentID,
	}
	for _, line := range r.Lines {
		input.Lines = append(input.Lines, checkoutsvc.SubmitLine{
			ProductID: line.ProductID,
			BundleID:  line.BundleID,
			Quantity:  line.Quantity,
		})
	}
	return input
}
