package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rakapradana/kostumpos-backend/api/responses"
	availabilitysvc "github.com/rakapradana/kostumpos-backend/internal/availability"
	pkgerrors "github.com/rakapradana/kostumpos-backend/pkg/errors"
	"github.com/rakapradana/kostumpos-backend/pkg/logger"
	"github.com/rakapradana/kostumpos-backend/pkg/types"
)

// Availability reports, per physical unit, whether a product can be rented
// for the requested date range.
func Availability(svc availabilitysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "availability service unavailable"))
			return
		}

		productID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("product_id")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id"))
			return
		}

		start, err := types.ParseDate(strings.TrimSpace(r.URL.Query().Get("start")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid start date"))
			return
		}

		end, err := types.ParseDate(strings.TrimSpace(r.URL.Query().Get("end")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid end date"))
			return
		}

		result, err := svc.Available(r.Context(), availabilitysvc.Query{
			ProductID: productID,
			Start:     start,
			End:       end,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
