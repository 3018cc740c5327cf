package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakapradana/kostumpos-backend/pkg/config"
	pkgerrors "github.com/rakapradana/kostumpos-backend/pkg/errors"
	"github.com/rakapradana/kostumpos-backend/pkg/types"
)

// Query asks how many units of a product are free over a rental range.
type Query struct {
	ProductID uuid.UUID
	Start     types.Date
	End       types.Date
}

// UnitAvailability reports one unit's state for the queried range.
type UnitAvailability struct {
	UnitID    uuid.UUID `json:"unit_id"`
	Barcode   string    `json:"barcode"`
	Available bool      `json:"available"`
}

// Result is the availability answer for one product and range.
type Result struct {
	ProductID      uuid.UUID          `json:"product_id"`
	ProductName    string             `json:"product_name"`
	Start          types.Date         `json:"start_date"`
	End            types.Date         `json:"end_date"`
	Days           int                `json:"days"`
	TotalUnits     int                `json:"total_units"`
	AvailableCount int                `json:"available_count"`
	Units          []UnitAvailability `json:"units"`
}

// Service answers availability queries against the reservation ledger.
type Service interface {
	Available(ctx context.Context, query Query) (*Result, error)
}

type service struct {
	repo  Repository
	cfg   config.RentalConfig
	today func() types.Date
}

// NewService builds the availability calculator.
func NewService(repo Repository, cfg config.RentalConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("availability repository required")
	}
	return &service{repo: repo, cfg: cfg, today: types.Today}, nil
}

// ValidateRange checks a requested rental range against the grace window.
// A start date may trail today by at most graceDays to allow late entry of
// walk-in rentals.
func ValidateRange(start, end types.Date, graceDays int, today types.Date) (Interval, error) {
	interval, err := NewInterval(start, end)
	if err != nil {
		return Interval{}, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	earliest := today.AddDays(-graceDays)
	if start.Before(earliest) {
		return Interval{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("start date %s is more than %d day(s) in the past", start, graceDays))
	}
	return interval, nil
}

func (s *service) Available(ctx context.Context, query Query) (*Result, error) {
	if query.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	interval, err := ValidateRange(query.Start, query.End, s.cfg.GraceDays, s.today())
	if err != nil {
		return nil, err
	}

	product, err := s.repo.FindProduct(ctx, query.ProductID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	units, err := s.repo.ListUnits(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory units")
	}

	result := &Result{
		ProductID:   product.ID,
		ProductName: product.Name,
		Start:       interval.Start,
		End:         interval.End,
		Days:        interval.Days(),
		TotalUnits:  len(units),
		Units:       make([]UnitAvailability, 0, len(units)),
	}

	rentable := make([]uuid.UUID, 0, len(units))
	for _, unit := range units {
		if unit.Status.Rentable() {
			rentable = append(rentable, unit.ID)
		}
	}

	entries, err := s.repo.ListActiveReservations(ctx, rentable)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservations")
	}
	byUnit := make(map[uuid.UUID][]int, len(rentable))
	for i, entry := range entries {
		byUnit[entry.UnitID] = append(byUnit[entry.UnitID], i)
	}

	// The request carries the product's cleaning buffer on its own end, and
	// every ledger entry carries the buffer snapshotted at booking time, so a
	// conflict in either direction is caught.
	requested := interval.WithBuffer(product.CleaningDaysBuffer)

	for _, unit := range units {
		free := unit.Status.Rentable()
		if free {
			for _, i := range byUnit[unit.ID] {
				if ExclusionOf(entries[i]).Overlaps(requested) {
					free = false
					break
				}
			}
		}
		if free {
			result.AvailableCount++
		}
		result.Units = append(result.Units, UnitAvailability{
			UnitID:    unit.ID,
			Barcode:   unit.Barcode,
			Available: free,
		})
	}
	return result, nil
}
