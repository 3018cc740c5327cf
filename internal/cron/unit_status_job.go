package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/rakapradana/kostumpos-backend/internal/availability"
	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	"github.com/rakapradana/kostumpos-backend/pkg/enums"
	"github.com/rakapradana/kostumpos-backend/pkg/logger"
	"github.com/rakapradana/kostumpos-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// UnitStatusJobParams configure the unit status projection.
type UnitStatusJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	Now    func() time.Time
}

// unitStatusJob recomputes the cached unit status column from the reservation
// ledger: a unit is RENTED while an active hold covers today, CLEANING while
// today falls inside a hold's buffer tail, AVAILABLE otherwise. DAMAGED and
// RETIRED are manual states the projection never touches.
type unitStatusJob struct {
	logg *logger.Logger
	db   txRunner
	now  func() time.Time
}

// NewUnitStatusJob builds the projection job.
func NewUnitStatusJob(params UnitStatusJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &unitStatusJob{
		logg: params.Logger,
		db:   params.DB,
		now:  now,
	}, nil
}

func (j *unitStatusJob) Name() string {
	return "unit-status-projection"
}

func (j *unitStatusJob) Run(ctx context.Context) error {
	today := types.DateOf(j.now())
	changed := 0

	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var units []models.InventoryUnit
		err := tx.WithContext(ctx).
			Where("status NOT IN ?", []enums.UnitStatus{enums.UnitStatusDamaged, enums.UnitStatusRetired}).
			Find(&units).Error
		if err != nil {
			return fmt.Errorf("load units: %w", err)
		}
		if len(units) == 0 {
			return nil
		}

		unitIDs := make([]any, 0, len(units))
		for _, unit := range units {
			unitIDs = append(unitIDs, unit.ID)
		}
		var entries []models.Reservation
		err = tx.WithContext(ctx).
			Where("unit_id IN ? AND status = ?", unitIDs, enums.ReservationStatusActive).
			Find(&entries).Error
		if err != nil {
			return fmt.Errorf("load reservations: %w", err)
		}
		byUnit := make(map[string][]models.Reservation)
		for _, entry := range entries {
			byUnit[entry.UnitID.String()] = append(byUnit[entry.UnitID.String()], entry)
		}

		var errs []error
		for _, unit := range units {
			desired := projectStatus(today, byUnit[unit.ID.String()])
			if desired == unit.Status {
				continue
			}
			err := tx.WithContext(ctx).
				Model(&models.InventoryUnit{}).
				Where("id = ? AND status NOT IN ?", unit.ID,
					[]enums.UnitStatus{enums.UnitStatusDamaged, enums.UnitStatusRetired}).
				Update("status", desired).Error
			if err != nil {
				errs = append(errs, fmt.Errorf("unit %s: %w", unit.Barcode, err))
				continue
			}
			changed++
		}
		return multierr.Combine(errs...)
	})
	if err != nil {
		return err
	}

	runCtx := j.logg.WithField(ctx, "units_changed", changed)
	j.logg.Info(runCtx, "unit status projection converged")
	return nil
}

// projectStatus derives today's status for one unit from its active holds.
func projectStatus(today types.Date, entries []models.Reservation) enums.UnitStatus {
	for _, entry := range entries {
		rental := availability.Interval{Start: entry.StartDate, End: entry.EndDate}
		if rental.Contains(today) {
			return enums.UnitStatusRented
		}
		tail := availability.Interval{Start: entry.EndDate, End: entry.EndDate.AddDays(entry.BufferDays)}
		if tail.Contains(today) {
			return enums.UnitStatusCleaning
		}
	}
	return enums.UnitStatusAvailable
}
