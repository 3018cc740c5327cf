package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rakapradana/kostumpos-backend/pkg/config"
	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	"github.com/rakapradana/kostumpos-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/kostumpos-backend/pkg/errors"
	"github.com/rakapradana/kostumpos-backend/pkg/types"
)

func setupAvailabilityTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:availability_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category_id TEXT NOT NULL,
  price_per_day INTEGER NOT NULL,
  replacement_cost INTEGER NOT NULL,
  cleaning_days_buffer INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS inventory_units (
  id TEXT PRIMARY KEY,
  barcode TEXT NOT NULL UNIQUE,
  product_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'available',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS reservations (
  id TEXT PRIMARY KEY,
  unit_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  order_line_id TEXT NOT NULL,
  start_date DATE NOT NULL,
  end_date DATE NOT NULL,
  buffer_days INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`}

	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, buffer int, unitCount int) (*models.Product, []models.InventoryUnit) {
	t.Helper()

	category := models.Category{ID: uuid.New(), Name: "cat_" + uuid.NewString()}
	require.NoError(t, db.Create(&category).Error)

	product := models.Product{
		ID:                 uuid.New(),
		Name:               name,
		CategoryID:         category.ID,
		PricePerDay:        300000,
		ReplacementCost:    2000000,
		CleaningDaysBuffer: buffer,
	}
	require.NoError(t, db.Create(&product).Error)

	units := make([]models.InventoryUnit, 0, unitCount)
	for i := 0; i < unitCount; i++ {
		unit := models.InventoryUnit{
			ID:        uuid.New(),
			Barcode:   name + "-" + string(rune('A'+i)),
			ProductID: product.ID,
			Status:    enums.UnitStatusAvailable,
		}
		require.NoError(t, db.Create(&unit).Error)
		units = append(units, unit)
	}
	return &product, units
}

func seedReservation(t *testing.T, db *gorm.DB, unitID uuid.UUID, start, end types.Date, buffer int, status enums.ReservationStatus) {
	t.Helper()
	entry := models.Reservation{
		ID:          uuid.New(),
		UnitID:      unitID,
		OrderID:     uuid.New(),
		OrderLineID: uuid.New(),
		StartDate:   start,
		EndDate:     end,
		BufferDays:  buffer,
		Status:      status,
	}
	require.NoError(t, db.Create(&entry).Error)
}

func newTestService(t *testing.T, db *gorm.DB, today types.Date) *service {
	t.Helper()
	cfg := config.RentalConfig{GraceDays: 1}
	svc, err := NewService(NewRepository(db), cfg)
	require.NoError(t, err)
	impl := svc.(*service)
	impl.today = func() types.Date { return today }
	return impl
}

func TestAvailableCountsFreeUnitsAroundBuffers(t *testing.T) {
	db := setupAvailabilityTestDB(t)
	product, units := seedProduct(t, db, "TUX", 1, 4)

	// Three of four units carry holds whose exclusion interval collides with
	// the requested weekend; the fourth stays free.
	seedReservation(t, db, units[0].ID, day(10), day(13), 1, enums.ReservationStatusActive)
	seedReservation(t, db, units[1].ID, day(11), day(14), 1, enums.ReservationStatusActive)
	// Ends day 10 but the 1-day buffer blocks day 10 itself.
	seedReservation(t, db, units[2].ID, day(7), day(10), 1, enums.ReservationStatusActive)

	svc := newTestService(t, db, day(9))
	result, err := svc.Available(context.Background(), Query{
		ProductID: product.ID,
		Start:     day(10),
		End:       day(13),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalUnits)
	assert.Equal(t, 1, result.AvailableCount)
	assert.Equal(t, 3, result.Days)
	require.Len(t, result.Units, 4)

	free := map[string]bool{}
	for _, unit := range result.Units {
		free[unit.Barcode] = unit.Available
	}
	assert.False(t, free["TUX-A"])
	assert.False(t, free["TUX-B"])
	assert.False(t, free["TUX-C"])
	assert.True(t, free["TUX-D"])
}

func TestAvailableRequestBufferBlocksLaterHold(t *testing.T) {
	db := setupAvailabilityTestDB(t)
	product, units := seedProduct(t, db, "KBY", 2, 1)

	// Hold starts day 14. A request ending day 13 needs days 13-14 for
	// cleaning, so the unit is not free even though the rentals never touch.
	seedReservation(t, db, units[0].ID, day(14), day(16), 2, enums.ReservationStatusActive)

	svc := newTestService(t, db, day(9))
	result, err := svc.Available(context.Background(), Query{
		ProductID: product.ID,
		Start:     day(10),
		End:       day(13),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.AvailableCount)

	// Shifting the request earlier leaves room to clean.
	result, err = svc.Available(context.Background(), Query{
		ProductID: product.ID,
		Start:     day(9),
		End:       day(12),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.AvailableCount)
}

func TestAvailableIgnoresCancelledAndUnrentableUnits(t *testing.T) {
	db := setupAvailabilityTestDB(t)
	product, units := seedProduct(t, db, "SPD", 0, 3)

	seedReservation(t, db, units[0].ID, day(10), day(13), 0, enums.ReservationStatusCancelled)
	require.NoError(t, db.Model(&models.InventoryUnit{}).
		Where("id = ?", units[1].ID).
		Update("status", enums.UnitStatusDamaged).Error)

	svc := newTestService(t, db, day(9))
	result, err := svc.Available(context.Background(), Query{
		ProductID: product.ID,
		Start:     day(10),
		End:       day(13),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalUnits)
	assert.Equal(t, 2, result.AvailableCount)
	for _, unit := range result.Units {
		if unit.UnitID == units[1].ID {
			assert.False(t, unit.Available, "damaged unit must never be available")
		}
	}
}

func TestAvailableValidatesInput(t *testing.T) {
	db := setupAvailabilityTestDB(t)
	product, _ := seedProduct(t, db, "WD", 0, 1)
	svc := newTestService(t, db, day(9))

	cases := []struct {
		name  string
		query Query
		code  pkgerrors.Code
	}{
		{"missing product", Query{Start: day(10), End: day(11)}, pkgerrors.CodeValidation},
		{"inverted range", Query{ProductID: product.ID, Start: day(11), End: day(10)}, pkgerrors.CodeValidation},
		{"zero-length range", Query{ProductID: product.ID, Start: day(10), End: day(10)}, pkgerrors.CodeValidation},
		{"start beyond grace", Query{ProductID: product.ID, Start: day(7), End: day(10)}, pkgerrors.CodeValidation},
		{"unknown product", Query{ProductID: uuid.New(), Start: day(10), End: day(11)}, pkgerrors.CodeNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Available(context.Background(), tc.query)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, tc.code, typed.Code())
		})
	}

	// Grace window admits yesterday.
	_, err := svc.Available(context.Background(), Query{ProductID: product.ID, Start: day(8), End: day(10)})
	require.NoError(t, err)
}

func TestValidateRangeGraceWindow(t *testing.T) {
	t.Parallel()

	today := types.NewDate(2026, time.September, 9)

	if _, err := ValidateRange(day(8), day(10), 1, today); err != nil {
		t.Fatalf("start within grace rejected: %v", err)
	}
	if _, err := ValidateRange(day(7), day(10), 1, today); err == nil {
		t.Fatal("start beyond grace accepted")
	}
	if _, err := ValidateRange(day(7), day(10), 2, today); err != nil {
		t.Fatalf("wider grace rejected valid start: %v", err)
	}
}
