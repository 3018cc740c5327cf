package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rakapradana/kostumpos-backend/internal/allocation"
	"github.com/rakapradana/kostumpos-backend/internal/availability"
	"github.com/rakapradana/kostumpos-backend/internal/catalog"
	"github.com/rakapradana/kostumpos-backend/internal/pricing"
	"github.com/rakapradana/kostumpos-backend/pkg/config"
	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	"github.com/rakapradana/kostumpos-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/kostumpos-backend/pkg/errors"
	"github.com/rakapradana/kostumpos-backend/pkg/metrics"
	"github.com/rakapradana/kostumpos-backend/pkg/types"
)

func day(d int) types.Date {
	return types.NewDate(2026, time.September, d)
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
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
CREATE TABLE IF NOT EXISTS bundles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price_per_day INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS bundle_items (
  id TEXT PRIMARY KEY,
  bundle_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS rental_orders (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL DEFAULT 'draft',
  start_date DATE NOT NULL,
  end_date DATE NOT NULL,
  days INTEGER NOT NULL,
  subtotal INTEGER NOT NULL DEFAULT 0,
  deposit INTEGER NOT NULL DEFAULT 0,
  deposit_waived INTEGER NOT NULL DEFAULT 0,
  total_payout INTEGER NOT NULL DEFAULT 0,
  guarantee_provided INTEGER NOT NULL DEFAULT 0,
  guarantee_document_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  product_id TEXT,
  bundle_id TEXT,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price_per_day INTEGER NOT NULL,
  line_total INTEGER NOT NULL,
  created_at DATETIME
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

func testRentalConfig() config.RentalConfig {
	return config.RentalConfig{
		BaseDeposit:       1000000,
		GraceDays:         1,
		AllocationRetries: 2,
		RetryBackoff:      time.Millisecond,
	}
}

func newCheckoutService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	allocator, err := allocation.NewAllocator(allocation.NewRepository(db))
	require.NoError(t, err)
	return newCheckoutServiceWithAllocator(t, db, allocator)
}

func newCheckoutServiceWithAllocator(t *testing.T, db *gorm.DB, allocator allocation.Allocator) Service {
	t.Helper()

	svc, err := NewService(
		NewRepository(db),
		catalog.NewRepository(db),
		allocator,
		pricing.NewEngine(testRentalConfig()),
		gormTxRunner{db: db},
		testRentalConfig(),
		metrics.NewCheckoutMetrics(nil),
	)
	require.NoError(t, err)
	svc.(*service).today = func() types.Date { return day(9) }
	return svc
}

func seedCheckoutProduct(t *testing.T, db *gorm.DB, name string, pricePerDay int64, buffer int, barcodes ...string) *models.Product {
	t.Helper()

	category := models.Category{ID: uuid.New(), Name: "cat_" + uuid.NewString()}
	require.NoError(t, db.Create(&category).Error)

	product := models.Product{
		ID:                 uuid.New(),
		Name:               name,
		CategoryID:         category.ID,
		PricePerDay:        pricePerDay,
		ReplacementCost:    2000000,
		CleaningDaysBuffer: buffer,
	}
	require.NoError(t, db.Create(&product).Error)
	for _, barcode := range barcodes {
		unit := models.InventoryUnit{
			ID:        uuid.New(),
			Barcode:   barcode,
			ProductID: product.ID,
			Status:    enums.UnitStatusAvailable,
		}
		require.NoError(t, db.Create(&unit).Error)
	}
	return &product
}

func TestSubmitConfirmsProductOrder(t *testing.T) {
	db := setupCheckoutTestDB(t)
	product := seedCheckoutProduct(t, db, "Classic Black Tuxedo", 300000, 1, "TX-BLK-001", "TX-BLK-002")
	svc := newCheckoutService(t, db)

	confirmation, err := svc.Submit(context.Background(), SubmitInput{
		Lines:     []SubmitLine{{ProductID: &product.ID, Quantity: 1}},
		StartDate: day(10),
		EndDate:   day(11),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusConfirmed, confirmation.Status)
	assert.Equal(t, 1, confirmation.Days)
	assert.EqualValues(t, 300000, confirmation.Subtotal)
	assert.EqualValues(t, 1000000, confirmation.Deposit)
	assert.EqualValues(t, 1300000, confirmation.Total)
	require.Len(t, confirmation.Lines, 1)
	require.Len(t, confirmation.Lines[0].Units, 1)
	assert.Equal(t, "TX-BLK-001", confirmation.Lines[0].Units[0].Barcode)

	var order models.RentalOrder
	require.NoError(t, db.Preload("Lines").Where("id = ?", confirmation.OrderID).First(&order).Error)
	assert.Equal(t, enums.OrderStatusConfirmed, order.Status)
	assert.EqualValues(t, 1300000, order.TotalPayout)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "Classic Black Tuxedo", order.Lines[0].Name)

	var reservations []models.Reservation
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&reservations).Error)
	require.Len(t, reservations, 1)
	assert.Equal(t, enums.ReservationStatusActive, reservations[0].Status)
	assert.Equal(t, 1, reservations[0].BufferDays)
}

func TestSubmitBundleUsesFlatPriceAndWaivesDeposit(t *testing.T) {
	db := setupCheckoutTestDB(t)
	dress := seedCheckoutProduct(t, db, "Wedding Dress", 500000, 2, "WD-001")
	tux := seedCheckoutProduct(t, db, "Tuxedo", 300000, 1, "TX-001")

	bundle := models.Bundle{ID: uuid.New(), Name: "Wedding Couple Package", PricePerDay: 700000}
	require.NoError(t, db.Create(&bundle).Error)
	items := []models.BundleItem{
		{ID: uuid.New(), BundleID: bundle.ID, ProductID: dress.ID, Quantity: 1},
		{ID: uuid.New(), BundleID: bundle.ID, ProductID: tux.ID, Quantity: 1},
	}
	require.NoError(t, db.Create(&items).Error)

	svc := newCheckoutService(t, db)
	docID := uuid.New()
	confirmation, err := svc.Submit(context.Background(), SubmitInput{
		Lines:               []SubmitLine{{BundleID: &bundle.ID, Quantity: 1}},
		StartDate:           day(10),
		EndDate:             day(12),
		GuaranteeProvided:   true,
		GuaranteeDocumentID: &docID,
	})
	require.NoError(t, err)

	// Flat bundle rate: 700000 x 2 days, not the 800000/day component sum.
	assert.EqualValues(t, 1400000, confirmation.Subtotal)
	assert.True(t, confirmation.DepositWaived)
	assert.EqualValues(t, 0, confirmation.Deposit)
	assert.EqualValues(t, 1400000, confirmation.Total)

	// One garment reserved per component product.
	require.Len(t, confirmation.Lines, 1)
	assert.Len(t, confirmation.Lines[0].Units, 2)
}

func TestSubmitRejectionPersistsNothing(t *testing.T) {
	db := setupCheckoutTestDB(t)
	product := seedCheckoutProduct(t, db, "Batman Suit", 200000, 1, "SH-BTM-001")
	svc := newCheckoutService(t, db)

	_, err := svc.Submit(context.Background(), SubmitInput{
		Lines:     []SubmitLine{{ProductID: &product.ID, Quantity: 2}},
		StartDate: day(10),
		EndDate:   day(12),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientInventory, typed.Code())

	for _, model := range []any{&models.RentalOrder{}, &models.OrderLine{}, &models.Reservation{}} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "rollback must leave no %T rows", model)
	}
}

func TestSubmitAgainAfterInventoryExhausted(t *testing.T) {
	db := setupCheckoutTestDB(t)
	product := seedCheckoutProduct(t, db, "Wedding Dress", 500000, 2, "WD-001")
	svc := newCheckoutService(t, db)

	input := SubmitInput{
		Lines:     []SubmitLine{{ProductID: &product.ID, Quantity: 1}},
		StartDate: day(10),
		EndDate:   day(12),
	}

	first, err := svc.Submit(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, first.Status)

	// The confirmed order holds the only unit, so the same request again
	// must be rejected rather than double-booking it.
	_, err = svc.Submit(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientInventory, typed.Code())

	details, ok := typed.Details().(allocation.InsufficientDetails)
	require.True(t, ok)
	assert.Equal(t, 1, details.Requested)
	assert.Equal(t, 0, details.Available)

	// Only the first order and its reservation survive.
	var orders int64
	require.NoError(t, db.Model(&models.RentalOrder{}).Count(&orders).Error)
	assert.EqualValues(t, 1, orders)

	var reservations []models.Reservation
	require.NoError(t, db.Find(&reservations).Error)
	require.Len(t, reservations, 1)
	assert.Equal(t, first.OrderID, reservations[0].OrderID)
}

func TestSubmitValidationFailures(t *testing.T) {
	db := setupCheckoutTestDB(t)
	product := seedCheckoutProduct(t, db, "Kebaya", 250000, 1, "TR-KBY-001")
	svc := newCheckoutService(t, db)

	both := product.ID
	docID := uuid.New()
	cases := []struct {
		name  string
		input SubmitInput
	}{
		{"no lines", SubmitInput{StartDate: day(10), EndDate: day(11)}},
		{"inverted range", SubmitInput{
			Lines:     []SubmitLine{{ProductID: &product.ID, Quantity: 1}},
			StartDate: day(11), EndDate: day(10),
		}},
		{"start beyond grace", SubmitInput{
			Lines:     []SubmitLine{{ProductID: &product.ID, Quantity: 1}},
			StartDate: day(7), EndDate: day(10),
		}},
		{"both product and bundle", SubmitInput{
			Lines:     []SubmitLine{{ProductID: &product.ID, BundleID: &both, Quantity: 1}},
			StartDate: day(10), EndDate: day(11),
		}},
		{"zero quantity", SubmitInput{
			Lines:     []SubmitLine{{ProductID: &product.ID, Quantity: 0}},
			StartDate: day(10), EndDate: day(11),
		}},
		{"document without guarantee", SubmitInput{
			Lines:               []SubmitLine{{ProductID: &product.ID, Quantity: 1}},
			StartDate:           day(10), EndDate: day(11),
			GuaranteeDocumentID: &docID,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

type contentiousAllocator struct {
	calls int
}

func (a *contentiousAllocator) Allocate(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []allocation.LineRequest, interval availability.Interval) (*allocation.Result, error) {
	a.calls++
	return nil, pkgerrors.New(pkgerrors.CodeAllocationContention, "concurrent checkout reserved the same unit")
}

func TestSubmitContentionExhaustsRetries(t *testing.T) {
	db := setupCheckoutTestDB(t)
	product := seedCheckoutProduct(t, db, "Tuxedo", 300000, 1, "TX-001")

	stub := &contentiousAllocator{}
	svc := newCheckoutServiceWithAllocator(t, db, stub)

	_, err := svc.Submit(context.Background(), SubmitInput{
		Lines:     []SubmitLine{{ProductID: &product.ID, Quantity: 1}},
		StartDate: day(10),
		EndDate:   day(11),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeAllocationContention, typed.Code())

	// Initial attempt plus the configured retries.
	assert.Equal(t, 3, stub.calls)

	// Every attempt rolled back.
	var count int64
	require.NoError(t, db.Model(&models.RentalOrder{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetOrder(t *testing.T) {
	db := setupCheckoutTestDB(t)
	product := seedCheckoutProduct(t, db, "Tuxedo", 300000, 1, "TX-001")
	svc := newCheckoutService(t, db)

	confirmation, err := svc.Submit(context.Background(), SubmitInput{
		Lines:     []SubmitLine{{ProductID: &product.ID, Quantity: 1}},
		StartDate: day(10),
		EndDate:   day(11),
	})
	require.NoError(t, err)

	order, err := svc.GetOrder(context.Background(), confirmation.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, order.Status)
	assert.Len(t, order.Lines, 1)

	_, err = svc.GetOrder(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
