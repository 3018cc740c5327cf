package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	"github.com/rakapradana/kostumpos-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/kostumpos-backend/pkg/errors"
	"github.com/rakapradana/kostumpos-backend/pkg/pagination"
	"github.com/rakapradana/kostumpos-backend/pkg/types"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
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

func newCatalogService(t *testing.T, db *gorm.DB, today types.Date) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	svc.(*service).today = func() types.Date { return today }
	return svc
}

func seedCatalogProduct(t *testing.T, db *gorm.DB, categoryID uuid.UUID, name string, createdAt time.Time, barcodes ...string) *models.Product {
	t.Helper()
	product := models.Product{
		ID:                 uuid.New(),
		Name:               name,
		CategoryID:         categoryID,
		PricePerDay:        250000,
		ReplacementCost:    3000000,
		CleaningDaysBuffer: 1,
		CreatedAt:          createdAt,
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

func TestListProductsPaginatesWithCursor(t *testing.T) {
	db := setupCatalogTestDB(t)
	category := models.Category{ID: uuid.New(), Name: "Traditional"}
	require.NoError(t, db.Create(&category).Error)

	base := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedCatalogProduct(t, db, category.ID, "Kebaya "+string(rune('A'+i)),
			base.Add(time.Duration(i)*time.Minute), "TR-"+uuid.NewString()[:8])
	}

	svc := newCatalogService(t, db, types.NewDate(2026, time.September, 9))

	first, err := svc.ListProducts(context.Background(), ListProductsInput{
		Page: pagination.Params{Limit: 3},
	})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotEmpty(t, first.NextCursor)
	assert.Equal(t, "Kebaya A", first.Items[0].Name)

	second, err := svc.ListProducts(context.Background(), ListProductsInput{
		Page: pagination.Params{Limit: 3, Cursor: first.NextCursor},
	})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Empty(t, second.NextCursor)
	assert.Equal(t, "Kebaya D", second.Items[0].Name)

	_, err = svc.ListProducts(context.Background(), ListProductsInput{
		Page: pagination.Params{Cursor: "not-base64!"},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestListProductsFiltersByCategoryAndBadges(t *testing.T) {
	db := setupCatalogTestDB(t)
	wedding := models.Category{ID: uuid.New(), Name: "Wedding Costumes"}
	heroes := models.Category{ID: uuid.New(), Name: "Superheroes"}
	require.NoError(t, db.Create(&wedding).Error)
	require.NoError(t, db.Create(&heroes).Error)

	base := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	dress := seedCatalogProduct(t, db, wedding.ID, "Wedding Dress", base, "WD-001", "WD-002")
	seedCatalogProduct(t, db, heroes.ID, "Batman Suit", base.Add(time.Minute), "SH-001")

	// One dress is out today: hold covers today's one-day badge window.
	var unit models.InventoryUnit
	require.NoError(t, db.Where("barcode = ?", "WD-001").First(&unit).Error)
	hold := models.Reservation{
		ID:          uuid.New(),
		UnitID:      unit.ID,
		OrderID:     uuid.New(),
		OrderLineID: uuid.New(),
		StartDate:   types.NewDate(2026, time.September, 8),
		EndDate:     types.NewDate(2026, time.September, 11),
		BufferDays:  1,
		Status:      enums.ReservationStatusActive,
	}
	require.NoError(t, db.Create(&hold).Error)

	svc := newCatalogService(t, db, types.NewDate(2026, time.September, 9))

	page, err := svc.ListProducts(context.Background(), ListProductsInput{
		CategoryID: &wedding.ID,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	item := page.Items[0]
	assert.Equal(t, dress.ID, item.ID)
	assert.Equal(t, "Wedding Costumes", item.CategoryName)
	assert.Equal(t, 2, item.TotalUnits)
	assert.Equal(t, 1, item.AvailableToday)
}

func TestGetProductIncludesUnitRoster(t *testing.T) {
	db := setupCatalogTestDB(t)
	category := models.Category{ID: uuid.New(), Name: "Superheroes"}
	require.NoError(t, db.Create(&category).Error)
	product := seedCatalogProduct(t, db, category.ID, "Spiderman Suit",
		time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC), "SH-SPD-001", "SH-SPD-002")

	svc := newCatalogService(t, db, types.NewDate(2026, time.September, 9))

	detail, err := svc.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, detail.ID)
	assert.Len(t, detail.Units, 2)

	_, err = svc.GetProduct(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListCategoriesAndBundles(t *testing.T) {
	db := setupCatalogTestDB(t)
	category := models.Category{ID: uuid.New(), Name: "Wedding Costumes"}
	require.NoError(t, db.Create(&category).Error)
	dress := seedCatalogProduct(t, db, category.ID, "Wedding Dress",
		time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC), "WD-001")
	tux := seedCatalogProduct(t, db, category.ID, "Tuxedo",
		time.Date(2026, time.September, 1, 11, 0, 0, 0, time.UTC), "TX-001")

	bundle := models.Bundle{ID: uuid.New(), Name: "Wedding Couple Package", PricePerDay: 700000}
	require.NoError(t, db.Create(&bundle).Error)
	items := []models.BundleItem{
		{ID: uuid.New(), BundleID: bundle.ID, ProductID: dress.ID, Quantity: 1},
		{ID: uuid.New(), BundleID: bundle.ID, ProductID: tux.ID, Quantity: 1},
	}
	require.NoError(t, db.Create(&items).Error)

	svc := newCatalogService(t, db, types.NewDate(2026, time.September, 9))

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Wedding Costumes", categories[0].Name)

	bundles, err := svc.ListBundles(context.Background())
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	assert.EqualValues(t, 700000, bundles[0].PricePerDay)
	require.Len(t, bundles[0].Items, 2)
	names := []string{bundles[0].Items[0].ProductName, bundles[0].Items[1].ProductName}
	assert.Contains(t, names, "Wedding Dress")
	assert.Contains(t, names, "Tuxedo")
}
