package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakapradana/kostumpos-backend/internal/availability"
	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	pkgerrors "github.com/rakapradana/kostumpos-backend/pkg/errors"
	"github.com/rakapradana/kostumpos-backend/pkg/pagination"
	"github.com/rakapradana/kostumpos-backend/pkg/types"
)

// ListProductsInput filters and paginates the product browse query.
type ListProductsInput struct {
	CategoryID *uuid.UUID
	Page       pagination.Params
}

// Service exposes the catalog read API for the POS UI.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductPage, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	ListCategories(ctx context.Context) ([]CategoryView, error)
	ListBundles(ctx context.Context) ([]BundleView, error)
}

type service struct {
	repo  Repository
	today func() types.Date
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, today: types.Today}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductPage, error) {
	cursor, err := pagination.ParseCursor(input.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Page.Limit)

	products, err := s.repo.ListProducts(ctx, input.CategoryID, cursor, pagination.LimitWithBuffer(input.Page.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	page := &ProductPage{Items: make([]ProductSummary, 0, len(products))}
	hasMore := len(products) > limit
	if hasMore {
		products = products[:limit]
	}

	badges, err := s.availableTodayBadges(ctx, products)
	if err != nil {
		return nil, err
	}

	for _, product := range products {
		page.Items = append(page.Items, s.summarize(product, badges[product.ID]))
	}
	if hasMore {
		last := products[len(products)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	badges, err := s.availableTodayBadges(ctx, []models.Product{*product})
	if err != nil {
		return nil, err
	}

	detail := &ProductDetail{
		ProductSummary: s.summarize(*product, badges[product.ID]),
		Units:          make([]UnitView, 0, len(product.Units)),
	}
	for _, unit := range product.Units {
		detail.Units = append(detail.Units, UnitView{
			ID:      unit.ID,
			Barcode: unit.Barcode,
			Status:  unit.Status,
		})
	}
	return detail, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	views := make([]CategoryView, 0, len(categories))
	for _, category := range categories {
		views = append(views, CategoryView{ID: category.ID, Name: category.Name})
	}
	return views, nil
}

func (s *service) ListBundles(ctx context.Context) ([]BundleView, error) {
	bundles, err := s.repo.ListBundles(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bundles")
	}
	views := make([]BundleView, 0, len(bundles))
	for _, bundle := range bundles {
		view := BundleView{
			ID:          bundle.ID,
			Name:        bundle.Name,
			PricePerDay: bundle.PricePerDay,
			Items:       make([]BundleComponent, 0, len(bundle.Items)),
		}
		for _, item := range bundle.Items {
			component := BundleComponent{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			}
			if item.Product != nil {
				component.ProductName = item.Product.Name
			}
			view.Items = append(view.Items, component)
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) summarize(product models.Product, availableToday int) ProductSummary {
	summary := ProductSummary{
		ID:                 product.ID,
		Name:               product.Name,
		CategoryID:         product.CategoryID,
		PricePerDay:        product.PricePerDay,
		ReplacementCost:    product.ReplacementCost,
		CleaningDaysBuffer: product.CleaningDaysBuffer,
		TotalUnits:         len(product.Units),
		AvailableToday:     availableToday,
	}
	if product.Category != nil {
		summary.CategoryName = product.Category.Name
	}
	return summary
}

// availableTodayBadges computes, per product, how many units could start a
// one-day rental today. The browse badge tolerates being a moment stale; the
// checkout path re-verifies under lock.
func (s *service) availableTodayBadges(ctx context.Context, products []models.Product) (map[uuid.UUID]int, error) {
	var unitIDs []uuid.UUID
	for _, product := range products {
		for _, unit := range product.Units {
			if unit.Status.Rentable() {
				unitIDs = append(unitIDs, unit.ID)
			}
		}
	}

	entries, err := s.repo.ListActiveReservations(ctx, unitIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservations")
	}
	byUnit := make(map[uuid.UUID][]models.Reservation)
	for _, entry := range entries {
		byUnit[entry.UnitID] = append(byUnit[entry.UnitID], entry)
	}

	today := s.today()
	badges := make(map[uuid.UUID]int, len(products))
	for _, product := range products {
		window := availability.Interval{Start: today, End: today.AddDays(1)}.
			WithBuffer(product.CleaningDaysBuffer)
		for _, unit := range product.Units {
			if !unit.Status.Rentable() {
				continue
			}
			if !availability.Blocked(window, byUnit[unit.ID]) {
				badges[product.ID]++
			}
		}
	}
	return badges, nil
}
