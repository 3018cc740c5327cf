package allocation

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakapradana/kostumpos-backend/internal/availability"
	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	"github.com/rakapradana/kostumpos-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/kostumpos-backend/pkg/errors"
)

// LineRequest is one order line to allocate units for. Bundle lines are
// expanded into their component products; product lines map directly.
type LineRequest struct {
	OrderLineID uuid.UUID
	Kind        enums.LineKind
	ProductID   *uuid.UUID
	BundleID    *uuid.UUID
	Quantity    int
}

// demand is one (line, product, quantity) requirement after bundle expansion.
type demand struct {
	orderLineID uuid.UUID
	productID   uuid.UUID
	quantity    int
}

// Assignment records one unit reserved for one order line.
type Assignment struct {
	OrderLineID   uuid.UUID `json:"order_line_id"`
	ProductID     uuid.UUID `json:"product_id"`
	UnitID        uuid.UUID `json:"unit_id"`
	Barcode       string    `json:"barcode"`
	ReservationID uuid.UUID `json:"reservation_id"`
}

// Result is a successful all-or-nothing allocation.
type Result struct {
	Assignments  []Assignment
	Reservations []models.Reservation
}

// InsufficientDetails names the first product that could not be covered.
type InsufficientDetails struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

// Allocator reserves concrete inventory units for an order inside the
// caller's transaction. Any error leaves nothing to commit.
type Allocator interface {
	Allocate(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []LineRequest, interval availability.Interval) (*Result, error)
}

type allocator struct {
	repo Repository
}

// NewAllocator builds the unit allocator.
func NewAllocator(repo Repository) (Allocator, error) {
	if repo == nil {
		return nil, fmt.Errorf("allocation repository required")
	}
	return &allocator{repo: repo}, nil
}

func (a *allocator) Allocate(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []LineRequest, interval availability.Interval) (*Result, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "allocation requires a transaction")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to allocate")
	}

	repo := a.repo.WithTx(tx)

	demands, err := expandDemands(ctx, repo, lines)
	if err != nil {
		return nil, err
	}

	// Lock product rows in ascending ID order so concurrent checkouts
	// touching the same products cannot deadlock.
	productIDs := distinctProductIDs(demands)
	products, err := repo.LockProducts(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock products")
	}
	if len(products) != len(productIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	productsByID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		productsByID[product.ID] = product
	}

	result := &Result{}
	assignedUnits := make(map[uuid.UUID]bool)

	for _, productID := range productIDs {
		product := productsByID[productID]
		requested := 0
		for _, d := range demands {
			if d.productID == productID {
				requested += d.quantity
			}
		}

		free, err := a.freeUnits(ctx, repo, product, interval)
		if err != nil {
			return nil, err
		}
		if len(free) < requested {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientInventory,
				fmt.Sprintf("%s: requested %d unit(s), %d available", product.Name, requested, len(free))).
				WithDetails(InsufficientDetails{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   requested,
					Available:   len(free),
				})
		}

		// Hand out units in barcode order so repeated runs over the same
		// ledger produce identical assignments.
		next := 0
		for _, d := range demands {
			if d.productID != productID {
				continue
			}
			for i := 0; i < d.quantity; i++ {
				unit := free[next]
				next++
				assignedUnits[unit.ID] = true

				entry := models.Reservation{
					ID:          uuid.New(),
					UnitID:      unit.ID,
					OrderID:     orderID,
					OrderLineID: d.orderLineID,
					StartDate:   interval.Start,
					EndDate:     interval.End,
					BufferDays:  product.CleaningDaysBuffer,
					Status:      enums.ReservationStatusActive,
				}
				result.Reservations = append(result.Reservations, entry)
				result.Assignments = append(result.Assignments, Assignment{
					OrderLineID:   d.orderLineID,
					ProductID:     product.ID,
					UnitID:        unit.ID,
					Barcode:       unit.Barcode,
					ReservationID: entry.ID,
				})
			}
		}
	}

	if err := repo.CreateReservations(ctx, result.Reservations); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert reservations")
	}

	if err := a.verifyNoOverlap(ctx, repo, assignedUnits); err != nil {
		return nil, err
	}
	return result, nil
}

// freeUnits returns the rentable units of a product whose active holds leave
// the requested exclusion interval open, in barcode order.
func (a *allocator) freeUnits(ctx context.Context, repo Repository, product models.Product, interval availability.Interval) ([]models.InventoryUnit, error) {
	units, err := repo.ListRentableUnits(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory units")
	}
	unitIDs := make([]uuid.UUID, 0, len(units))
	for _, unit := range units {
		unitIDs = append(unitIDs, unit.ID)
	}

	entries, err := repo.ListActiveReservations(ctx, unitIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservations")
	}
	byUnit := make(map[uuid.UUID][]models.Reservation)
	for _, entry := range entries {
		byUnit[entry.UnitID] = append(byUnit[entry.UnitID], entry)
	}

	requested := interval.WithBuffer(product.CleaningDaysBuffer)
	free := make([]models.InventoryUnit, 0, len(units))
	for _, unit := range units {
		if !availability.Blocked(requested, byUnit[unit.ID]) {
			free = append(free, unit)
		}
	}
	return free, nil
}

// verifyNoOverlap re-reads the ledger for every unit just reserved and checks
// that no two active entries exclude each other. On SQLite nothing can slip
// in mid-transaction; on Postgres this catches a racing insert committed
// between our read and write, turning it into a retryable conflict.
func (a *allocator) verifyNoOverlap(ctx context.Context, repo Repository, unitIDs map[uuid.UUID]bool) error {
	ids := make([]uuid.UUID, 0, len(unitIDs))
	for id := range unitIDs {
		ids = append(ids, id)
	}
	entries, err := repo.ListActiveReservations(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload reservations")
	}
	byUnit := make(map[uuid.UUID][]models.Reservation)
	for _, entry := range entries {
		byUnit[entry.UnitID] = append(byUnit[entry.UnitID], entry)
	}
	for _, held := range byUnit {
		for i := 0; i < len(held); i++ {
			for j := i + 1; j < len(held); j++ {
				if availability.ExclusionOf(held[i]).Overlaps(availability.ExclusionOf(held[j])) {
					return pkgerrors.New(pkgerrors.CodeAllocationContention,
						"concurrent checkout reserved the same unit")
				}
			}
		}
	}
	return nil
}

// expandDemands resolves bundle lines into per-product requirements. Line
// order is preserved so unit assignment stays deterministic.
func expandDemands(ctx context.Context, repo Repository, lines []LineRequest) ([]demand, error) {
	demands := make([]demand, 0, len(lines))
	for i, line := range lines {
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: quantity must be at least 1", i))
		}
		switch line.Kind {
		case enums.LineKindProduct:
			if line.ProductID == nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("line %d: product id required", i))
			}
			demands = append(demands, demand{
				orderLineID: line.OrderLineID,
				productID:   *line.ProductID,
				quantity:    line.Quantity,
			})
		case enums.LineKindBundle:
			if line.BundleID == nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("line %d: bundle id required", i))
			}
			bundle, err := repo.FindBundleWithItems(ctx, *line.BundleID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle not found")
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bundle")
			}
			if len(bundle.Items) == 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("bundle %s has no components", bundle.Name))
			}
			for _, item := range bundle.Items {
				demands = append(demands, demand{
					orderLineID: line.OrderLineID,
					productID:   item.ProductID,
					quantity:    item.Quantity * line.Quantity,
				})
			}
		default:
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: invalid kind %q", i, line.Kind))
		}
	}
	return demands, nil
}

func distinctProductIDs(demands []demand) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(demands))
	ids := make([]uuid.UUID, 0, len(demands))
	for _, d := range demands {
		if !seen[d.productID] {
			seen[d.productID] = true
			ids = append(ids, d.productID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
