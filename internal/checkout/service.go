package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service runs the checkout state machine: one submission becomes one
// confirmed order with priced lines and reserved units, or nothing at all.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*Confirmation, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error)
}

type service struct {
	repo      Repository
	catalog   catalog.Repository
	allocator allocation.Allocator
	engine    *pricing.Engine
	tx        txRunner
	cfg       config.RentalConfig
	metrics   *metrics.CheckoutMetrics
	today     func() types.Date
}

// NewService wires the checkout coordinator.
func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	allocator allocation.Allocator,
	engine *pricing.Engine,
	tx txRunner,
	cfg config.RentalConfig,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if allocator == nil {
		return nil, fmt.Errorf("allocator required")
	}
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:      repo,
		catalog:   catalogRepo,
		allocator: allocator,
		engine:    engine,
		tx:        tx,
		cfg:       cfg,
		metrics:   checkoutMetrics,
		today:     types.Today,
	}, nil
}

// Submit walks one order through DRAFT, ALLOCATING, PRICED and CONFIRMED
// inside a single transaction. Any failure rolls the whole transaction back;
// contention from a concurrent checkout is retried a bounded number of times
// before surfacing as a rejection.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*Confirmation, error) {
	s.metrics.IncAttempt()

	interval, err := s.validate(input)
	if err != nil {
		s.metrics.IncRejected(string(pkgerrors.CodeValidation))
		return nil, err
	}

	var confirmation *Confirmation
	backoff := retry.WithMaxRetries(s.cfg.AllocationRetries, retry.NewConstant(s.cfg.RetryBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, attemptErr := s.attempt(ctx, input, interval)
		if attemptErr != nil {
			if typed := pkgerrors.As(attemptErr); typed != nil && typed.Code() == pkgerrors.CodeAllocationContention {
				s.metrics.IncConflict()
				return retry.RetryableError(attemptErr)
			}
			return attemptErr
		}
		confirmation = result
		return nil
	})
	if err != nil {
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.metrics.IncRejected(code)
		return nil, err
	}

	s.metrics.IncConfirmed()
	return confirmation, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) validate(input SubmitInput) (availability.Interval, error) {
	interval, err := availability.ValidateRange(input.StartDate, input.EndDate, s.cfg.GraceDays, s.today())
	if err != nil {
		return availability.Interval{}, err
	}
	if len(input.Lines) == 0 {
		return availability.Interval{}, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line")
	}
	for i, line := range input.Lines {
		hasProduct := line.ProductID != nil && *line.ProductID != uuid.Nil
		hasBundle := line.BundleID != nil && *line.BundleID != uuid.Nil
		if hasProduct == hasBundle {
			return availability.Interval{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: exactly one of product_id or bundle_id required", i))
		}
		if line.Quantity < 1 {
			return availability.Interval{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: quantity must be at least 1", i))
		}
	}
	if input.GuaranteeDocumentID != nil && !input.GuaranteeProvided {
		return availability.Interval{}, pkgerrors.New(pkgerrors.CodeValidation,
			"guarantee document supplied without guarantee_provided")
	}
	return interval, nil
}

// attempt runs one full state-machine pass. Returning an error rolls back the
// transaction, so a rejected submission persists nothing.
func (s *service) attempt(ctx context.Context, input SubmitInput, interval availability.Interval) (*Confirmation, error) {
	var confirmation *Confirmation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)

		order := &models.RentalOrder{
			ID:                  uuid.New(),
			Status:              enums.OrderStatusDraft,
			StartDate:           interval.Start,
			EndDate:             interval.End,
			Days:                interval.Days(),
			GuaranteeProvided:   input.GuaranteeProvided,
			GuaranteeDocumentID: input.GuaranteeDocumentID,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := s.transition(ctx, repo, order, enums.OrderStatusAllocating); err != nil {
			return err
		}

		resolved, err := s.resolveLines(ctx, catalogRepo, input.Lines)
		if err != nil {
			return err
		}

		quote, err := s.engine.Price(order.Days, resolved.pricingLines, input.GuaranteeProvided)
		if err != nil {
			return err
		}

		lines := make([]models.OrderLine, 0, len(resolved.requests))
		for i, request := range resolved.requests {
			lines = append(lines, models.OrderLine{
				ID:          request.OrderLineID,
				OrderID:     order.ID,
				Kind:        request.Kind,
				ProductID:   request.ProductID,
				BundleID:    request.BundleID,
				Name:        quote.Lines[i].Name,
				Quantity:    request.Quantity,
				PricePerDay: quote.Lines[i].PricePerDay,
				LineTotal:   quote.Lines[i].LineTotal,
			})
		}
		if err := repo.CreateLines(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order lines")
		}

		result, err := s.allocator.Allocate(ctx, tx, order.ID, resolved.requests, interval)
		if err != nil {
			return err
		}

		if !order.Status.CanTransitionTo(enums.OrderStatusPriced) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot price order in state %s", order.Status))
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":         enums.OrderStatusPriced,
			"subtotal":       quote.Subtotal,
			"deposit":        quote.Deposit,
			"deposit_waived": quote.DepositWaived,
			"total_payout":   quote.Total,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "price order")
		}
		order.Status = enums.OrderStatusPriced

		if err := s.transition(ctx, repo, order, enums.OrderStatusConfirmed); err != nil {
			return err
		}

		confirmation = buildConfirmation(order, quote, lines, result)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmation, nil
}

func (s *service) transition(ctx context.Context, repo Repository, order *models.RentalOrder, next enums.OrderStatus) error {
	if !order.Status.CanTransitionTo(next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}
	if err := repo.UpdateStatus(ctx, order.ID, next); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = next
	return nil
}

type resolvedLines struct {
	requests     []allocation.LineRequest
	pricingLines []pricing.LineInput
}

// resolveLines loads each line's product or bundle and snapshots name and
// per-day price. Bundles keep their flat rate; component products are not
// summed.
func (s *service) resolveLines(ctx context.Context, catalogRepo catalog.Repository, lines []SubmitLine) (*resolvedLines, error) {
	resolved := &resolvedLines{
		requests:     make([]allocation.LineRequest, 0, len(lines)),
		pricingLines: make([]pricing.LineInput, 0, len(lines)),
	}
	for _, line := range lines {
		lineID := uuid.New()
		if line.ProductID != nil {
			product, err := catalogRepo.FindProduct(ctx, *line.ProductID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			resolved.requests = append(resolved.requests, allocation.LineRequest{
				OrderLineID: lineID,
				Kind:        enums.LineKindProduct,
				ProductID:   line.ProductID,
				Quantity:    line.Quantity,
			})
			resolved.pricingLines = append(resolved.pricingLines, pricing.LineInput{
				Kind:        enums.LineKindProduct,
				ProductID:   line.ProductID,
				Name:        product.Name,
				Quantity:    line.Quantity,
				PricePerDay: product.PricePerDay,
			})
			continue
		}

		bundle, err := catalogRepo.FindBundle(ctx, *line.BundleID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bundle")
		}
		resolved.requests = append(resolved.requests, allocation.LineRequest{
			OrderLineID: lineID,
			Kind:        enums.LineKindBundle,
			BundleID:    line.BundleID,
			Quantity:    line.Quantity,
		})
		resolved.pricingLines = append(resolved.pricingLines, pricing.LineInput{
			Kind:        enums.LineKindBundle,
			BundleID:    line.BundleID,
			Name:        bundle.Name,
			Quantity:    line.Quantity,
			PricePerDay: bundle.PricePerDay,
		})
	}
	return resolved, nil
}

func buildConfirmation(order *models.RentalOrder, quote *pricing.Quote, lines []models.OrderLine, result *allocation.Result) *Confirmation {
	unitsByLine := make(map[uuid.UUID][]AssignedUnit)
	for _, assignment := range result.Assignments {
		unitsByLine[assignment.OrderLineID] = append(unitsByLine[assignment.OrderLineID], AssignedUnit{
			UnitID:        assignment.UnitID,
			Barcode:       assignment.Barcode,
			ReservationID: assignment.ReservationID,
		})
	}

	confirmation := &Confirmation{
		OrderID:       order.ID,
		Status:        order.Status,
		StartDate:     order.StartDate,
		EndDate:       order.EndDate,
		Days:          order.Days,
		Subtotal:      quote.Subtotal,
		Deposit:       quote.Deposit,
		DepositWaived: quote.DepositWaived,
		Total:         quote.Total,
		Lines:         make([]ConfirmationLine, 0, len(lines)),
	}
	for _, line := range lines {
		confirmation.Lines = append(confirmation.Lines, ConfirmationLine{
			LineID:      line.ID,
			Kind:        line.Kind,
			ProductID:   line.ProductID,
			BundleID:    line.BundleID,
			Name:        line.Name,
			Quantity:    line.Quantity,
			PricePerDay: line.PricePerDay,
			LineTotal:   line.LineTotal,
			Units:       unitsByLine[line.ID],
		})
	}
	return confirmation
}
