package pricing

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rakapradana/kostumpos-backend/pkg/config"
	"github.com/rakapradana/kostumpos-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/kostumpos-backend/pkg/errors"
)

// LineInput is one cart line handed to the pricing engine. PricePerDay is
// already resolved: the product's rate for product lines, the bundle's flat
// rate for bundle lines.
type LineInput struct {
	Kind        enums.LineKind
	ProductID   *uuid.UUID
	BundleID    *uuid.UUID
	Name        string
	Quantity    int
	PricePerDay int64
}

// LineQuote is a priced line. LineTotal = PricePerDay * Quantity * Days.
type LineQuote struct {
	LineInput
	LineTotal int64
}

// Quote is the full price breakdown for an order. All amounts are IDR minor
// units; the engine never leaves integer arithmetic.
type Quote struct {
	Days          int
	Lines         []LineQuote
	Subtotal      int64
	Deposit       int64
	DepositWaived bool
	Total         int64
}

// Engine computes order totals. It is pure: same input, same quote, no I/O.
type Engine struct {
	baseDeposit int64
}

// NewEngine builds a pricing engine from the shop's rental policy.
func NewEngine(cfg config.RentalConfig) *Engine {
	return &Engine{baseDeposit: cfg.BaseDeposit}
}

// Price quotes an order of the given billable day count. A guarantee document
// on file waives the flat deposit entirely.
func (e *Engine) Price(days int, lines []LineInput, guaranteeProvided bool) (*Quote, error) {
	if days < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rental must cover at least one day")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line")
	}

	quote := &Quote{
		Days:  days,
		Lines: make([]LineQuote, 0, len(lines)),
	}

	for i, line := range lines {
		if !line.Kind.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: invalid kind %q", i, line.Kind))
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: quantity must be at least 1", i))
		}
		if line.PricePerDay < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: negative price per day", i))
		}

		total := line.PricePerDay * int64(line.Quantity) * int64(days)
		quote.Lines = append(quote.Lines, LineQuote{LineInput: line, LineTotal: total})
		quote.Subtotal += total
	}

	if guaranteeProvided {
		quote.DepositWaived = true
	} else {
		quote.Deposit = e.baseDeposit
	}
	quote.Total = quote.Subtotal + quote.Deposit
	return quote, nil
}
