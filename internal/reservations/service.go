package reservations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakapradana/kostumpos-backend/pkg/db/models"
	"github.com/rakapradana/kostumpos-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/kostumpos-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes ledger operations beyond repository reads.
type Service interface {
	Cancel(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Reservation, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a reservation ledger service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservations repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Cancel marks a reservation cancelled, freeing its exclusion window for
// future bookings. Cancelling an already-cancelled reservation is a no-op.
func (s *service) Cancel(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	if reservationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id required")
	}

	var cancelled *models.Reservation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := repo.FindByID(ctx, reservationID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
		}
		if entry.Status == enums.ReservationStatusCancelled {
			cancelled = entry
			return nil
		}
		if err := repo.Cancel(ctx, entry.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel reservation")
		}
		entry.Status = enums.ReservationStatusCancelled
		cancelled = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Reservation, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	entries, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	return entries, nil
}
