package paymentmethods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/pkg/db/models"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
)

// Service resolves the payment method driving a settlement.
type Service interface {
	WithTx(tx *gorm.DB) Service
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	Resolve(ctx context.Context, store *models.Store, methodID *uuid.UUID) (*models.PaymentMethod, error)
}

type service struct {
	repo Repository
}

// NewService wires a payment method service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment method repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method id is required")
	}
	method, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching payment method")
	}
	if method == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
	}
	return method, nil
}

// Resolve picks the explicit method when given, the store default otherwise,
// and rejects methods disabled or not enabled for the store's flows.
func (s *service) Resolve(ctx context.Context, store *models.Store, methodID *uuid.UUID) (*models.PaymentMethod, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store is required")
	}

	var method *models.PaymentMethod
	var err error
	if methodID != nil && *methodID != uuid.Nil {
		method, err = s.GetByID(ctx, *methodID)
		if err != nil {
			return nil, err
		}
	} else {
		method, err = s.repo.FindDefaultForStore(ctx, store.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching default payment method")
		}
		if method == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store has no default payment method")
		}
	}

	if method.StoreID != store.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment method belongs to another store")
	}
	if !method.Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment method is disabled")
	}
	if !store.FlowEnabled(method.Flow) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment flow is not enabled for this store")
	}
	return method, nil
}
