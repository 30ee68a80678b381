package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/pkg/db/models"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
)

const (
	// FiatRefillName is the well-known product backing account-balance refills.
	FiatRefillName = "Refill Account Balance"
	// CreditRefillName is the well-known product backing credit-point refills.
	CreditRefillName = "Store Credit Points"

	fiatRefillFragment   = "Account Balance"
	creditRefillFragment = "Store Credit"
)

// Service resolves the well-known refill products used by classification.
type Service interface {
	WithTx(tx *gorm.DB) Service
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	EnsureFiatRefillProduct(ctx context.Context, storeID uuid.UUID) (*models.Product, error)
	EnsureCreditRefillProduct(ctx context.Context, storeID uuid.UUID) (*models.Product, error)
}

type service struct {
	repo Repository
}

// NewService wires a product service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.repo.FindByID(ctx, id)
}

// EnsureFiatRefillProduct finds or lazily creates the store's fiat refill
// product. The lookup matches by name fragment so legacy renames keep
// resolving to the same row.
func (s *service) EnsureFiatRefillProduct(ctx context.Context, storeID uuid.UUID) (*models.Product, error) {
	return s.ensureProduct(ctx, storeID, fiatRefillFragment, FiatRefillName)
}

// EnsureCreditRefillProduct finds or lazily creates the store's credit-point
// refill product.
func (s *service) EnsureCreditRefillProduct(ctx context.Context, storeID uuid.UUID) (*models.Product, error) {
	return s.ensureProduct(ctx, storeID, creditRefillFragment, CreditRefillName)
}

func (s *service) ensureProduct(ctx context.Context, storeID uuid.UUID, fragment, canonicalName string) (*models.Product, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	existing, err := s.repo.FindByNameFragment(ctx, storeID, fragment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up refill product")
	}
	if existing != nil {
		return existing, nil
	}

	product := &models.Product{
		StoreID:  storeID,
		Name:     canonicalName,
		IsHidden: true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating refill product")
	}
	return product, nil
}
