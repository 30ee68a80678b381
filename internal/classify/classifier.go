package classify

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/internal/products"
	"github.com/lucasmerida/storely-backend/internal/reservations"
	"github.com/lucasmerida/storely-backend/pkg/db/models"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
	"github.com/lucasmerida/storely-backend/pkg/logger"
)

// Classification is the settlement routing decision for one order. The
// flags are independent; an order can in principle match more than one.
type Classification struct {
	IsFiatRefill   bool       `json:"isFiatRefill"`
	IsCreditRefill bool       `json:"isCreditRefill"`
	IsRsvp         bool       `json:"isRsvp"`
	ReservationID  *uuid.UUID `json:"reservationId,omitempty"`
}

// Service determines what kind of order a settlement is dealing with.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Classify(ctx context.Context, order *models.Order) (Classification, error)
}

var fiatNameLabels = []string{
	"refill account balance",
	"account balance",
	"recarga de saldo",
}

var creditNameLabels = []string{
	"store credit",
	"credit points",
	"puntos de crédito",
}

// matcher is one strategy in the fallback chain. A returned error means the
// strategy could not decide; the chain logs it and moves on.
type matcher func(ctx context.Context, order *models.Order) (bool, error)

type service struct {
	products     products.Service
	reservations reservations.Repository
	logg         *logger.Logger
}

// NewService wires the classifier with its strategy dependencies.
func NewService(productSvc products.Service, reservationRepo reservations.Repository, logg *logger.Logger) (Service, error) {
	if productSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product service required")
	}
	if reservationRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reservation repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		products:     productSvc,
		reservations: reservationRepo,
		logg:         logg,
	}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{
		products:     s.products.WithTx(tx),
		reservations: s.reservations.WithTx(tx),
		logg:         s.logg,
	}
}

// Classify runs each refill check through its priority chain, first match
// wins. The reservation flag is resolved independently by lookup.
func (s *service) Classify(ctx context.Context, order *models.Order) (Classification, error) {
	if order == nil || order.ID == uuid.Nil {
		return Classification{}, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}

	result := Classification{
		IsFiatRefill:   s.runChain(ctx, order, s.fiatChain()),
		IsCreditRefill: s.runChain(ctx, order, s.creditChain()),
	}

	reservation, err := s.reservations.FindByOrderID(ctx, order.ID)
	if err != nil {
		return Classification{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up reservation")
	}
	if reservation != nil {
		result.IsRsvp = true
		id := reservation.ID
		result.ReservationID = &id
	}

	return result, nil
}

// runChain evaluates matchers in priority order and stops at the first
// positive. Strategy failures never abort classification.
func (s *service) runChain(ctx context.Context, order *models.Order, chain []matcher) bool {
	for _, match := range chain {
		matched, err := match(ctx, order)
		if err != nil {
			logCtx := s.logg.WithOrderID(ctx, order.ID.String())
			logCtx = s.logg.WithField(logCtx, "error", err.Error())
			s.logg.Warn(logCtx, "classification strategy failed, falling through")
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

func (s *service) fiatChain() []matcher {
	return []matcher{
		s.productMatcher(s.products.EnsureFiatRefillProduct),
		attributeMatcher(func(order *models.Order) bool {
			attrs := order.Attributes()
			return attrs.IsFiatRefill()
		}),
		nameMatcher(fiatNameLabels),
	}
}

func (s *service) creditChain() []matcher {
	return []matcher{
		s.productMatcher(s.products.EnsureCreditRefillProduct),
		attributeMatcher(func(order *models.Order) bool {
			attrs := order.Attributes()
			return attrs.IsCreditRefill()
		}),
		nameMatcher(creditNameLabels),
	}
}

// productMatcher checks line items against the store's well-known refill
// product. Authoritative when it matches: product ids are stable.
func (s *service) productMatcher(ensure func(context.Context, uuid.UUID) (*models.Product, error)) matcher {
	return func(ctx context.Context, order *models.Order) (bool, error) {
		product, err := ensure(ctx, order.StoreID)
		if err != nil {
			return false, err
		}
		for _, item := range order.Items {
			if item.ProductID != nil && *item.ProductID == product.ID {
				return true, nil
			}
		}
		return false, nil
	}
}

// attributeMatcher inspects the checkout-attribute bag. A bag that fails to
// parse reads as no hints, never an error.
func attributeMatcher(flag func(*models.Order) bool) matcher {
	return func(_ context.Context, order *models.Order) (bool, error) {
		return flag(order), nil
	}
}

// nameMatcher is the last-resort heuristic for legacy data whose attributes
// were overwritten by a gateway.
func nameMatcher(labels []string) matcher {
	return func(_ context.Context, order *models.Order) (bool, error) {
		for _, item := range order.Items {
			name := strings.ToLower(item.Name)
			for _, label := range labels {
				if strings.Contains(name, label) {
					return true, nil
				}
			}
		}
		return false, nil
	}
}
