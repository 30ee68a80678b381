package classify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/internal/products"
	"github.com/lucasmerida/storely-backend/internal/reservations"
	"github.com/lucasmerida/storely-backend/pkg/db/models"
	"github.com/lucasmerida/storely-backend/pkg/logger"
	"github.com/lucasmerida/storely-backend/pkg/types"
)

type fakeProducts struct {
	fiat      *models.Product
	credit    *models.Product
	ensureErr error
}

func (f *fakeProducts) WithTx(tx *gorm.DB) products.Service { return f }

func (f *fakeProducts) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return nil, nil
}

func (f *fakeProducts) EnsureFiatRefillProduct(ctx context.Context, storeID uuid.UUID) (*models.Product, error) {
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	return f.fiat, nil
}

func (f *fakeProducts) EnsureCreditRefillProduct(ctx context.Context, storeID uuid.UUID) (*models.Product, error) {
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	return f.credit, nil
}

type fakeReservations struct {
	byOrder map[uuid.UUID]*models.Reservation
}

func (f *fakeReservations) WithTx(tx *gorm.DB) reservations.Repository { return f }

func (f *fakeReservations) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return nil, nil
}

func (f *fakeReservations) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Reservation, error) {
	if f.byOrder == nil {
		return nil, nil
	}
	return f.byOrder[orderID], nil
}

func (f *fakeReservations) Create(ctx context.Context, reservation *models.Reservation) error {
	return nil
}

func (f *fakeReservations) Update(ctx context.Context, reservation *models.Reservation) error {
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})
}

func newTestService(t *testing.T, productSvc products.Service, reservationRepo reservations.Repository) Service {
	t.Helper()
	svc, err := NewService(productSvc, reservationRepo, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func encodeAttrs(t *testing.T, attrs types.CheckoutAttributes) *string {
	t.Helper()
	raw, err := json.Marshal(attrs)
	if err != nil {
		t.Fatalf("marshal attrs: %v", err)
	}
	s := string(raw)
	return &s
}

func TestClassifyByProductIdentity(t *testing.T) {
	fiatProduct := &models.Product{ID: uuid.New()}
	creditProduct := &models.Product{ID: uuid.New()}
	svc := newTestService(t, &fakeProducts{fiat: fiatProduct, credit: creditProduct}, &fakeReservations{})

	productID := fiatProduct.ID
	order := &models.Order{
		ID:      uuid.New(),
		StoreID: uuid.New(),
		Items: []models.OrderLineItem{
			{ProductID: &productID, Name: "whatever"},
		},
	}

	got, err := svc.Classify(context.Background(), order)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if !got.IsFiatRefill {
		t.Fatalf("expected fiat refill match by product id")
	}
	if got.IsCreditRefill {
		t.Fatalf("unexpected credit refill match")
	}
}

func TestClassifyFallsThroughToAttributes(t *testing.T) {
	// the product-id check is false, the attribute flag decides
	svc := newTestService(t, &fakeProducts{
		fiat:   &models.Product{ID: uuid.New()},
		credit: &models.Product{ID: uuid.New()},
	}, &fakeReservations{})

	unrelated := uuid.New()
	order := &models.Order{
		ID:      uuid.New(),
		StoreID: uuid.New(),
		CheckoutAttributes: encodeAttrs(t, types.CheckoutAttributes{
			FiatRefill: types.Bool(true),
		}),
		Items: []models.OrderLineItem{
			{ProductID: &unrelated, Name: "T-shirt"},
		},
	}

	got, err := svc.Classify(context.Background(), order)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if !got.IsFiatRefill {
		t.Fatalf("expected fiat refill from attribute fallback")
	}
}

func TestClassifyNameHeuristicLastResort(t *testing.T) {
	svc := newTestService(t, &fakeProducts{
		fiat:   &models.Product{ID: uuid.New()},
		credit: &models.Product{ID: uuid.New()},
	}, &fakeReservations{})

	order := &models.Order{
		ID:      uuid.New(),
		StoreID: uuid.New(),
		Items: []models.OrderLineItem{
			{Name: "Refill Account Balance (NT$1000)"},
		},
	}

	got, err := svc.Classify(context.Background(), order)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if !got.IsFiatRefill {
		t.Fatalf("expected fiat refill from name heuristic")
	}
}

func TestClassifyProductLookupFailureFallsThrough(t *testing.T) {
	svc := newTestService(t, &fakeProducts{
		ensureErr: errors.New("catalog unavailable"),
	}, &fakeReservations{})

	order := &models.Order{
		ID:      uuid.New(),
		StoreID: uuid.New(),
		CheckoutAttributes: encodeAttrs(t, types.CheckoutAttributes{
			CreditRefill: types.Bool(true),
		}),
	}

	got, err := svc.Classify(context.Background(), order)
	if err != nil {
		t.Fatalf("classify must not abort on strategy failure: %v", err)
	}
	if !got.IsCreditRefill {
		t.Fatalf("expected credit refill despite product lookup failure")
	}
}

func TestClassifyGarbledAttributesAreNoMatch(t *testing.T) {
	svc := newTestService(t, &fakeProducts{
		fiat:   &models.Product{ID: uuid.New()},
		credit: &models.Product{ID: uuid.New()},
	}, &fakeReservations{})

	garbage := "{not json"
	order := &models.Order{
		ID:                 uuid.New(),
		StoreID:            uuid.New(),
		CheckoutAttributes: &garbage,
		Items: []models.OrderLineItem{
			{Name: "T-shirt"},
		},
	}

	got, err := svc.Classify(context.Background(), order)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if got.IsFiatRefill || got.IsCreditRefill {
		t.Fatalf("garbled attributes must not match, got %+v", got)
	}
}

func TestClassifyDetectsReservation(t *testing.T) {
	orderID := uuid.New()
	reservation := &models.Reservation{ID: uuid.New()}
	svc := newTestService(t, &fakeProducts{
		fiat:   &models.Product{ID: uuid.New()},
		credit: &models.Product{ID: uuid.New()},
	}, &fakeReservations{
		byOrder: map[uuid.UUID]*models.Reservation{orderID: reservation},
	})

	order := &models.Order{ID: orderID, StoreID: uuid.New()}
	got, err := svc.Classify(context.Background(), order)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if !got.IsRsvp {
		t.Fatalf("expected reservation match")
	}
	if got.ReservationID == nil || *got.ReservationID != reservation.ID {
		t.Fatalf("expected reservation id to be carried")
	}
}
