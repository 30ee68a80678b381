package products

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/pkg/db/models"
)

type fakeRepo struct {
	products []models.Product
	creates  int
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) FindByNameFragment(ctx context.Context, storeID uuid.UUID, fragment string) (*models.Product, error) {
	for i := range f.products {
		p := f.products[i]
		if p.StoreID == storeID && strings.Contains(strings.ToLower(p.Name), strings.ToLower(fragment)) {
			return &f.products[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) Create(ctx context.Context, product *models.Product) error {
	product.ID = uuid.New()
	f.products = append(f.products, *product)
	f.creates++
	return nil
}

func TestEnsureFiatRefillProductCreatesOnce(t *testing.T) {
	repo := &fakeRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	storeID := uuid.New()

	first, err := svc.EnsureFiatRefillProduct(ctx, storeID)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if first.Name != FiatRefillName {
		t.Fatalf("unexpected product name %q", first.Name)
	}
	if !first.IsHidden {
		t.Fatalf("refill product should be hidden from the storefront")
	}

	second, err := svc.EnsureFiatRefillProduct(ctx, storeID)
	if err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected idempotent find-or-create, got new product")
	}
	if repo.creates != 1 {
		t.Fatalf("expected 1 create, got %d", repo.creates)
	}
}

func TestEnsureFiatRefillProductMatchesLegacyName(t *testing.T) {
	repo := &fakeRepo{}
	storeID := uuid.New()
	legacy := models.Product{ID: uuid.New(), StoreID: storeID, Name: "Top up account balance (legacy)"}
	repo.products = append(repo.products, legacy)

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.EnsureFiatRefillProduct(context.Background(), storeID)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if got.ID != legacy.ID {
		t.Fatalf("expected legacy product match")
	}
	if repo.creates != 0 {
		t.Fatalf("should not create when a match exists")
	}
}

func TestEnsureProductsPerStore(t *testing.T) {
	repo := &fakeRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	storeA := uuid.New()
	storeB := uuid.New()

	a, err := svc.EnsureCreditRefillProduct(ctx, storeA)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	b, err := svc.EnsureCreditRefillProduct(ctx, storeB)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("stores must not share refill products")
	}
}
