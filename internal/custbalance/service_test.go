package custbalance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/pkg/db/models"
	"github.com/lucasmerida/storely-backend/pkg/enums"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
)

type balanceKey struct {
	storeID uuid.UUID
	userID  uuid.UUID
}

type fakeRepo struct {
	balances map[balanceKey]*models.CustomerBalance
	entries  []models.CustomerLedgerEntry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{balances: make(map[balanceKey]*models.CustomerBalance)}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) EnsureBalanceRow(ctx context.Context, storeID, userID uuid.UUID) error {
	key := balanceKey{storeID, userID}
	if _, ok := f.balances[key]; !ok {
		f.balances[key] = &models.CustomerBalance{StoreID: storeID, UserID: userID}
	}
	return nil
}

func (f *fakeRepo) GetBalanceForUpdate(ctx context.Context, storeID, userID uuid.UUID) (*models.CustomerBalance, error) {
	row, ok := f.balances[balanceKey{storeID, userID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeRepo) GetBalance(ctx context.Context, storeID, userID uuid.UUID) (*models.CustomerBalance, error) {
	row, ok := f.balances[balanceKey{storeID, userID}]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (f *fakeRepo) CreateEntry(ctx context.Context, entry *models.CustomerLedgerEntry) error {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeRepo) SetBalance(ctx context.Context, storeID, userID uuid.UUID, kind enums.BalanceKind, balance decimal.Decimal) error {
	row := f.balances[balanceKey{storeID, userID}]
	if kind == enums.BalanceKindCreditPoints {
		row.CreditPoints = balance
	} else {
		row.Fiat = balance
	}
	return nil
}

func (f *fakeRepo) FindTopupByReference(ctx context.Context, referenceID uuid.UUID) (*models.CustomerLedgerEntry, error) {
	for i := range f.entries {
		entry := f.entries[i]
		if entry.ReferenceID != nil && *entry.ReferenceID == referenceID && entry.Type == enums.CustomerLedgerTypeTopup {
			return &entry, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListEntries(ctx context.Context, storeID, userID uuid.UUID, kind enums.BalanceKind) ([]models.CustomerLedgerEntry, error) {
	var out []models.CustomerLedgerEntry
	for _, entry := range f.entries {
		if entry.StoreID == storeID && entry.UserID == userID && entry.Kind == kind {
			out = append(out, entry)
		}
	}
	return out, nil
}

func TestAppendTopupAndSpend(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	storeID := uuid.New()
	userID := uuid.New()

	topup, err := svc.Append(ctx, AppendInput{
		StoreID: storeID,
		UserID:  userID,
		Kind:    enums.BalanceKindCreditPoints,
		Amount:  decimal.NewFromInt(100),
		Type:    enums.CustomerLedgerTypeTopup,
	})
	if err != nil {
		t.Fatalf("topup failed: %v", err)
	}
	if !topup.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("topup balance = %s, want 100", topup.Balance)
	}

	spend, err := svc.Append(ctx, AppendInput{
		StoreID: storeID,
		UserID:  userID,
		Kind:    enums.BalanceKindCreditPoints,
		Amount:  decimal.NewFromInt(-40),
		Type:    enums.CustomerLedgerTypeSpend,
	})
	if err != nil {
		t.Fatalf("spend failed: %v", err)
	}
	if !spend.Balance.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("spend balance = %s, want 60", spend.Balance)
	}

	got, err := svc.GetBalance(ctx, storeID, userID, enums.BalanceKindCreditPoints)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("balance = %s, want 60", got)
	}
}

func TestAppendRejectsNegativeBalance(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	storeID := uuid.New()
	userID := uuid.New()

	if _, err := svc.Append(ctx, AppendInput{
		StoreID: storeID,
		UserID:  userID,
		Kind:    enums.BalanceKindCreditPoints,
		Amount:  decimal.NewFromInt(10),
		Type:    enums.CustomerLedgerTypeTopup,
	}); err != nil {
		t.Fatalf("seed topup failed: %v", err)
	}

	_, err = svc.Append(ctx, AppendInput{
		StoreID: storeID,
		UserID:  userID,
		Kind:    enums.BalanceKindCreditPoints,
		Amount:  decimal.NewFromInt(-15),
		Type:    enums.CustomerLedgerTypeHold,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	// the failed hold must leave no trace
	got, err := svc.GetBalance(ctx, storeID, userID, enums.BalanceKindCreditPoints)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("balance = %s, want 10", got)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
}

func TestTopUpThenHoldNetsZero(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	storeID := uuid.New()
	userID := uuid.New()
	orderID := uuid.New()

	entries, err := svc.TopUpThenHold(ctx, TopUpThenHoldInput{
		StoreID:     storeID,
		UserID:      userID,
		Kind:        enums.BalanceKindFiat,
		Amount:      decimal.NewFromInt(1000),
		ReferenceID: &orderID,
	})
	if err != nil {
		t.Fatalf("topup-then-hold failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Type != enums.CustomerLedgerTypeTopup || !entries[0].Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Type != enums.CustomerLedgerTypeHold || !entries[1].Amount.Equal(decimal.NewFromInt(-1000)) {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}

	got, err := svc.GetBalance(ctx, storeID, userID, enums.BalanceKindFiat)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("balance = %s, want 0", got)
	}
}

func TestHasTopupForReference(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	orderID := uuid.New()

	if _, err := svc.Append(ctx, AppendInput{
		StoreID:     uuid.New(),
		UserID:      uuid.New(),
		Kind:        enums.BalanceKindFiat,
		Amount:      decimal.NewFromInt(50),
		Type:        enums.CustomerLedgerTypeTopup,
		ReferenceID: &orderID,
	}); err != nil {
		t.Fatalf("topup failed: %v", err)
	}

	found, err := svc.HasTopupForReference(ctx, orderID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !found {
		t.Fatalf("expected topup for reference")
	}

	missing, err := svc.HasTopupForReference(ctx, uuid.New())
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if missing {
		t.Fatalf("expected no topup for unknown reference")
	}
}

func TestReplayBalanceMatchesScalar(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	storeID := uuid.New()
	userID := uuid.New()

	steps := []struct {
		amount    int64
		entryType enums.CustomerLedgerType
	}{
		{100, enums.CustomerLedgerTypeTopup},
		{-30, enums.CustomerLedgerTypeSpend},
		{50, enums.CustomerLedgerTypeTopup},
		{-20, enums.CustomerLedgerTypeHold},
	}
	for _, step := range steps {
		if _, err := svc.Append(ctx, AppendInput{
			StoreID: storeID,
			UserID:  userID,
			Kind:    enums.BalanceKindFiat,
			Amount:  decimal.NewFromInt(step.amount),
			Type:    step.entryType,
		}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	replayed, err := svc.ReplayBalance(ctx, storeID, userID, enums.BalanceKindFiat)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	scalar, err := svc.GetBalance(ctx, storeID, userID, enums.BalanceKindFiat)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !replayed.Equal(scalar) {
		t.Fatalf("replayed %s != scalar %s", replayed, scalar)
	}
	if !replayed.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("replayed = %s, want 100", replayed)
	}
}
