package storeledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/pkg/db/models"
	"github.com/lucasmerida/storely-backend/pkg/enums"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
)

// Service appends store revenue ledger entries and answers settlement gates.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Append(ctx context.Context, input AppendInput) (*models.StoreLedgerEntry, error)
	HasEntryForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	ReplayBalance(ctx context.Context, storeID uuid.UUID) (decimal.Decimal, error)
}

// AppendInput captures one immutable store ledger row before its balance is
// derived.
type AppendInput struct {
	StoreID     uuid.UUID
	OrderID     *uuid.UUID
	Amount      decimal.Decimal
	Fee         decimal.Decimal
	PlatformFee decimal.Decimal
	Type        enums.StoreLedgerType
	Currency    enums.Currency

	// ReferenceDate anchors the availability window: the order's last
	// update for sales, time.Now for top-ups. Zero means now.
	ReferenceDate time.Time
	ClearDays     int
}

type service struct {
	repo Repository
}

// NewService wires a store ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "store ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

// Append writes the next ledger row for the store. The per-store advisory
// lock makes the latest-balance read safe against concurrent settlements of
// other orders; callers must invoke this inside a transaction.
func (s *service) Append(ctx context.Context, input AppendInput) (*models.StoreLedgerEntry, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid store ledger type")
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}

	if err := s.repo.AcquireStoreLock(ctx, input.StoreID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "locking store ledger")
	}

	latest, err := s.repo.Latest(ctx, input.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading latest ledger entry")
	}
	baseline := decimal.Zero
	if latest != nil {
		baseline = latest.Balance
	}

	reference := input.ReferenceDate
	if reference.IsZero() {
		reference = time.Now()
	}

	entry := &models.StoreLedgerEntry{
		StoreID:     input.StoreID,
		OrderID:     input.OrderID,
		Amount:      input.Amount,
		Fee:         input.Fee,
		PlatformFee: input.PlatformFee,
		Currency:    input.Currency,
		Type:        input.Type,
		Balance:     baseline.Add(input.Amount).Add(input.Fee).Add(input.PlatformFee),
		AvailableAt: reference.AddDate(0, 0, input.ClearDays),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating ledger entry")
	}
	return entry, nil
}

func (s *service) HasEntryForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.repo.HasEntryForOrder(ctx, orderID)
}

// ReplayBalance recomputes the store's final balance from its full entry
// stream. Reconciliation jobs compare it against the stored running total.
func (s *service) ReplayBalance(ctx context.Context, storeID uuid.UUID) (decimal.Decimal, error) {
	if storeID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	entries, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, entry := range entries {
		balance = balance.Add(entry.Amount).Add(entry.Fee).Add(entry.PlatformFee)
	}
	return balance, nil
}
