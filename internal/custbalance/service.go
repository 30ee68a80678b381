package custbalance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/pkg/db/models"
	"github.com/lucasmerida/storely-backend/pkg/enums"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
)

// Service mutates customer balances exclusively through signed ledger entries.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Append(ctx context.Context, input AppendInput) (*models.CustomerLedgerEntry, error)
	TopUpThenHold(ctx context.Context, input TopUpThenHoldInput) ([]*models.CustomerLedgerEntry, error)
	GetBalance(ctx context.Context, storeID, userID uuid.UUID, kind enums.BalanceKind) (decimal.Decimal, error)
	HasTopupForReference(ctx context.Context, referenceID uuid.UUID) (bool, error)
	ReplayBalance(ctx context.Context, storeID, userID uuid.UUID, kind enums.BalanceKind) (decimal.Decimal, error)
}

// AppendInput is one signed customer ledger mutation.
type AppendInput struct {
	StoreID     uuid.UUID
	UserID      uuid.UUID
	Kind        enums.BalanceKind
	Amount      decimal.Decimal
	Type        enums.CustomerLedgerType
	ReferenceID *uuid.UUID
	Note        string
	CreatorID   *uuid.UUID
}

// TopUpThenHoldInput describes the external-gateway two-step: funds land as
// a Topup and are immediately Held, netting zero.
type TopUpThenHoldInput struct {
	StoreID     uuid.UUID
	UserID      uuid.UUID
	Kind        enums.BalanceKind
	Amount      decimal.Decimal
	ReferenceID *uuid.UUID
	TopupNote   string
	HoldNote    string
}

type service struct {
	repo Repository
}

// NewService wires a customer balance service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer balance repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

// Append writes a ledger entry and upserts the scalar balance atomically
// with respect to the surrounding transaction. Hold and Spend entries that
// would drive the balance negative fail with InsufficientBalance and leave
// no trace.
func (s *service) Append(ctx context.Context, input AppendInput) (*models.CustomerLedgerEntry, error) {
	if err := validateAppend(input); err != nil {
		return nil, err
	}

	if err := s.repo.EnsureBalanceRow(ctx, input.StoreID, input.UserID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensuring balance row")
	}
	row, err := s.repo.GetBalanceForUpdate(ctx, input.StoreID, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "locking balance row")
	}

	current := row.Fiat
	if input.Kind == enums.BalanceKindCreditPoints {
		current = row.CreditPoints
	}
	newBalance := current.Add(input.Amount)

	if input.Type.Debits() && newBalance.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance").
			WithDetails(map[string]string{
				"kind":    string(input.Kind),
				"current": current.String(),
				"amount":  input.Amount.String(),
			})
	}

	entry := &models.CustomerLedgerEntry{
		StoreID:     input.StoreID,
		UserID:      input.UserID,
		Kind:        input.Kind,
		Amount:      input.Amount,
		Balance:     newBalance,
		Type:        input.Type,
		ReferenceID: input.ReferenceID,
		Note:        input.Note,
		CreatorID:   input.CreatorID,
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating customer ledger entry")
	}
	if err := s.repo.SetBalance(ctx, input.StoreID, input.UserID, input.Kind, newBalance); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating balance")
	}
	return entry, nil
}

// TopUpThenHold appends the offsetting Topup and Hold pair used for
// external-gateway reservation payments. Net balance change is zero; the
// pair exists so the money trail stays legible.
func (s *service) TopUpThenHold(ctx context.Context, input TopUpThenHoldInput) ([]*models.CustomerLedgerEntry, error) {
	if input.Amount.IsNegative() || input.Amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	topup, err := s.Append(ctx, AppendInput{
		StoreID:     input.StoreID,
		UserID:      input.UserID,
		Kind:        input.Kind,
		Amount:      input.Amount,
		Type:        enums.CustomerLedgerTypeTopup,
		ReferenceID: input.ReferenceID,
		Note:        input.TopupNote,
	})
	if err != nil {
		return nil, err
	}
	hold, err := s.Append(ctx, AppendInput{
		StoreID:     input.StoreID,
		UserID:      input.UserID,
		Kind:        input.Kind,
		Amount:      input.Amount.Neg(),
		Type:        enums.CustomerLedgerTypeHold,
		ReferenceID: input.ReferenceID,
		Note:        input.HoldNote,
	})
	if err != nil {
		return nil, err
	}
	return []*models.CustomerLedgerEntry{topup, hold}, nil
}

func (s *service) GetBalance(ctx context.Context, storeID, userID uuid.UUID, kind enums.BalanceKind) (decimal.Decimal, error) {
	if storeID == uuid.Nil || userID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "store id and user id are required")
	}
	row, err := s.repo.GetBalance(ctx, storeID, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if row == nil {
		return decimal.Zero, nil
	}
	if kind == enums.BalanceKindCreditPoints {
		return row.CreditPoints, nil
	}
	return row.Fiat, nil
}

func (s *service) HasTopupForReference(ctx context.Context, referenceID uuid.UUID) (bool, error) {
	if referenceID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}
	entry, err := s.repo.FindTopupByReference(ctx, referenceID)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// ReplayBalance recomputes one balance stream from its full entry list.
func (s *service) ReplayBalance(ctx context.Context, storeID, userID uuid.UUID, kind enums.BalanceKind) (decimal.Decimal, error) {
	entries, err := s.repo.ListEntries(ctx, storeID, userID, kind)
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, entry := range entries {
		balance = balance.Add(entry.Amount)
	}
	return balance, nil
}

func validateAppend(input AppendInput) error {
	if input.StoreID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid balance kind")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid ledger entry type")
	}
	return nil
}
