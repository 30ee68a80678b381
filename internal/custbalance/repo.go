package custbalance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lucasmerida/storely-backend/pkg/db/models"
	"github.com/lucasmerida/storely-backend/pkg/enums"
)

// Repository manages customer ledger entries and the derived balance rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnsureBalanceRow(ctx context.Context, storeID, userID uuid.UUID) error
	GetBalanceForUpdate(ctx context.Context, storeID, userID uuid.UUID) (*models.CustomerBalance, error)
	GetBalance(ctx context.Context, storeID, userID uuid.UUID) (*models.CustomerBalance, error)
	CreateEntry(ctx context.Context, entry *models.CustomerLedgerEntry) error
	SetBalance(ctx context.Context, storeID, userID uuid.UUID, kind enums.BalanceKind, balance decimal.Decimal) error
	FindTopupByReference(ctx context.Context, referenceID uuid.UUID) (*models.CustomerLedgerEntry, error)
	ListEntries(ctx context.Context, storeID, userID uuid.UUID, kind enums.BalanceKind) ([]models.CustomerLedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a customer balance repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// EnsureBalanceRow creates the zero-balance row if the customer has no prior
// record so the follow-up row lock always has a target.
func (r *repository) EnsureBalanceRow(ctx context.Context, storeID, userID uuid.UUID) error {
	row := models.CustomerBalance{StoreID: storeID, UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

// GetBalanceForUpdate reads the balance row under a row lock, serializing
// concurrent appends to the same customer's streams.
func (r *repository) GetBalanceForUpdate(ctx context.Context, storeID, userID uuid.UUID) (*models.CustomerBalance, error) {
	var balance models.CustomerBalance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ? AND user_id = ?", storeID, userID).
		First(&balance).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *repository) GetBalance(ctx context.Context, storeID, userID uuid.UUID) (*models.CustomerBalance, error) {
	var balance models.CustomerBalance
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND user_id = ?", storeID, userID).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.CustomerLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) SetBalance(ctx context.Context, storeID, userID uuid.UUID, kind enums.BalanceKind, balance decimal.Decimal) error {
	column := "fiat"
	if kind == enums.BalanceKindCreditPoints {
		column = "credit_points"
	}
	return r.db.WithContext(ctx).
		Model(&models.CustomerBalance{}).
		Where("store_id = ? AND user_id = ?", storeID, userID).
		Update(column, balance).Error
}

func (r *repository) FindTopupByReference(ctx context.Context, referenceID uuid.UUID) (*models.CustomerLedgerEntry, error) {
	var entry models.CustomerLedgerEntry
	err := r.db.WithContext(ctx).
		Where("reference_id = ? AND type = ?", referenceID, enums.CustomerLedgerTypeTopup).
		Order("created_at ASC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListEntries(ctx context.Context, storeID, userID uuid.UUID, kind enums.BalanceKind) ([]models.CustomerLedgerEntry, error) {
	var entries []models.CustomerLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND user_id = ? AND kind = ?", storeID, userID, kind).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
