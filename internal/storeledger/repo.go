package storeledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/pkg/db/models"
)

// Repository manages persistence for store revenue ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	AcquireStoreLock(ctx context.Context, storeID uuid.UUID) error
	Latest(ctx context.Context, storeID uuid.UUID) (*models.StoreLedgerEntry, error)
	Create(ctx context.Context, entry *models.StoreLedgerEntry) error
	HasEntryForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.StoreLedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a store ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// AcquireStoreLock serializes ledger appends per store for the duration of
// the surrounding transaction. Must be called inside a transaction; the lock
// releases on commit or rollback.
func (r *repository) AcquireStoreLock(ctx context.Context, storeID uuid.UUID) error {
	if storeID == uuid.Nil {
		return errors.New("store id is required")
	}
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", storeID.String()).Error
}

func (r *repository) Latest(ctx context.Context, storeID uuid.UUID) (*models.StoreLedgerEntry, error) {
	var entry models.StoreLedgerEntry
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Order("id DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) Create(ctx context.Context, entry *models.StoreLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) HasEntryForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StoreLedgerEntry{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.StoreLedgerEntry, error) {
	var entries []models.StoreLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
