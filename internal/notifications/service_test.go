package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasmerida/storely-backend/pkg/db/models"
	pkgerrors "github.com/lucasmerida/storely-backend/pkg/errors"
	"github.com/lucasmerida/storely-backend/pkg/pagination"
)

type fakeRepo struct {
	rows      []models.Notification
	markedAll int64
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, notification *models.Notification) error {
	f.rows = append(f.rows, *notification)
	return nil
}

func (f *fakeRepo) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	var out []models.Notification
	for _, n := range f.rows {
		if n.StoreID != params.StoreID {
			continue
		}
		if params.UnreadOnly && n.ReadAt != nil {
			continue
		}
		out = append(out, n)
	}
	normalized := pagination.NormalizeLimit(params.Limit - 1)
	if len(out) > normalized {
		next := out[normalized]
		return out[:normalized], &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return out, nil, nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, storeID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	for i := range f.rows {
		if f.rows[i].ID == notificationID && f.rows[i].StoreID == storeID {
			if f.rows[i].ReadAt == nil {
				f.rows[i].ReadAt = &now
				return notificationMarkResult{Updated: true, Found: true}, nil
			}
			return notificationMarkResult{Found: true}, nil
		}
	}
	return notificationMarkResult{}, nil
}

func (f *fakeRepo) MarkAllRead(ctx context.Context, storeID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	for i := range f.rows {
		if f.rows[i].StoreID == storeID && f.rows[i].ReadAt == nil {
			f.rows[i].ReadAt = &now
			count++
		}
	}
	f.markedAll = count
	return count, nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestListFiltersUnread(t *testing.T) {
	storeID := uuid.New()
	read := time.Now()
	repo := &fakeRepo{rows: []models.Notification{
		{ID: uuid.New(), StoreID: storeID, Title: "unread"},
		{ID: uuid.New(), StoreID: storeID, Title: "read", ReadAt: &read},
		{ID: uuid.New(), StoreID: uuid.New(), Title: "other store"},
	}}
	svc := newTestService(t, repo)

	result, err := svc.List(context.Background(), ListParams{StoreID: storeID, UnreadOnly: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Title != "unread" {
		t.Fatalf("expected only the unread row, got %+v", result.Items)
	}
	if result.Cursor != "" {
		t.Fatalf("single page must not return a cursor")
	}
}

func TestListRejectsBadCursor(t *testing.T) {
	svc := newTestService(t, &fakeRepo{})
	_, err := svc.List(context.Background(), ListParams{StoreID: uuid.New(), Cursor: "not base64!"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkReadNotFound(t *testing.T) {
	svc := newTestService(t, &fakeRepo{})
	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkAllReadCounts(t *testing.T) {
	storeID := uuid.New()
	read := time.Now()
	repo := &fakeRepo{rows: []models.Notification{
		{ID: uuid.New(), StoreID: storeID},
		{ID: uuid.New(), StoreID: storeID},
		{ID: uuid.New(), StoreID: storeID, ReadAt: &read},
	}}
	svc := newTestService(t, repo)

	count, err := svc.MarkAllRead(context.Background(), storeID)
	if err != nil {
		t.Fatalf("mark all read failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}
