package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	paginationpkg "github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

type fakeRepository struct {
	created       []models.Notification
	listFn        func(ctx context.Context, params listNotificationsParams) ([]models.Notification, error)
	setFlagFn     func(ctx context.Context, userID, notificationID uuid.UUID, column string, value bool) (bool, error)
	markAllReadFn func(ctx context.Context, userID uuid.UUID) (int64, error)
	deleteCutoff  time.Time
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, notification *models.Notification) error {
	f.created = append(f.created, *notification)
	return nil
}

func (f *fakeRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil
}

func (f *fakeRepository) SetFlag(ctx context.Context, userID, notificationID uuid.UUID, column string, value bool) (bool, error) {
	if f.setFlagFn != nil {
		return f.setFlagFn(ctx, userID, notificationID, column, value)
	}
	return true, nil
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if f.markAllReadFn != nil {
		return f.markAllReadFn(ctx, userID)
	}
	return 0, nil
}

func (f *fakeRepository) DeleteArchivedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.deleteCutoff = cutoff
	return 2, nil
}

func newServiceWithRepo(repo Repository) Service {
	svc, _ := NewService(repo)
	return svc
}

func TestService_Notify(t *testing.T) {
	repo := &fakeRepository{}
	svc := newServiceWithRepo(repo)
	userID := uuid.New()

	err := svc.Notify(context.Background(), nil, Input{
		UserID:   userID,
		Type:     enums.NotificationTypeOrder,
		Title:    " Order placed ",
		Message:  "Your order INV-20240601-0001 was placed.",
		Metadata: map[string]any{"order_number": "INV-20240601-0001"},
	})
	if err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(repo.created))
	}
	got := repo.created[0]
	if got.Title != "Order placed" || got.UserID != userID {
		t.Fatalf("unexpected notification %+v", got)
	}
	if string(got.Metadata) != `{"order_number":"INV-20240601-0001"}` {
		t.Fatalf("unexpected metadata %s", got.Metadata)
	}
}

func TestService_NotifyValidation(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})
	cases := []Input{
		{Type: enums.NotificationTypeOrder, Title: "t", Message: "m"},
		{UserID: uuid.New(), Type: "spam", Title: "t", Message: "m"},
		{UserID: uuid.New(), Type: enums.NotificationTypeAlert, Title: " ", Message: "m"},
	}
	for _, input := range cases {
		if err := svc.Notify(context.Background(), nil, input); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}

func TestService_ListNotifications(t *testing.T) {
	first := models.Notification{ID: uuid.New(), CreatedAt: time.Now()}
	second := models.Notification{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Hour)}

	repo := &fakeRepository{
		listFn: func(ctx context.Context, params listNotificationsParams) ([]models.Notification, error) {
			if params.Limit != paginationpkg.LimitWithBuffer(1) {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			if !params.UnreadOnly {
				t.Fatal("expected unread filter to pass through")
			}
			return []models.Notification{first, second}, nil
		},
	}

	svc := newServiceWithRepo(repo)
	result, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Limit: 1, UnreadOnly: true})
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(result.Items))
	}
	if result.NextCursor == "" {
		t.Fatal("expected cursor for next page")
	}
	decoded, err := paginationpkg.ParseCursor(result.NextCursor)
	if err != nil {
		t.Fatalf("invalid cursor %q: %v", result.NextCursor, err)
	}
	if decoded.ID != first.ID {
		t.Fatalf("expected cursor id %s got %s", first.ID, decoded.ID)
	}
}

func TestService_ListNotificationsInvalidCursor(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})
	_, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "bad"})
	if err == nil {
		t.Fatal("expected error for invalid cursor")
	}
	errCode := pkgerrors.As(err).Code()
	if errCode != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", errCode)
	}
}

func TestService_FlagOperations(t *testing.T) {
	var calls []string
	repo := &fakeRepository{
		setFlagFn: func(ctx context.Context, userID, notificationID uuid.UUID, column string, value bool) (bool, error) {
			if value {
				calls = append(calls, column+"=true")
			} else {
				calls = append(calls, column+"=false")
			}
			return true, nil
		},
	}
	svc := newServiceWithRepo(repo)
	userID, id := uuid.New(), uuid.New()

	if err := svc.MarkRead(context.Background(), userID, id); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := svc.MarkUnread(context.Background(), userID, id); err != nil {
		t.Fatalf("mark unread: %v", err)
	}
	if err := svc.Archive(context.Background(), userID, id); err != nil {
		t.Fatalf("archive: %v", err)
	}

	want := []string{"is_read=true", "is_read=false", "is_archived=true"}
	if len(calls) != len(want) {
		t.Fatalf("unexpected calls %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("unexpected calls %v", calls)
		}
	}
}

func TestService_MarkReadNotFound(t *testing.T) {
	repo := &fakeRepository{
		setFlagFn: func(ctx context.Context, userID, notificationID uuid.UUID, column string, value bool) (bool, error) {
			return false, nil
		},
	}
	svc := newServiceWithRepo(repo)
	if err := svc.MarkRead(context.Background(), uuid.New(), uuid.New()); err == nil {
		t.Fatal("expected not found error")
	} else if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestService_MarkAllRead(t *testing.T) {
	repo := &fakeRepository{
		markAllReadFn: func(ctx context.Context, userID uuid.UUID) (int64, error) {
			return 3, nil
		},
	}
	svc := newServiceWithRepo(repo)
	count, err := svc.MarkAllRead(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected mark all read error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 updated rows, got %d", count)
	}
}

func TestService_MarkAllReadError(t *testing.T) {
	repo := &fakeRepository{
		markAllReadFn: func(ctx context.Context, userID uuid.UUID) (int64, error) {
			return 0, errors.New("boom")
		},
	}
	svc := newServiceWithRepo(repo)
	if _, err := svc.MarkAllRead(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error")
	}
}

func TestService_DeleteArchivedOlderThan(t *testing.T) {
	repo := &fakeRepository{}
	fixed := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	svc := &service{repo: repo, now: func() time.Time { return fixed }}

	count, err := svc.DeleteArchivedOlderThan(context.Background(), 30*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 deleted, got %d", count)
	}
	if !repo.deleteCutoff.Equal(time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected cutoff %v", repo.deleteCutoff)
	}
	if _, err := svc.DeleteArchivedOlderThan(context.Background(), 0); err == nil {
		t.Fatal("expected validation error for zero retention")
	}
}
