package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkan-dev/preskool-api/internal/models"
	appErrors "github.com/arkan-dev/preskool-api/pkg/errors"
)

type fakeNotificationRepo struct {
	notifications []models.Notification
	createErr     error
	cleared       []string
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	out := []models.Notification{}
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	count := 0
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id, userID string) (bool, error) {
	for i, n := range f.notifications {
		if n.ID == id && n.UserID == userID {
			f.notifications[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	for i, n := range f.notifications {
		if n.UserID == userID {
			f.notifications[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) DeleteByUser(_ context.Context, userID string) error {
	f.cleared = append(f.cleared, userID)
	kept := f.notifications[:0]
	for _, n := range f.notifications {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	f.notifications = kept
	return nil
}

func TestNotificationServiceFeed(t *testing.T) {
	repo := &fakeNotificationRepo{notifications: []models.Notification{
		{ID: "n1", UserID: "u1", Message: "Added student: Kofi Mensah"},
		{ID: "n2", UserID: "u1", Message: "Deleted student: Ama Owusu", IsRead: true},
		{ID: "n3", UserID: "u2", Message: "Added student: Yaw Boateng"},
	}}
	svc := NewNotificationService(repo, nil)

	feed, err := svc.Feed(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, feed.Notifications, 2)
	assert.Equal(t, 1, feed.UnreadCount)
}

func TestNotificationServiceNotifySwallowsErrors(t *testing.T) {
	repo := &fakeNotificationRepo{createErr: assert.AnError}
	svc := NewNotificationService(repo, nil)

	svc.Notify(context.Background(), "u1", "Added student: Kofi Mensah")
	assert.Empty(t, repo.notifications)
}

func TestNotificationServiceMarkRead(t *testing.T) {
	repo := &fakeNotificationRepo{notifications: []models.Notification{
		{ID: "n1", UserID: "u1"},
	}}
	svc := NewNotificationService(repo, nil)

	require.NoError(t, svc.MarkRead(context.Background(), "u1", "n1"))
	assert.True(t, repo.notifications[0].IsRead)
}

func TestNotificationServiceMarkReadWrongUser(t *testing.T) {
	repo := &fakeNotificationRepo{notifications: []models.Notification{
		{ID: "n1", UserID: "u1"},
	}}
	svc := NewNotificationService(repo, nil)

	err := svc.MarkRead(context.Background(), "u2", "n1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.notifications[0].IsRead)
}

func TestNotificationServiceMarkAllRead(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, nil)

	for _, msg := range []string{"Added student: Kofi Mensah", "Added student: Ama Owusu", "Added student: Yaw Boateng"} {
		svc.Notify(context.Background(), "u1", msg)
	}
	svc.Notify(context.Background(), "u2", "Added student: Efua Asante")

	require.NoError(t, svc.MarkAllRead(context.Background(), "u1"))

	feed, err := svc.Feed(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, feed.Notifications, 3)
	assert.Equal(t, 0, feed.UnreadCount)

	other, err := svc.Feed(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, other.UnreadCount)

	// Repeating the call with nothing unread changes nothing.
	require.NoError(t, svc.MarkAllRead(context.Background(), "u1"))
	feed, err = svc.Feed(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, feed.UnreadCount)
	assert.Len(t, feed.Notifications, 3)
}

func TestNotificationServiceClearAll(t *testing.T) {
	repo := &fakeNotificationRepo{notifications: []models.Notification{
		{ID: "n1", UserID: "u1"},
		{ID: "n2", UserID: "u2"},
	}}
	svc := NewNotificationService(repo, nil)

	require.NoError(t, svc.ClearAll(context.Background(), "u1"))
	require.Len(t, repo.notifications, 1)
	assert.Equal(t, "u2", repo.notifications[0].UserID)
}
