package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelicadichon/eSumbong/internal/models"
)

type notificationStoreStub struct {
	notifications []models.Notification
	markedFor     string
}

func (s *notificationStoreStub) ListByUsername(ctx context.Context, username string) ([]models.Notification, error) {
	out := make([]models.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if n.Username == username && n.Status != models.NotificationDeleted {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *notificationStoreStub) CountUnread(ctx context.Context, username string) (int, error) {
	count := 0
	for _, n := range s.notifications {
		if n.Username == username && n.Status == models.NotificationUnread {
			count++
		}
	}
	return count, nil
}

func (s *notificationStoreStub) MarkAllRead(ctx context.Context, username string) error {
	s.markedFor = username
	for i := range s.notifications {
		if s.notifications[i].Username == username && s.notifications[i].Status == models.NotificationUnread {
			s.notifications[i].Status = models.NotificationRead
		}
	}
	return nil
}

func (s *notificationStoreStub) SoftDelete(ctx context.Context, id int64, username string) error {
	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].Username == username {
			s.notifications[i].Status = models.NotificationDeleted
		}
	}
	return nil
}

func TestNotificationListDerivesBuckets(t *testing.T) {
	now := time.Now()
	store := &notificationStoreStub{notifications: []models.Notification{
		{ID: 1, Username: "juan", Message: "Your Road complaint has been assigned to the sk team on Aug 1, 2026 9:00 AM", Status: models.NotificationUnread, CreatedAt: now},
		{ID: 2, Username: "juan", Message: "Your Road complaint has been RESOLVED on Aug 2, 2026 4:00 PM", Status: models.NotificationUnread, CreatedAt: now},
		{ID: 3, Username: "juan", Message: "Scheduled maintenance on the Plaza drainage", Status: models.NotificationRead, CreatedAt: now},
	}}
	svc := NewNotificationService(store, nil)

	views, unread, err := svc.List(context.Background(), "juan")
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, 2, unread)

	assert.Equal(t, models.BucketReviewed, views[0].Bucket)
	assert.Equal(t, models.BucketResolved, views[1].Bucket)
	assert.Equal(t, models.BucketResolved, views[2].Bucket)
}

func TestNotificationListExcludesDeleted(t *testing.T) {
	store := &notificationStoreStub{notifications: []models.Notification{
		{ID: 1, Username: "juan", Message: "one", Status: models.NotificationDeleted},
		{ID: 2, Username: "juan", Message: "two", Status: models.NotificationRead},
	}}
	svc := NewNotificationService(store, nil)

	views, _, err := svc.List(context.Background(), "juan")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.EqualValues(t, 2, views[0].ID)
}

func TestNotificationMarkAllRead(t *testing.T) {
	store := &notificationStoreStub{notifications: []models.Notification{
		{ID: 1, Username: "juan", Status: models.NotificationUnread},
	}}
	svc := NewNotificationService(store, nil)

	require.NoError(t, svc.MarkAllRead(context.Background(), "juan"))
	assert.Equal(t, "juan", store.markedFor)

	_, unread, err := svc.List(context.Background(), "juan")
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotificationDeleteScopedToOwner(t *testing.T) {
	store := &notificationStoreStub{notifications: []models.Notification{
		{ID: 5, Username: "juan", Status: models.NotificationRead},
	}}
	svc := NewNotificationService(store, nil)

	// wrong owner leaves the row alone
	require.NoError(t, svc.Delete(context.Background(), 5, "maria"))
	assert.Equal(t, models.NotificationRead, store.notifications[0].Status)

	require.NoError(t, svc.Delete(context.Background(), 5, "juan"))
	assert.Equal(t, models.NotificationDeleted, store.notifications[0].Status)
}

func TestClassifyBucket(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"Your complaint has been RESOLVED", models.BucketResolved},
		{"Work completed at the Plaza", models.BucketResolved},
		{"Leak fixed by the response team", models.BucketResolved},
		{"Scheduled maintenance on the drainage", models.BucketResolved},
		{"Your complaint has been assigned to the sk team", models.BucketReviewed},
		{"New complaint from Juan", models.BucketReviewed},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyBucket(tc.message), tc.message)
	}
}
