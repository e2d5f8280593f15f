package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/angelicadichon/eSumbong/internal/models"
	appErrors "github.com/angelicadichon/eSumbong/pkg/errors"
)

type notificationStore interface {
	ListByUsername(ctx context.Context, username string) ([]models.Notification, error)
	CountUnread(ctx context.Context, username string) (int, error)
	MarkAllRead(ctx context.Context, username string) error
	SoftDelete(ctx context.Context, id int64, username string) error
}

// Phrases that classify a notification into the resolved bucket. Matching
// is case-insensitive substring search over the message body.
var resolvedBucketPhrases = []string{
	"resolved",
	"completed",
	"fixed",
	"done",
	"finished",
	"maintenance on",
}

// NotificationService serves per-recipient notification feeds. The display
// bucket is derived from the message text at read time, never stored.
type NotificationService struct {
	repo   notificationStore
	logger *zap.Logger
}

func NewNotificationService(repo notificationStore, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// List returns the recipient's visible notifications, newest first, each
// annotated with its derived bucket, plus the unread count.
func (s *NotificationService) List(ctx context.Context, username string) ([]models.NotificationView, int, error) {
	if username == "" {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "username is required")
	}
	notifications, err := s.repo.ListByUsername(ctx, username)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, username)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}

	views := make([]models.NotificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, models.NotificationView{
			Notification: n,
			Bucket:       classifyBucket(n.Message),
		})
	}
	return views, unread, nil
}

// MarkAllRead flips every unread notification for the recipient. Calling
// it with nothing unread is a no-op, not an error.
func (s *NotificationService) MarkAllRead(ctx context.Context, username string) error {
	if username == "" {
		return appErrors.Clone(appErrors.ErrValidation, "username is required")
	}
	if err := s.repo.MarkAllRead(ctx, username); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// Delete tombstones one notification. The recipient check happens in the
// repository: a mismatched owner leaves the row untouched.
func (s *NotificationService) Delete(ctx context.Context, id int64, username string) error {
	if username == "" {
		return appErrors.Clone(appErrors.ErrValidation, "username is required")
	}
	if err := s.repo.SoftDelete(ctx, id, username); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	return nil
}

func classifyBucket(message string) string {
	lower := strings.ToLower(message)
	for _, phrase := range resolvedBucketPhrases {
		if strings.Contains(lower, phrase) {
			return models.BucketResolved
		}
	}
	return models.BucketReviewed
}
