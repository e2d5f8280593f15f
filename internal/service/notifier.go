package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/angelicadichon/eSumbong/internal/models"
	"github.com/angelicadichon/eSumbong/pkg/jobs"
)

const timestampLayout = "Jan 2, 2006 3:04 PM"

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type eventPublisher interface {
	Publish(ctx context.Context, channel string, value interface{}) error
}

type notifierMetrics interface {
	NotificationEmitted()
	NotificationFailed()
	SetNotificationQueueSize(n int)
}

// NotificationEvent is the realtime payload published for connected
// dashboards when a notification lands.
type NotificationEvent struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// NotifierConfig tunes emission behaviour.
type NotifierConfig struct {
	EventsChannel string
	Workers       int
	MaxRetries    int
	RetryDelay    time.Duration
}

// Notifier performs the fan-out side of lifecycle transitions. Emission is
// best-effort: a failed insert never fails the complaint mutation. Failed
// inserts are replayed on an async queue; exhausted jobs end up in the
// queue's dead-letter log.
type Notifier struct {
	repo    notificationWriter
	events  eventPublisher
	metrics notifierMetrics
	logger  *zap.Logger
	cfg     NotifierConfig
	queue   *jobs.Queue
}

// NewNotifier constructs the notifier and its replay queue. Call Start
// before emitting and Stop on shutdown.
func NewNotifier(repo notificationWriter, events eventPublisher, metrics notifierMetrics, logger *zap.Logger, cfg NotifierConfig) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.EventsChannel == "" {
		cfg.EventsChannel = "notifications:events"
	}
	n := &Notifier{
		repo:    repo,
		events:  events,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
	n.queue = jobs.NewQueue("notification-replay", n.replay, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return n
}

// Start launches the replay workers.
func (n *Notifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the replay workers.
func (n *Notifier) Stop() {
	n.queue.Stop()
}

// ComplaintSubmitted emits exactly one admin notification for a new complaint.
func (n *Notifier) ComplaintSubmitted(ctx context.Context, complaint *models.Complaint) {
	message := fmt.Sprintf("New complaint from %s: %s at %s on %s",
		complaint.Name, complaint.Category, complaint.Location, complaint.CreatedAt.Format(timestampLayout))
	n.emit(ctx, models.AdminRecipient, message)
}

// ComplaintAssigned emits the three-way fan-out: assigned team, submitter,
// admin confirmation. Re-assignment re-emits; there is no guard upstream.
func (n *Notifier) ComplaintAssigned(ctx context.Context, complaint *models.Complaint, team models.Team) {
	ts := time.Now().UTC().Format(timestampLayout)
	n.emit(ctx, string(team), fmt.Sprintf("New assignment: %s complaint at %s reported by %s on %s",
		complaint.Category, complaint.Location, complaint.Name, ts))
	n.emit(ctx, complaint.Username, fmt.Sprintf("Your %s complaint has been assigned to the %s team on %s",
		complaint.Category, team, ts))
	n.emit(ctx, models.AdminRecipient, fmt.Sprintf("Complaint #%d (%s) assigned to %s on %s",
		complaint.ID, complaint.Category, team, ts))
}

// ComplaintResolved emits the submitter and admin resolution notices.
func (n *Notifier) ComplaintResolved(ctx context.Context, complaint *models.Complaint) {
	ts := time.Now().UTC().Format(timestampLayout)
	n.emit(ctx, complaint.Username, fmt.Sprintf("Your %s complaint has been RESOLVED on %s",
		complaint.Category, ts))
	n.emit(ctx, models.AdminRecipient, fmt.Sprintf("Complaint #%d (%s) marked RESOLVED on %s",
		complaint.ID, complaint.Category, ts))
}

func (n *Notifier) emit(ctx context.Context, username, message string) {
	notification := &models.Notification{
		Username:  username,
		Message:   message,
		Status:    models.NotificationUnread,
		CreatedAt: time.Now().UTC(),
	}
	if err := n.repo.Create(ctx, notification); err != nil {
		if n.metrics != nil {
			n.metrics.NotificationFailed()
		}
		n.logger.Warn("notification insert failed, scheduling replay",
			zap.String("username", username), zap.Error(err))
		if qErr := n.queue.Enqueue(jobs.Job{
			ID:      fmt.Sprintf("notify-%s-%d", username, notification.CreatedAt.UnixNano()),
			Type:    "notification.emit",
			Payload: notification,
		}); qErr != nil {
			n.logger.Error("notification dead-lettered without replay",
				zap.String("username", username), zap.Error(qErr))
		}
		n.reportQueueDepth()
		return
	}
	if n.metrics != nil {
		n.metrics.NotificationEmitted()
	}
	n.publish(ctx, notification)
}

func (n *Notifier) replay(ctx context.Context, job jobs.Job) error {
	defer n.reportQueueDepth()
	notification, ok := job.Payload.(*models.Notification)
	if !ok {
		return fmt.Errorf("unexpected replay payload %T", job.Payload)
	}
	if err := n.repo.Create(ctx, notification); err != nil {
		return err
	}
	if n.metrics != nil {
		n.metrics.NotificationEmitted()
	}
	n.publish(ctx, notification)
	return nil
}

func (n *Notifier) reportQueueDepth() {
	if n.metrics == nil {
		return
	}
	n.metrics.SetNotificationQueueSize(n.queue.Len())
}

func (n *Notifier) publish(ctx context.Context, notification *models.Notification) {
	if n.events == nil {
		return
	}
	event := NotificationEvent{
		ID:        notification.ID,
		Username:  notification.Username,
		Message:   notification.Message,
		CreatedAt: notification.CreatedAt.Format(time.RFC3339),
	}
	if err := n.events.Publish(ctx, n.cfg.EventsChannel, event); err != nil {
		n.logger.Warn("notification event publish failed", zap.Error(err))
	}
}
