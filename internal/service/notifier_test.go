package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelicadichon/eSumbong/internal/models"
)

type writerStub struct {
	mu            sync.Mutex
	notifications []models.Notification
	failures      int
	nextID        int64
}

func (w *writerStub) Create(ctx context.Context, n *models.Notification) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failures > 0 {
		w.failures--
		return fmt.Errorf("insert failed")
	}
	w.nextID++
	n.ID = w.nextID
	w.notifications = append(w.notifications, *n)
	return nil
}

func (w *writerStub) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.notifications)
}

func (w *writerStub) forUser(username string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, n := range w.notifications {
		if n.Username == username {
			out = append(out, n.Message)
		}
	}
	return out
}

type eventsStub struct {
	mu       sync.Mutex
	channels []string
	events   []interface{}
}

func (e *eventsStub) Publish(ctx context.Context, channel string, value interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.channels = append(e.channels, channel)
	e.events = append(e.events, value)
	return nil
}

type metricsStub struct {
	mu        sync.Mutex
	emitted   int
	failed    int
	depths    []int
	depthSets int
}

func (m *metricsStub) NotificationEmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitted++
}

func (m *metricsStub) NotificationFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}

func (m *metricsStub) SetNotificationQueueSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depths = append(m.depths, n)
	m.depthSets++
}

func (m *metricsStub) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emitted, m.failed
}

func (m *metricsStub) lastDepth() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.depthSets == 0 {
		return 0, false
	}
	return m.depths[len(m.depths)-1], true
}

func testComplaint() *models.Complaint {
	return &models.Complaint{
		ID:        12,
		Username:  "juan",
		Name:      "Juan Dela Cruz",
		Category:  "Sanitation",
		Location:  "Plaza",
		CreatedAt: time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestNotifierComplaintSubmitted(t *testing.T) {
	writer := &writerStub{}
	events := &eventsStub{}
	n := NewNotifier(writer, events, nil, nil, NotifierConfig{})

	n.ComplaintSubmitted(context.Background(), testComplaint())

	require.Equal(t, 1, writer.count())
	adminMsgs := writer.forUser(models.AdminRecipient)
	require.Len(t, adminMsgs, 1)
	assert.Equal(t, "New complaint from Juan Dela Cruz: Sanitation at Plaza on Aug 1, 2026 9:00 AM", adminMsgs[0])

	require.Len(t, events.channels, 1)
	assert.Equal(t, "notifications:events", events.channels[0])
}

func TestNotifierComplaintAssignedFanOut(t *testing.T) {
	writer := &writerStub{}
	metrics := &metricsStub{}
	n := NewNotifier(writer, nil, metrics, nil, NotifierConfig{})

	n.ComplaintAssigned(context.Background(), testComplaint(), models.TeamSK)

	require.Equal(t, 3, writer.count())
	require.Len(t, writer.forUser("sk"), 1)
	require.Len(t, writer.forUser(models.AdminRecipient), 1)

	residentMsgs := writer.forUser("juan")
	require.Len(t, residentMsgs, 1)
	assert.Contains(t, residentMsgs[0], "sk")
	assert.Contains(t, residentMsgs[0], "Sanitation")

	emitted, failed := metrics.counts()
	assert.Equal(t, 3, emitted)
	assert.Zero(t, failed)
}

func TestNotifierComplaintResolvedMessages(t *testing.T) {
	writer := &writerStub{}
	n := NewNotifier(writer, nil, nil, nil, NotifierConfig{})

	n.ComplaintResolved(context.Background(), testComplaint())

	require.Equal(t, 2, writer.count())
	residentMsgs := writer.forUser("juan")
	require.Len(t, residentMsgs, 1)
	assert.Contains(t, residentMsgs[0], "RESOLVED")

	adminMsgs := writer.forUser(models.AdminRecipient)
	require.Len(t, adminMsgs, 1)
	assert.Contains(t, adminMsgs[0], "#12")
}

func TestNotifierEmitFailureReplays(t *testing.T) {
	writer := &writerStub{failures: 1}
	metrics := &metricsStub{}
	n := NewNotifier(writer, nil, metrics, nil, NotifierConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n.Start(ctx)
	defer n.Stop()

	// the first insert fails, the replay queue retries it
	n.ComplaintSubmitted(ctx, testComplaint())

	require.Eventually(t, func() bool {
		return writer.count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	emitted, failed := metrics.counts()
	assert.Equal(t, 1, emitted)
	assert.Equal(t, 1, failed)

	// the replay worker reports the drained queue depth
	require.Eventually(t, func() bool {
		depth, ok := metrics.lastDepth()
		return ok && depth == 0
	}, 2*time.Second, 10*time.Millisecond)
}
