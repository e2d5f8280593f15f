package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelicadichon/eSumbong/internal/models"
	appErrors "github.com/angelicadichon/eSumbong/pkg/errors"
)

type complaintStoreStub struct {
	complaints map[int64]*models.Complaint
	nextID     int64
}

func newComplaintStoreStub() *complaintStoreStub {
	return &complaintStoreStub{complaints: make(map[int64]*models.Complaint), nextID: 1}
}

func (s *complaintStoreStub) Create(ctx context.Context, complaint *models.Complaint) error {
	complaint.ID = s.nextID
	s.nextID++
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = time.Now()
	}
	copied := *complaint
	s.complaints[complaint.ID] = &copied
	return nil
}

func (s *complaintStoreStub) GetByID(ctx context.Context, id int64) (*models.Complaint, error) {
	if c, ok := s.complaints[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *complaintStoreStub) AssignTeam(ctx context.Context, id int64, team models.Team) error {
	c, ok := s.complaints[id]
	if !ok {
		return sql.ErrNoRows
	}
	name := string(team)
	c.AssignedTeam = &name
	c.Status = models.StatusInProgress
	return nil
}

func (s *complaintStoreStub) RecordTeamUpdate(ctx context.Context, id int64, notes string, afterPhoto *string) error {
	c, ok := s.complaints[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.TeamNotes = &notes
	if afterPhoto != nil {
		c.AfterPhoto = afterPhoto
	}
	c.Status = models.StatusResolved
	now := time.Now()
	c.ResolvedAt = &now
	return nil
}

func (s *complaintStoreStub) SaveFeedback(ctx context.Context, id int64, rating int, message *string, submittedAt time.Time) error {
	c, ok := s.complaints[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Rating = &rating
	c.FeedbackMessage = message
	c.FeedbackSubmittedAt = &submittedAt
	return nil
}

func (s *complaintStoreStub) SoftDelete(ctx context.Context, id int64) error {
	c, ok := s.complaints[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Status = models.StatusDeleted
	return nil
}

type fileStorageStub struct {
	saved map[string][]byte
	fail  bool
}

func newFileStorageStub() *fileStorageStub {
	return &fileStorageStub{saved: make(map[string][]byte)}
}

func (s *fileStorageStub) SaveStream(filename string, r io.Reader) (string, error) {
	if s.fail {
		return "", fmt.Errorf("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[filename] = data
	return filename, nil
}

type notifierStub struct {
	messages map[string][]string
}

func newNotifierStub() *notifierStub {
	return &notifierStub{messages: make(map[string][]string)}
}

func (n *notifierStub) record(username, message string) {
	n.messages[username] = append(n.messages[username], message)
}

func (n *notifierStub) total() int {
	count := 0
	for _, msgs := range n.messages {
		count += len(msgs)
	}
	return count
}

func (n *notifierStub) ComplaintSubmitted(ctx context.Context, c *models.Complaint) {
	n.record(models.AdminRecipient, fmt.Sprintf("New complaint from %s: %s at %s", c.Name, c.Category, c.Location))
}

func (n *notifierStub) ComplaintAssigned(ctx context.Context, c *models.Complaint, team models.Team) {
	n.record(string(team), fmt.Sprintf("New assignment: %s complaint at %s", c.Category, c.Location))
	n.record(c.Username, fmt.Sprintf("Your %s complaint has been assigned to the %s team", c.Category, team))
	n.record(models.AdminRecipient, fmt.Sprintf("Complaint #%d assigned to %s", c.ID, team))
}

func (n *notifierStub) ComplaintResolved(ctx context.Context, c *models.Complaint) {
	n.record(c.Username, fmt.Sprintf("Your %s complaint has been RESOLVED", c.Category))
	n.record(models.AdminRecipient, fmt.Sprintf("Complaint #%d marked RESOLVED", c.ID))
}

type cacheStub struct {
	deleted []string
}

func (c *cacheStub) Delete(ctx context.Context, key string) error {
	c.deleted = append(c.deleted, key)
	return nil
}

func newTestComplaintService(store *complaintStoreStub, storage *fileStorageStub, notifier *notifierStub) (*ComplaintService, *cacheStub) {
	cache := &cacheStub{}
	svc := NewComplaintService(store, storage, notifier, cache, nil, nil, nil, ComplaintServiceConfig{
		MaxFileSize:    5 * 1024 * 1024,
		PublicBasePath: "/uploads",
	})
	return svc, cache
}

func validSubmitRequest() SubmitComplaintRequest {
	return SubmitComplaintRequest{
		Username:    "juan",
		Name:        "Juan Dela Cruz",
		Contact:     "0917",
		Category:    "Sanitation",
		Description: "Overflowing garbage near the Plaza",
		Location:    "Plaza",
	}
}

func TestSubmitEmitsSingleAdminNotification(t *testing.T) {
	store := newComplaintStoreStub()
	notifier := newNotifierStub()
	svc, cache := newTestComplaintService(store, newFileStorageStub(), notifier)

	complaint, err := svc.Submit(context.Background(), validSubmitRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, complaint.Status)
	assert.Equal(t, 1, notifier.total())
	require.Len(t, notifier.messages[models.AdminRecipient], 1)
	assert.Contains(t, notifier.messages[models.AdminRecipient][0], "Sanitation")
	assert.Contains(t, notifier.messages[models.AdminRecipient][0], "Plaza")
	assert.Contains(t, cache.deleted, analyticsSummaryCacheKey)
}

func TestSubmitMissingFieldsFails(t *testing.T) {
	svc, _ := newTestComplaintService(newComplaintStoreStub(), newFileStorageStub(), newNotifierStub())

	req := validSubmitRequest()
	req.Description = ""
	_, err := svc.Submit(context.Background(), req, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmitStoresAllowedAttachment(t *testing.T) {
	store := newComplaintStoreStub()
	storage := newFileStorageStub()
	svc, _ := newTestComplaintService(store, storage, newNotifierStub())

	upload := &Upload{
		Filename: "photo.png",
		Size:     64,
		MimeType: "image/png",
		Content:  bytes.NewReader(make([]byte, 64)),
	}
	complaint, err := svc.Submit(context.Background(), validSubmitRequest(), upload)
	require.NoError(t, err)
	require.NotNil(t, complaint.FileURL)
	assert.True(t, strings.HasPrefix(*complaint.FileURL, "/uploads/complaint-"))
	assert.Len(t, storage.saved, 1)
}

func TestSubmitRejectsDisallowedAttachment(t *testing.T) {
	svc, _ := newTestComplaintService(newComplaintStoreStub(), newFileStorageStub(), newNotifierStub())

	cases := []struct {
		name   string
		upload Upload
	}{
		{"bad extension", Upload{Filename: "script.exe", Size: 10, MimeType: "application/octet-stream", Content: bytes.NewReader([]byte("x"))}},
		{"mime mismatch", Upload{Filename: "photo.png", Size: 10, MimeType: "application/pdf", Content: bytes.NewReader([]byte("x"))}},
		{"oversize", Upload{Filename: "photo.png", Size: 6 * 1024 * 1024, MimeType: "image/png", Content: bytes.NewReader([]byte("x"))}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			upload := tc.upload
			_, err := svc.Submit(context.Background(), validSubmitRequest(), &upload)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		})
	}
}

func TestSubmitAbortsWhenStorageFails(t *testing.T) {
	store := newComplaintStoreStub()
	storage := newFileStorageStub()
	storage.fail = true
	notifier := newNotifierStub()
	svc, _ := newTestComplaintService(store, storage, notifier)

	upload := &Upload{
		Filename: "photo.jpg",
		Size:     32,
		MimeType: "image/jpeg",
		Content:  bytes.NewReader(make([]byte, 32)),
	}
	_, err := svc.Submit(context.Background(), validSubmitRequest(), upload)
	require.Error(t, err)
	assert.Empty(t, store.complaints)
	assert.Zero(t, notifier.total())
}

func TestAssignTeamFansOutThreeNotifications(t *testing.T) {
	store := newComplaintStoreStub()
	notifier := newNotifierStub()
	svc, _ := newTestComplaintService(store, newFileStorageStub(), notifier)

	complaint, err := svc.Submit(context.Background(), validSubmitRequest(), nil)
	require.NoError(t, err)
	before := notifier.total()

	updated, err := svc.AssignTeam(context.Background(), complaint.ID, models.TeamSK)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	require.NotNil(t, updated.AssignedTeam)
	assert.Equal(t, "sk", *updated.AssignedTeam)

	assert.Equal(t, before+3, notifier.total())
	require.Len(t, notifier.messages["sk"], 1)
	require.Len(t, notifier.messages["juan"], 1)
	assert.Contains(t, notifier.messages["juan"][0], "sk")
}

func TestAssignTeamUnknownTeam(t *testing.T) {
	svc, _ := newTestComplaintService(newComplaintStoreStub(), newFileStorageStub(), newNotifierStub())

	_, err := svc.AssignTeam(context.Background(), 1, models.Team("janitorial"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAssignTeamMissingComplaint(t *testing.T) {
	svc, _ := newTestComplaintService(newComplaintStoreStub(), newFileStorageStub(), newNotifierStub())

	_, err := svc.AssignTeam(context.Background(), 42, models.TeamMaintenance)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRecordTeamUpdateRequiresNotes(t *testing.T) {
	store := newComplaintStoreStub()
	notifier := newNotifierStub()
	svc, _ := newTestComplaintService(store, newFileStorageStub(), notifier)

	complaint, err := svc.Submit(context.Background(), validSubmitRequest(), nil)
	require.NoError(t, err)
	before := notifier.total()

	_, err = svc.RecordTeamUpdate(context.Background(), complaint.ID, models.TeamMaintenance, "   ", nil)
	require.Error(t, err)
	assert.Equal(t, before, notifier.total())
	assert.Equal(t, models.StatusPending, store.complaints[complaint.ID].Status)
}

func TestRecordTeamUpdateResolvesAndNotifies(t *testing.T) {
	store := newComplaintStoreStub()
	notifier := newNotifierStub()
	svc, _ := newTestComplaintService(store, newFileStorageStub(), notifier)

	complaint, err := svc.Submit(context.Background(), validSubmitRequest(), nil)
	require.NoError(t, err)
	_, err = svc.AssignTeam(context.Background(), complaint.ID, models.TeamMaintenance)
	require.NoError(t, err)
	before := notifier.total()

	updated, err := svc.RecordTeamUpdate(context.Background(), complaint.ID, models.TeamMaintenance, "Cleared the garbage pile", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)

	assert.Equal(t, before+2, notifier.total())
	residentMsgs := notifier.messages["juan"]
	require.NotEmpty(t, residentMsgs)
	assert.Contains(t, residentMsgs[len(residentMsgs)-1], "RESOLVED")
}

func TestRecordTeamUpdateRejectsOtherTeam(t *testing.T) {
	store := newComplaintStoreStub()
	notifier := newNotifierStub()
	svc, _ := newTestComplaintService(store, newFileStorageStub(), notifier)

	complaint, err := svc.Submit(context.Background(), validSubmitRequest(), nil)
	require.NoError(t, err)
	_, err = svc.AssignTeam(context.Background(), complaint.ID, models.TeamSK)
	require.NoError(t, err)
	before := notifier.total()

	_, err = svc.RecordTeamUpdate(context.Background(), complaint.ID, models.TeamMaintenance, "Done", nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, before, notifier.total())
	assert.Equal(t, models.StatusInProgress, store.complaints[complaint.ID].Status)
}

func TestRecordTeamUpdateRejectsUnassignedComplaint(t *testing.T) {
	store := newComplaintStoreStub()
	svc, _ := newTestComplaintService(store, newFileStorageStub(), newNotifierStub())

	complaint, err := svc.Submit(context.Background(), validSubmitRequest(), nil)
	require.NoError(t, err)

	_, err = svc.RecordTeamUpdate(context.Background(), complaint.ID, models.TeamMaintenance, "Done", nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestSubmitFeedbackValidatesRating(t *testing.T) {
	store := newComplaintStoreStub()
	svc, _ := newTestComplaintService(store, newFileStorageStub(), newNotifierStub())

	complaint, err := svc.Submit(context.Background(), validSubmitRequest(), nil)
	require.NoError(t, err)
	_, err = svc.AssignTeam(context.Background(), complaint.ID, models.TeamResponse)
	require.NoError(t, err)
	_, err = svc.RecordTeamUpdate(context.Background(), complaint.ID, models.TeamResponse, "Fixed", nil)
	require.NoError(t, err)

	_, err = svc.SubmitFeedback(context.Background(), complaint.ID, "juan", FeedbackRequest{Rating: 6})
	require.Error(t, err)

	updated, err := svc.SubmitFeedback(context.Background(), complaint.ID, "juan", FeedbackRequest{Rating: 5})
	require.NoError(t, err)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 5, *updated.Rating)

	// second submission overwrites the first
	updated, err = svc.SubmitFeedback(context.Background(), complaint.ID, "juan", FeedbackRequest{Rating: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, *updated.Rating)
	assert.Equal(t, 3, *store.complaints[complaint.ID].Rating)
}

func TestSubmitFeedbackRequiresResolvedStatus(t *testing.T) {
	store := newComplaintStoreStub()
	svc, _ := newTestComplaintService(store, newFileStorageStub(), newNotifierStub())

	complaint, err := svc.Submit(context.Background(), validSubmitRequest(), nil)
	require.NoError(t, err)

	_, err = svc.SubmitFeedback(context.Background(), complaint.ID, "juan", FeedbackRequest{Rating: 4})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmitFeedbackRejectsNonSubmitter(t *testing.T) {
	store := newComplaintStoreStub()
	svc, _ := newTestComplaintService(store, newFileStorageStub(), newNotifierStub())

	complaint, err := svc.Submit(context.Background(), validSubmitRequest(), nil)
	require.NoError(t, err)
	_, err = svc.AssignTeam(context.Background(), complaint.ID, models.TeamMaintenance)
	require.NoError(t, err)
	_, err = svc.RecordTeamUpdate(context.Background(), complaint.ID, models.TeamMaintenance, "Patched", nil)
	require.NoError(t, err)

	for _, caller := range []string{"", "maria", "admin"} {
		_, err = svc.SubmitFeedback(context.Background(), complaint.ID, caller, FeedbackRequest{Rating: 1})
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	}
	assert.Nil(t, store.complaints[complaint.ID].Rating)
}

func TestSoftDeleteHidesComplaint(t *testing.T) {
	store := newComplaintStoreStub()
	svc, _ := newTestComplaintService(store, newFileStorageStub(), newNotifierStub())

	complaint, err := svc.Submit(context.Background(), validSubmitRequest(), nil)
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(context.Background(), complaint.ID))
	assert.Equal(t, models.StatusDeleted, store.complaints[complaint.ID].Status)
}
