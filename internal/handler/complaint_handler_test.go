package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelicadichon/eSumbong/internal/middleware"
	"github.com/angelicadichon/eSumbong/internal/models"
	"github.com/angelicadichon/eSumbong/internal/service"
	appErrors "github.com/angelicadichon/eSumbong/pkg/errors"
)

type fakeLifecycle struct {
	submitted    *service.SubmitComplaintRequest
	assigned     models.Team
	assignedID   int64
	updateTeam   models.Team
	feedback     *service.FeedbackRequest
	feedbackUser string
	err          error
}

func (f *fakeLifecycle) Submit(_ context.Context, req service.SubmitComplaintRequest, _ *service.Upload) (*models.Complaint, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.submitted = &req
	return &models.Complaint{ID: 1, Username: req.Username, Category: req.Category, Status: models.StatusPending}, nil
}

func (f *fakeLifecycle) AssignTeam(_ context.Context, id int64, team models.Team) (*models.Complaint, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.assignedID = id
	f.assigned = team
	name := string(team)
	return &models.Complaint{ID: id, Status: models.StatusInProgress, AssignedTeam: &name}, nil
}

func (f *fakeLifecycle) RecordTeamUpdate(_ context.Context, id int64, team models.Team, notes string, _ *service.Upload) (*models.Complaint, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updateTeam = team
	return &models.Complaint{ID: id, Status: models.StatusResolved, TeamNotes: &notes}, nil
}

func (f *fakeLifecycle) SubmitFeedback(_ context.Context, id int64, username string, req service.FeedbackRequest) (*models.Complaint, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.feedback = &req
	f.feedbackUser = username
	return &models.Complaint{ID: id, Status: models.StatusResolved, Rating: &req.Rating}, nil
}

func (f *fakeLifecycle) SoftDelete(context.Context, int64) error {
	return f.err
}

type fakeQueries struct {
	lastFilter models.ComplaintFilter
}

func (f *fakeQueries) ListComplaints(_ context.Context, filter models.ComplaintFilter) ([]models.Complaint, models.Pagination, error) {
	f.lastFilter = filter
	return []models.Complaint{{ID: 1}}, models.Pagination{Page: 1, PageSize: 10, TotalCount: 1}, nil
}

func testContext(t *testing.T, claims *models.JWTClaims, req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func residentClaims() *models.JWTClaims {
	return &models.JWTClaims{Username: "juan", Name: "Juan Dela Cruz", Role: models.RoleResident}
}

func TestComplaintHandlerSubmit(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	h := NewComplaintHandler(lifecycle, &fakeQueries{})

	form := "category=Road&description=Pothole&location=Purok+2&contact=0917"
	req := httptest.NewRequest(http.MethodPost, "/api/complaints", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c, rec := testContext(t, residentClaims(), req)

	h.Submit(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, lifecycle.submitted)
	assert.Equal(t, "juan", lifecycle.submitted.Username)
	assert.Equal(t, "Juan Dela Cruz", lifecycle.submitted.Name)
	assert.Equal(t, "Road", lifecycle.submitted.Category)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
}

func TestComplaintHandlerSubmitUnauthenticated(t *testing.T) {
	h := NewComplaintHandler(&fakeLifecycle{}, &fakeQueries{})

	req := httptest.NewRequest(http.MethodPost, "/api/complaints", nil)
	c, rec := testContext(t, nil, req)

	h.Submit(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestComplaintHandlerListUsesCallerIdentity(t *testing.T) {
	queries := &fakeQueries{}
	h := NewComplaintHandler(&fakeLifecycle{}, queries)

	req := httptest.NewRequest(http.MethodGet, "/api/complaints?status=pending&search=Plaza&page=2", nil)
	c, rec := testContext(t, residentClaims(), req)

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleResident, queries.lastFilter.Role)
	assert.Equal(t, "juan", queries.lastFilter.Username)
	assert.Equal(t, models.StatusPending, queries.lastFilter.Status)
	assert.Equal(t, "Plaza", queries.lastFilter.Search)
	assert.Equal(t, 2, queries.lastFilter.Page)
}

func TestComplaintHandlerAssign(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	h := NewComplaintHandler(lifecycle, &fakeQueries{})

	payload := bytes.NewBufferString(`{"assigned_team":"sk"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/complaints/7/assign", payload)
	req.Header.Set("Content-Type", "application/json")
	c, rec := testContext(t, &models.JWTClaims{Username: "admin", Role: models.RoleAdmin}, req)
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	h.Assign(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7, lifecycle.assignedID)
	assert.Equal(t, models.TeamSK, lifecycle.assigned)
}

func TestComplaintHandlerAssignInvalidID(t *testing.T) {
	h := NewComplaintHandler(&fakeLifecycle{}, &fakeQueries{})

	req := httptest.NewRequest(http.MethodPut, "/api/complaints/abc/assign", bytes.NewBufferString(`{"assigned_team":"sk"}`))
	req.Header.Set("Content-Type", "application/json")
	c, rec := testContext(t, &models.JWTClaims{Username: "admin", Role: models.RoleAdmin}, req)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.Assign(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComplaintHandlerTeamUpdatePassesCallerTeam(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	h := NewComplaintHandler(lifecycle, &fakeQueries{})

	form := "team_notes=Cleared"
	req := httptest.NewRequest(http.MethodPut, "/api/complaints/9/team-update", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c, rec := testContext(t, &models.JWTClaims{Username: "crew1", Role: models.RoleMaintenance}, req)
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	h.TeamUpdate(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TeamMaintenance, lifecycle.updateTeam)
}

func TestComplaintHandlerFeedbackPassesCallerUsername(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	h := NewComplaintHandler(lifecycle, &fakeQueries{})

	req := httptest.NewRequest(http.MethodPut, "/api/complaints/3/feedback", bytes.NewBufferString(`{"rating":4}`))
	req.Header.Set("Content-Type", "application/json")
	c, rec := testContext(t, residentClaims(), req)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	h.Feedback(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "juan", lifecycle.feedbackUser)
	require.NotNil(t, lifecycle.feedback)
	assert.Equal(t, 4, lifecycle.feedback.Rating)
}

func TestComplaintHandlerFeedbackErrorPassthrough(t *testing.T) {
	lifecycle := &fakeLifecycle{err: appErrors.Clone(appErrors.ErrValidation, "feedback is only accepted for resolved complaints")}
	h := NewComplaintHandler(lifecycle, &fakeQueries{})

	req := httptest.NewRequest(http.MethodPut, "/api/complaints/3/feedback", bytes.NewBufferString(`{"rating":4}`))
	req.Header.Set("Content-Type", "application/json")
	c, rec := testContext(t, residentClaims(), req)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	h.Feedback(c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "resolved")
}
