package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/angelicadichon/eSumbong/internal/models"
	"github.com/angelicadichon/eSumbong/internal/service"
	appErrors "github.com/angelicadichon/eSumbong/pkg/errors"
	"github.com/angelicadichon/eSumbong/pkg/response"
)

type complaintLifecycle interface {
	Submit(ctx context.Context, req service.SubmitComplaintRequest, upload *service.Upload) (*models.Complaint, error)
	AssignTeam(ctx context.Context, id int64, team models.Team) (*models.Complaint, error)
	RecordTeamUpdate(ctx context.Context, id int64, team models.Team, notes string, upload *service.Upload) (*models.Complaint, error)
	SubmitFeedback(ctx context.Context, id int64, username string, req service.FeedbackRequest) (*models.Complaint, error)
	SoftDelete(ctx context.Context, id int64) error
}

type complaintQueries interface {
	ListComplaints(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, models.Pagination, error)
}

// ComplaintHandler manages complaint HTTP endpoints.
type ComplaintHandler struct {
	lifecycle complaintLifecycle
	queries   complaintQueries
}

// NewComplaintHandler constructs the handler.
func NewComplaintHandler(lifecycle complaintLifecycle, queries complaintQueries) *ComplaintHandler {
	return &ComplaintHandler{lifecycle: lifecycle, queries: queries}
}

// Submit godoc
// @Summary Submit a complaint
// @Tags Complaints
// @Accept multipart/form-data
// @Produce json
// @Param category formData string true "Category"
// @Param description formData string true "Description"
// @Param location formData string true "Location"
// @Param file formData file false "Attachment"
// @Success 201 {object} map[string]interface{}
// @Router /complaints [post]
// @Security BearerAuth
func (h *ComplaintHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := service.SubmitComplaintRequest{
		Username:    claims.Username,
		Name:        c.PostForm("name"),
		Contact:     c.PostForm("contact"),
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
		Location:    c.PostForm("location"),
	}
	if req.Name == "" {
		req.Name = claims.Name
	}

	upload, closeUpload, err := formUpload(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	if closeUpload != nil {
		defer closeUpload()
	}

	complaint, err := h.lifecycle.Submit(c.Request.Context(), req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, gin.H{
		"message":   "Complaint submitted",
		"complaint": complaint,
	})
}

// List godoc
// @Summary List complaints visible to the caller
// @Tags Complaints
// @Produce json
// @Param status query string false "Status filter"
// @Param search query string false "Search text"
// @Param sort query string false "Sort order" Enums(most-recent, name)
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /complaints [get]
// @Security BearerAuth
func (h *ComplaintHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.ComplaintFilter{
		Role:     claims.Role,
		Username: claims.Username,
		Status:   models.ComplaintStatus(c.Query("status")),
		Search:   c.Query("search"),
		SortBy:   models.ComplaintSort(c.DefaultQuery("sort", string(models.ComplaintSortRecent))),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))

	complaints, pagination, err := h.queries.ListComplaints(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"complaints": complaints,
		"pagination": pagination,
	})
}

// Assign godoc
// @Summary Assign a complaint to a team
// @Tags Complaints
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param payload body object true "Assignment payload {assigned_team}"
// @Success 200 {object} map[string]interface{}
// @Router /complaints/{id}/assign [put]
// @Security BearerAuth
func (h *ComplaintHandler) Assign(c *gin.Context) {
	id, err := complaintID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var payload struct {
		AssignedTeam string `json:"assigned_team" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "assigned_team is required"))
		return
	}

	complaint, err := h.lifecycle.AssignTeam(c.Request.Context(), id, models.Team(payload.AssignedTeam))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"message":   "Complaint assigned",
		"complaint": complaint,
	})
}

// TeamUpdate godoc
// @Summary Record a team resolution update
// @Tags Complaints
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Complaint ID"
// @Param team_notes formData string true "Resolution notes"
// @Param after_photo formData file false "After photo"
// @Success 200 {object} map[string]interface{}
// @Router /complaints/{id}/team-update [put]
// @Security BearerAuth
func (h *ComplaintHandler) TeamUpdate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := complaintID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	notes := c.PostForm("team_notes")
	upload, closeUpload, err := formUpload(c, "after_photo")
	if err != nil {
		response.Error(c, err)
		return
	}
	if closeUpload != nil {
		defer closeUpload()
	}

	complaint, err := h.lifecycle.RecordTeamUpdate(c.Request.Context(), id, models.Team(claims.Role), notes, upload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"message":   "Complaint resolved",
		"complaint": complaint,
	})
}

// Feedback godoc
// @Summary Rate a resolved complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param payload body service.FeedbackRequest true "Feedback payload"
// @Success 200 {object} map[string]interface{}
// @Router /complaints/{id}/feedback [put]
// @Security BearerAuth
func (h *ComplaintHandler) Feedback(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := complaintID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid feedback payload"))
		return
	}

	complaint, err := h.lifecycle.SubmitFeedback(c.Request.Context(), id, claims.Username, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"message":   "Feedback recorded",
		"complaint": complaint,
	})
}

// Delete godoc
// @Summary Soft delete a complaint
// @Tags Complaints
// @Produce json
// @Param id path int true "Complaint ID"
// @Success 200 {object} map[string]interface{}
// @Router /complaints/{id} [delete]
// @Security BearerAuth
func (h *ComplaintHandler) Delete(c *gin.Context) {
	id, err := complaintID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.lifecycle.SoftDelete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Complaint deleted")
}

func complaintID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid complaint id")
	}
	return id, nil
}

func formUpload(c *gin.Context, field string) (*service.Upload, func(), error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		// absent file field is fine, every attachment is optional
		return nil, nil, nil
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open uploaded file")
	}
	upload := &service.Upload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  src,
	}
	return upload, func() { _ = src.Close() }, nil
}
