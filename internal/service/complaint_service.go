package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angelicadichon/eSumbong/internal/models"
	"github.com/angelicadichon/eSumbong/internal/repository"
	appErrors "github.com/angelicadichon/eSumbong/pkg/errors"
)

type complaintStore interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	GetByID(ctx context.Context, id int64) (*models.Complaint, error)
	AssignTeam(ctx context.Context, id int64, team models.Team) error
	RecordTeamUpdate(ctx context.Context, id int64, notes string, afterPhoto *string) error
	SaveFeedback(ctx context.Context, id int64, rating int, message *string, submittedAt time.Time) error
	SoftDelete(ctx context.Context, id int64) error
}

type complaintFileStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

type complaintNotifier interface {
	ComplaintSubmitted(ctx context.Context, complaint *models.Complaint)
	ComplaintAssigned(ctx context.Context, complaint *models.Complaint, team models.Team)
	ComplaintResolved(ctx context.Context, complaint *models.Complaint)
}

type summaryInvalidator interface {
	Delete(ctx context.Context, key string) error
}

type complaintMetrics interface {
	ComplaintSubmitted()
}

// Upload carries attachment metadata and its stream.
type Upload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.Reader
}

// SubmitComplaintRequest is the validated submit payload.
type SubmitComplaintRequest struct {
	Username    string `json:"username" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Contact     string `json:"contact" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"required"`
	Location    string `json:"location" validate:"required"`
}

// FeedbackRequest is the post-resolution rating payload.
type FeedbackRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Message *string `json:"feedback_message"`
}

// ComplaintServiceConfig holds upload validation parameters.
type ComplaintServiceConfig struct {
	MaxFileSize    int64
	PublicBasePath string
}

// Allowed attachment types. Both the file extension and the declared MIME
// type must be on the list, and they must agree on the same type.
var allowedAttachmentTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ComplaintService is the lifecycle service: it applies one complaint
// mutation per call and hands the notification fan-out to the notifier.
type ComplaintService struct {
	repo      complaintStore
	storage   complaintFileStorage
	notifier  complaintNotifier
	cache     summaryInvalidator
	metrics   complaintMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ComplaintServiceConfig
}

// NewComplaintService constructs the service with defaults.
func NewComplaintService(repo complaintStore, storage complaintFileStorage, notifier complaintNotifier, cache summaryInvalidator, metrics complaintMetrics, validate *validator.Validate, logger *zap.Logger, cfg ComplaintServiceConfig) *ComplaintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if cfg.PublicBasePath == "" {
		cfg.PublicBasePath = "/uploads"
	}
	return &ComplaintService{
		repo:      repo,
		storage:   storage,
		notifier:  notifier,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Submit creates a pending complaint. The attachment, when present, is
// persisted first: a storage failure aborts the submission entirely.
func (s *ComplaintService) Submit(ctx context.Context, req SubmitComplaintRequest, upload *Upload) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required complaint fields")
	}

	var fileURL *string
	if upload != nil {
		url, err := s.storeUpload(upload)
		if err != nil {
			return nil, err
		}
		fileURL = &url
	}

	complaint := &models.Complaint{
		Username:    req.Username,
		Name:        req.Name,
		Contact:     req.Contact,
		Category:    req.Category,
		Description: req.Description,
		Location:    req.Location,
		Status:      models.StatusPending,
		FileURL:     fileURL,
	}
	if err := s.repo.Create(ctx, complaint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create complaint")
	}

	if s.metrics != nil {
		s.metrics.ComplaintSubmitted()
	}
	s.notifier.ComplaintSubmitted(ctx, complaint)
	s.invalidateSummary(ctx)
	return complaint, nil
}

// AssignTeam records the assignment and triggers the three-way fan-out.
// Calling again with a different team overwrites and re-emits.
func (s *ComplaintService) AssignTeam(ctx context.Context, id int64, team models.Team) (*models.Complaint, error) {
	if !models.ValidTeam(team) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown team %q", team))
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AssignTeam(ctx, id, team); err != nil {
		return nil, s.mutationError(err, "failed to assign team")
	}
	teamName := string(team)
	complaint.AssignedTeam = &teamName
	complaint.Status = models.StatusInProgress

	s.notifier.ComplaintAssigned(ctx, complaint, team)
	s.invalidateSummary(ctx)
	return complaint, nil
}

// RecordTeamUpdate stores the resolution outcome and emits the submitter
// and admin notices. Only the team the complaint is assigned to may record it.
func (s *ComplaintService) RecordTeamUpdate(ctx context.Context, id int64, team models.Team, notes string, upload *Upload) (*models.Complaint, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "team notes are required")
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if complaint.AssignedTeam == nil || *complaint.AssignedTeam != string(team) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "complaint is not assigned to your team")
	}

	var afterPhoto *string
	if upload != nil {
		url, err := s.storeUpload(upload)
		if err != nil {
			return nil, err
		}
		afterPhoto = &url
	}

	if err := s.repo.RecordTeamUpdate(ctx, id, notes, afterPhoto); err != nil {
		return nil, s.mutationError(err, "failed to record team update")
	}
	complaint.TeamNotes = &notes
	if afterPhoto != nil {
		complaint.AfterPhoto = afterPhoto
	}
	complaint.Status = models.StatusResolved
	now := time.Now().UTC()
	complaint.ResolvedAt = &now

	s.notifier.ComplaintResolved(ctx, complaint)
	s.invalidateSummary(ctx)
	return complaint, nil
}

// SubmitFeedback attaches a 1-5 star rating to a resolved complaint on
// behalf of its submitter. Re-submission overwrites; no notification is
// emitted on this path.
func (s *ComplaintService) SubmitFeedback(ctx context.Context, id int64, username string, req FeedbackRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rating must be between 1 and 5")
	}
	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if complaint.Username != username {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "feedback is limited to the complaint submitter")
	}
	if complaint.Status != models.StatusResolved {
		return nil, appErrors.Clone(appErrors.ErrValidation, "feedback is only accepted for resolved complaints")
	}

	submittedAt := time.Now().UTC()
	if err := s.repo.SaveFeedback(ctx, id, req.Rating, req.Message, submittedAt); err != nil {
		return nil, s.mutationError(err, "failed to save feedback")
	}
	complaint.Rating = &req.Rating
	complaint.FeedbackMessage = req.Message
	complaint.FeedbackSubmittedAt = &submittedAt
	return complaint, nil
}

// SoftDelete marks the complaint deleted; every default list excludes it.
func (s *ComplaintService) SoftDelete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return s.mutationError(err, "failed to delete complaint")
	}
	s.invalidateSummary(ctx)
	return nil
}

func (s *ComplaintService) load(ctx context.Context, id int64) (*models.Complaint, error) {
	complaint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}
	return complaint, nil
}

func (s *ComplaintService) mutationError(err error, message string) error {
	if errors.Is(err, repository.ErrNoRowsAffected) || errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *ComplaintService) storeUpload(upload *Upload) (string, error) {
	if upload.Content == nil || upload.Size <= 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	expectedMime, ok := allowedAttachmentTypes[ext]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, "file type not allowed")
	}
	declared := upload.MimeType
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mediaType
	}
	if !strings.EqualFold(declared, expectedMime) {
		return "", appErrors.Clone(appErrors.ErrValidation, "file type does not match its extension")
	}

	filename := fmt.Sprintf("complaint-%s%s", uuid.NewString(), ext)
	if _, err := s.storage.SaveStream(filename, upload.Content); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store attachment")
	}
	return s.cfg.PublicBasePath + "/" + filename, nil
}

func (s *ComplaintService) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, analyticsSummaryCacheKey); err != nil {
		s.logger.Warn("analytics cache invalidation failed", zap.Error(err))
	}
}
