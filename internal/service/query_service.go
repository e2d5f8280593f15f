package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/angelicadichon/eSumbong/internal/models"
	appErrors "github.com/angelicadichon/eSumbong/pkg/errors"
)

const analyticsSummaryCacheKey = "analytics:summary"

type complaintReader interface {
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int, error)
	ListAll(ctx context.Context) ([]models.Complaint, error)
	ListResidents(ctx context.Context, sort models.ResidentSort) ([]models.ResidentSummary, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// QueryService is the read side: scoped complaint lists, the resident
// roster and the analytics summary. Scoping is applied server-side from
// the caller's identity, never from client-supplied filters.
type QueryService struct {
	repo     complaintReader
	cache    summaryCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewQueryService(repo complaintReader, cache summaryCache, cacheTTL time.Duration, logger *zap.Logger) *QueryService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// ListComplaints returns the page of complaints visible to the caller.
// Residents see only their own submissions and team accounts only their
// team's assignments, regardless of what the filter asks for.
func (s *QueryService) ListComplaints(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, models.Pagination, error) {
	switch {
	case filter.Role == models.RoleResident:
		if filter.Username == "" {
			return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrForbidden, "resident scope requires a username")
		}
	case filter.Role.IsTeam():
		filter.Team = models.Team(filter.Role)
	case filter.Role == models.RoleAdmin:
		// unrestricted
	default:
		return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}

	complaints, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}
	return complaints, models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ListResidents returns the aggregated roster, admin dashboards only.
func (s *QueryService) ListResidents(ctx context.Context, sortBy models.ResidentSort) ([]models.ResidentSummary, error) {
	switch sortBy {
	case models.ResidentSortName, models.ResidentSortMostRecent, models.ResidentSortMostReports:
	case "":
		sortBy = models.ResidentSortName
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown sort order")
	}
	residents, err := s.repo.ListResidents(ctx, sortBy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list residents")
	}
	return residents, nil
}

// Summary computes the dashboard aggregates over all live complaints.
// The result is cached; lifecycle mutations invalidate the key.
func (s *QueryService) Summary(ctx context.Context) (*models.AnalyticsSummary, error) {
	if s.cache != nil {
		var cached models.AnalyticsSummary
		err := s.cache.Get(ctx, analyticsSummaryCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("analytics cache read failed", zap.Error(err))
		}
	}

	complaints, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaints for summary")
	}
	summary := reduceSummary(complaints)

	if s.cache != nil {
		if err := s.cache.Set(ctx, analyticsSummaryCacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("analytics cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

func reduceSummary(complaints []models.Complaint) *models.AnalyticsSummary {
	summary := &models.AnalyticsSummary{
		ByCategory: make(map[string]int),
		ByTeam:     make(map[string]int),
	}
	monthly := make(map[string]int)
	ratingSum := 0

	for _, c := range complaints {
		summary.Total++
		switch c.Status {
		case models.StatusPending:
			summary.Pending++
		case models.StatusInProgress:
			summary.InProgress++
		case models.StatusResolved:
			summary.Resolved++
		}
		if c.Category != "" {
			summary.ByCategory[c.Category]++
		}
		if c.AssignedTeam != nil && *c.AssignedTeam != "" {
			summary.ByTeam[*c.AssignedTeam]++
		}
		monthly[c.CreatedAt.Format("2006-01")]++
		if c.Rating != nil {
			summary.RatedCount++
			ratingSum += *c.Rating
		}
	}

	months := make([]string, 0, len(monthly))
	for month := range monthly {
		months = append(months, month)
	}
	sort.Strings(months)
	for _, month := range months {
		summary.Monthly = append(summary.Monthly, models.MonthlyCount{Month: month, Count: monthly[month]})
	}

	if summary.RatedCount > 0 {
		summary.AverageRating = float64(ratingSum) / float64(summary.RatedCount)
	}
	return summary
}
