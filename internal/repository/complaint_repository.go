package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/angelicadichon/eSumbong/internal/models"
)

const complaintColumns = `id, username, name, contact, category, description, location, status, assigned_team, team_notes, file_url, after_photo, rating, feedback_message, feedback_submitted_at, created_at, updated_at, resolved_at`

// ComplaintRepository provides persistence for complaints.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository creates the repository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// Create inserts a new complaint and fills in its assigned identity.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	now := time.Now().UTC()
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = now
	}
	complaint.UpdatedAt = now
	if complaint.Status == "" {
		complaint.Status = models.StatusPending
	}
	const query = `INSERT INTO complaints (username, name, contact, category, description, location, status, file_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		complaint.Username,
		complaint.Name,
		complaint.Contact,
		complaint.Category,
		complaint.Description,
		complaint.Location,
		complaint.Status,
		complaint.FileURL,
		complaint.CreatedAt,
		complaint.UpdatedAt,
	).Scan(&complaint.ID); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// GetByID returns a complaint by identifier.
func (r *ComplaintRepository) GetByID(ctx context.Context, id int64) (*models.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id = $1`, complaintColumns)
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		return nil, err
	}
	return &complaint, nil
}

// List returns complaints scoped to the filter's role plus a total count.
// Soft-deleted rows are always excluded.
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int, error) {
	where := []string{"status <> 'deleted'"}
	args := []interface{}{}

	switch {
	case filter.Role == models.RoleResident:
		args = append(args, filter.Username)
		where = append(where, fmt.Sprintf("username = $%d", len(args)))
	case filter.Role.IsTeam():
		args = append(args, string(filter.Team))
		where = append(where, fmt.Sprintf("assigned_team = $%d", len(args)))
	}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(description ILIKE $%d OR category ILIKE $%d OR location ILIKE $%d OR name ILIKE $%d)", n, n, n, n))
	}

	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 10
	} else if size > 100 {
		size = 100
	}
	offset := (page - 1) * size

	orderBy := "created_at DESC, id DESC"
	if filter.SortBy == models.ComplaintSortName {
		orderBy = "name ASC, created_at DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		complaintColumns, whereClause, orderBy, size, offset)
	var complaints []models.Complaint
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM complaints WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}
	return complaints, total, nil
}

// ListAll returns every non-deleted complaint, newest first. The analytics
// reduction and the export both work over this full fetch.
func (r *ComplaintRepository) ListAll(ctx context.Context) ([]models.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE status <> 'deleted' ORDER BY created_at DESC, id DESC`, complaintColumns)
	var complaints []models.Complaint
	if err := r.db.SelectContext(ctx, &complaints, query); err != nil {
		return nil, fmt.Errorf("list all complaints: %w", err)
	}
	return complaints, nil
}

// AssignTeam records the team assignment and moves the complaint to
// in-progress. Re-assignment overwrites the previous team.
func (r *ComplaintRepository) AssignTeam(ctx context.Context, id int64, team models.Team) error {
	const query = `UPDATE complaints SET assigned_team = $1, status = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, string(team), models.StatusInProgress, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("assign team: %w", err)
	}
	return requireRow(result)
}

// RecordTeamUpdate stores the resolution notes and optional after-photo and
// marks the complaint resolved.
func (r *ComplaintRepository) RecordTeamUpdate(ctx context.Context, id int64, notes string, afterPhoto *string) error {
	now := time.Now().UTC()
	const query = `UPDATE complaints SET team_notes = $1, after_photo = COALESCE($2, after_photo), status = $3, resolved_at = $4, updated_at = $5 WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query, notes, afterPhoto, models.StatusResolved, now, now, id)
	if err != nil {
		return fmt.Errorf("record team update: %w", err)
	}
	return requireRow(result)
}

// SaveFeedback overwrites the rating fields. Re-submission replaces the
// previous feedback rather than duplicating the row.
func (r *ComplaintRepository) SaveFeedback(ctx context.Context, id int64, rating int, message *string, submittedAt time.Time) error {
	const query = `UPDATE complaints SET rating = $1, feedback_message = $2, feedback_submitted_at = $3, updated_at = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, rating, message, submittedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return requireRow(result)
}

// SoftDelete marks the complaint deleted without removing the row.
func (r *ComplaintRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE complaints SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, models.StatusDeleted, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete complaint: %w", err)
	}
	return requireRow(result)
}

// ListResidents aggregates the roster view: one row per submitting resident
// with report counts, ordered by the requested sort.
func (r *ComplaintRepository) ListResidents(ctx context.Context, sort models.ResidentSort) ([]models.ResidentSummary, error) {
	orderBy := "name ASC"
	switch sort {
	case models.ResidentSortMostRecent:
		orderBy = "last_report DESC NULLS LAST"
	case models.ResidentSortMostReports:
		orderBy = "report_count DESC, name ASC"
	}
	query := fmt.Sprintf(`SELECT username, MAX(name) AS name, MAX(contact) AS contact, COUNT(*) AS report_count, MAX(created_at) AS last_report
FROM complaints
WHERE status <> 'deleted'
GROUP BY username
ORDER BY %s`, orderBy)
	var residents []models.ResidentSummary
	if err := r.db.SelectContext(ctx, &residents, query); err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	return residents, nil
}

func requireRow(result interface{ RowsAffected() (int64, error) }) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
