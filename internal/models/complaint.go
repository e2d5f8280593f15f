package models

import "time"

// ComplaintStatus tracks a complaint through its lifecycle. Deleted is a
// soft-delete sentinel, never rendered in dashboards.
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "pending"
	StatusInProgress ComplaintStatus = "in-progress"
	StatusResolved   ComplaintStatus = "resolved"
	StatusDeleted    ComplaintStatus = "deleted"
)

// Team identifies an assignable responder group.
type Team string

const (
	TeamMaintenance Team = "maintenance"
	TeamSK          Team = "sk"
	TeamResponse    Team = "response"
)

// ValidTeam reports whether the identifier names a known team.
func ValidTeam(t Team) bool {
	switch t {
	case TeamMaintenance, TeamSK, TeamResponse:
		return true
	}
	return false
}

// Complaint represents one resident-submitted issue row.
type Complaint struct {
	ID                  int64           `db:"id" json:"id"`
	Username            string          `db:"username" json:"username"`
	Name                string          `db:"name" json:"name"`
	Contact             string          `db:"contact" json:"contact"`
	Category            string          `db:"category" json:"category"`
	Description         string          `db:"description" json:"description"`
	Location            string          `db:"location" json:"location"`
	Status              ComplaintStatus `db:"status" json:"status"`
	AssignedTeam        *string         `db:"assigned_team" json:"assigned_team,omitempty"`
	TeamNotes           *string         `db:"team_notes" json:"team_notes,omitempty"`
	FileURL             *string         `db:"file_url" json:"file,omitempty"`
	AfterPhoto          *string         `db:"after_photo" json:"after_photo,omitempty"`
	Rating              *int            `db:"rating" json:"rating,omitempty"`
	FeedbackMessage     *string         `db:"feedback_message" json:"feedback_message,omitempty"`
	FeedbackSubmittedAt *time.Time      `db:"feedback_submitted_at" json:"feedback_submitted_at,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
	ResolvedAt          *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
}

// ComplaintSort names the supported list orderings.
type ComplaintSort string

const (
	ComplaintSortRecent ComplaintSort = "most-recent"
	ComplaintSortName   ComplaintSort = "name"
)

// ComplaintFilter captures the (role, username, filters) tuple the read
// side translates into a scoped query.
type ComplaintFilter struct {
	Role     UserRole
	Username string
	Team     Team
	Status   ComplaintStatus
	Search   string
	SortBy   ComplaintSort
	Page     int
	PageSize int
}
