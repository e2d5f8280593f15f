package models

import "time"

// UserRole represents the portal roles. Residents submit complaints;
// maintenance, sk and response are the assignable team roles.
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleResident    UserRole = "resident"
	RoleMaintenance UserRole = "maintenance"
	RoleSK          UserRole = "sk"
	RoleResponse    UserRole = "response"
)

// IsTeam reports whether the role belongs to a response team.
func (r UserRole) IsTeam() bool {
	return r == RoleMaintenance || r == RoleSK || r == RoleResponse
}

// User represents an application user stored in the users table.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Contact      string    `db:"contact" json:"contact"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ResidentSummary is a roster row: a resident with aggregated report counts.
type ResidentSummary struct {
	Username    string     `db:"username" json:"username"`
	Name        string     `db:"name" json:"name"`
	Contact     string     `db:"contact" json:"contact"`
	ReportCount int        `db:"report_count" json:"report_count"`
	LastReport  *time.Time `db:"last_report" json:"last_report,omitempty"`
}

// ResidentSort names the supported roster orderings.
type ResidentSort string

const (
	ResidentSortName        ResidentSort = "name"
	ResidentSortMostRecent  ResidentSort = "most-recent"
	ResidentSortMostReports ResidentSort = "most-reports"
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
