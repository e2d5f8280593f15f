package models

// MonthlyCount is one month's complaint volume, keyed by "2006-01".
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// AnalyticsSummary aggregates the complaint list for the dashboards.
type AnalyticsSummary struct {
	Total         int            `json:"total"`
	Pending       int            `json:"pending"`
	InProgress    int            `json:"in_progress"`
	Resolved      int            `json:"resolved"`
	ByCategory    map[string]int `json:"by_category"`
	ByTeam        map[string]int `json:"by_team"`
	Monthly       []MonthlyCount `json:"monthly"`
	AverageRating float64        `json:"average_rating"`
	RatedCount    int            `json:"rated_count"`
}
