package reporting

import "complaint-hotline/internal/calls"

// DashboardStats is everything the dashboard landing page renders in one
// response.
type DashboardStats struct {
	Overview    Overview     `json:"overview"`
	RecentCalls []calls.Call `json:"recent_calls"`
	Categories  []NamedCount `json:"categories_stats"`
	Priorities  []NamedCount `json:"priorities_stats"`
	Monthly     []MonthlyRow `json:"monthly_complaints"`
}

type Overview struct {
	TotalCalls     int `json:"total_calls"`
	ProcessedCalls int `json:"processed_calls"`
	FilteredCalls  int `json:"filtered_calls"`

	TotalComplaints      int `json:"total_complaints"`
	NewComplaints        int `json:"new_complaints"`
	InProgressComplaints int `json:"in_progress_complaints"`
	ResolvedComplaints   int `json:"resolved_complaints"`
	ClosedComplaints     int `json:"closed_complaints"`
}

// NamedCount is one slice of a category or priority breakdown chart.
type NamedCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// MonthlyRow is one point of the complaints-per-month series,
// Month formatted as "2006-01".
type MonthlyRow struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}
