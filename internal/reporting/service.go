package reporting

import (
	"context"
	"errors"
	"sort"

	"complaint-hotline/internal/calls"
	"complaint-hotline/internal/complaints"
)

const recentCallsLimit = 5

// Repository abstracts data access for dashboard aggregation. Both lists
// are expected to be modest in size for a single-tenant hotline; all
// aggregation happens in memory.
type Repository interface {
	ListCalls(ctx context.Context) ([]calls.Call, error)
	ListComplaints(ctx context.Context) ([]complaints.Complaint, error)
}

// StoreRepo adapts the call and complaint stores to the reporting
// Repository.
type StoreRepo struct {
	Calls      calls.Store
	Complaints complaints.Store
}

func (r StoreRepo) ListCalls(ctx context.Context) ([]calls.Call, error) {
	return r.Calls.List(ctx)
}

func (r StoreRepo) ListComplaints(ctx context.Context) ([]complaints.Complaint, error) {
	return r.Complaints.List(ctx)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// DashboardStats aggregates calls and complaints into the landing-page
// payload: overview counters, the five most recent calls, category and
// priority breakdowns, and the complaints-per-month series.
func (s *Service) DashboardStats(ctx context.Context) (DashboardStats, error) {
	if s.repo == nil {
		return DashboardStats{}, errors.New("reporting: repository not configured")
	}

	callRows, err := s.repo.ListCalls(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	complaintRows, err := s.repo.ListComplaints(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	out := DashboardStats{}
	out.Overview.TotalCalls = len(callRows)
	for _, c := range callRows {
		switch c.Status {
		case calls.CallStatusCompleted:
			out.Overview.ProcessedCalls++
		case calls.CallStatusFailed:
			out.Overview.FilteredCalls++
		}
	}

	out.Overview.TotalComplaints = len(complaintRows)
	categories := map[string]int{}
	priorities := map[string]int{}
	monthly := map[string]int{}
	for _, c := range complaintRows {
		switch c.Status {
		case complaints.StatusNew:
			out.Overview.NewComplaints++
		case complaints.StatusInProgress:
			out.Overview.InProgressComplaints++
		case complaints.StatusResolved:
			out.Overview.ResolvedComplaints++
		case complaints.StatusClosed:
			out.Overview.ClosedComplaints++
		}

		category := c.Category
		if category == "" {
			category = "Sin categoría"
		}
		categories[category]++
		priorities[string(c.Priority)]++
		monthly[c.CreatedAt.Format("2006-01")]++
	}

	out.Categories = namedCounts(categories)
	out.Priorities = namedCounts(priorities)
	out.Monthly = monthlyRows(monthly)
	out.RecentCalls = recentCalls(callRows)
	return out, nil
}

// namedCounts turns a counter map into a slice sorted by descending count,
// name as tiebreaker, so chart ordering is stable across requests.
func namedCounts(m map[string]int) []NamedCount {
	out := make([]NamedCount, 0, len(m))
	for name, value := range m {
		out = append(out, NamedCount{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func monthlyRows(m map[string]int) []MonthlyRow {
	out := make([]MonthlyRow, 0, len(m))
	for month, count := range m {
		out = append(out, MonthlyRow{Month: month, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func recentCalls(rows []calls.Call) []calls.Call {
	out := make([]calls.Call, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > recentCallsLimit {
		out = out[:recentCallsLimit]
	}
	return out
}
