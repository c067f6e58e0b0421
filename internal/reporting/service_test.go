package reporting

import (
	"context"
	"testing"
	"time"

	"complaint-hotline/internal/calls"
	"complaint-hotline/internal/complaints"
)

func seedStats(t *testing.T) *Service {
	t.Helper()
	callStore := calls.NewMemoryStore()
	complaintStore := complaints.NewMemoryStore()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	mkCall := func(id string, status calls.CallStatus, startedAt time.Time) {
		err := callStore.Create(context.Background(), calls.Call{
			ID: id, CallSid: "CA-" + id, PhoneNumber: "+57300000" + id,
			StartedAt: startedAt, Status: status,
			CreatedAt: startedAt, UpdatedAt: startedAt,
		})
		if err != nil {
			t.Fatalf("seed call %s: %v", id, err)
		}
	}
	for i, status := range []calls.CallStatus{
		calls.CallStatusCompleted,
		calls.CallStatusCompleted,
		calls.CallStatusCompleted,
		calls.CallStatusFailed,
		calls.CallStatusCompleted,
		calls.CallStatusCompleted,
		calls.CallStatusCompleted,
	} {
		mkCall(string(rune('1'+i)), status, now.Add(time.Duration(i)*time.Hour))
	}

	mkComplaint := func(id, category string, priority complaints.Priority, status complaints.Status, createdAt time.Time) {
		err := complaintStore.Create(context.Background(), complaints.Complaint{
			ID: id, CallID: "call-" + id,
			Category: category, Priority: priority, Status: status,
			CreatedAt: createdAt, UpdatedAt: createdAt,
		})
		if err != nil {
			t.Fatalf("seed complaint %s: %v", id, err)
		}
	}
	mkComplaint("a", "Theft", complaints.PriorityHigh, complaints.StatusNew, now)
	mkComplaint("b", "Theft", complaints.PriorityHigh, complaints.StatusInProgress, now)
	mkComplaint("c", "Noise", complaints.PriorityLow, complaints.StatusResolved, now.AddDate(0, -1, 0))
	mkComplaint("d", "Fraud", complaints.PriorityMedium, complaints.StatusClosed, now.AddDate(0, -1, 0))

	return NewService(StoreRepo{Calls: callStore, Complaints: complaintStore})
}

func TestDashboardStats_Overview(t *testing.T) {
	svc := seedStats(t)

	stats, err := svc.DashboardStats(context.Background())
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}

	o := stats.Overview
	if o.TotalCalls != 7 || o.ProcessedCalls != 6 || o.FilteredCalls != 1 {
		t.Fatalf("call overview = %+v", o)
	}
	if o.TotalComplaints != 4 {
		t.Fatalf("total complaints = %d", o.TotalComplaints)
	}
	if o.NewComplaints != 1 || o.InProgressComplaints != 1 || o.ResolvedComplaints != 1 || o.ClosedComplaints != 1 {
		t.Fatalf("complaint overview = %+v", o)
	}
}

func TestDashboardStats_RecentCallsLimitedAndOrdered(t *testing.T) {
	svc := seedStats(t)

	stats, err := svc.DashboardStats(context.Background())
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if len(stats.RecentCalls) != 5 {
		t.Fatalf("recent calls = %d, want 5", len(stats.RecentCalls))
	}
	for i := 1; i < len(stats.RecentCalls); i++ {
		if stats.RecentCalls[i].StartedAt.After(stats.RecentCalls[i-1].StartedAt) {
			t.Fatalf("recent calls not in descending order")
		}
	}
}

func TestDashboardStats_Breakdowns(t *testing.T) {
	svc := seedStats(t)

	stats, err := svc.DashboardStats(context.Background())
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}

	if len(stats.Categories) != 3 {
		t.Fatalf("categories = %+v", stats.Categories)
	}
	if stats.Categories[0].Name != "Theft" || stats.Categories[0].Value != 2 {
		t.Fatalf("top category = %+v", stats.Categories[0])
	}

	if len(stats.Monthly) != 2 {
		t.Fatalf("monthly = %+v", stats.Monthly)
	}
	if stats.Monthly[0].Month != "2026-03" || stats.Monthly[0].Count != 2 {
		t.Fatalf("first month = %+v", stats.Monthly[0])
	}
	if stats.Monthly[1].Month != "2026-04" || stats.Monthly[1].Count != 2 {
		t.Fatalf("second month = %+v", stats.Monthly[1])
	}
}
