package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"complaint-hotline/internal/auth"
	"complaint-hotline/internal/calls"
	"complaint-hotline/internal/complaints"
	"complaint-hotline/internal/config"
	"complaint-hotline/internal/reporting"

	"github.com/gin-gonic/gin"
)

type apiFixture struct {
	router         *gin.Engine
	handlers       Handlers
	callStore      *calls.MemoryStore
	complaintStore *complaints.MemoryStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	users := auth.NewMemoryUserStore()
	hash, err := auth.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := users.Create(context.Background(), auth.User{
		ID: "user-1", Email: "ana@example.com", PasswordHash: hash, Role: "operator",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	callStore := calls.NewMemoryStore()
	complaintStore := complaints.NewMemoryStore()

	h := Handlers{
		Auth:       auth.NewService(users, manager),
		Calls:      calls.NewService(callStore, 10),
		Complaints: complaints.NewService(complaintStore),
		Reporting:  reporting.NewService(reporting.StoreRepo{Calls: callStore, Complaints: complaintStore}),
	}

	r := gin.New()
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/refresh", h.Refresh)

	identity := func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "user-1", "operator")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
	r.GET("/v1/calls", identity, h.ListCalls)
	r.GET("/v1/calls/:id", identity, h.GetCall)
	r.GET("/v1/complaints", identity, h.ListComplaints)
	r.GET("/v1/complaints/:id", identity, h.GetComplaint)
	r.GET("/v1/complaints/by-call/:call_id", identity, h.GetComplaintByCall)
	r.POST("/v1/complaints", identity, h.CreateComplaint)
	r.PUT("/v1/complaints/:id/status", identity, h.UpdateComplaintStatus)
	r.PATCH("/v1/complaints/:id", identity, h.AssignComplaint)
	r.POST("/v1/complaints/:id/comments", identity, h.AddComplaintComment)
	r.GET("/v1/complaints/:id/comments", identity, h.ListComplaintComments)
	r.GET("/v1/complaints/:id/history", identity, h.ListComplaintHistory)
	r.GET("/v1/dashboard/stats", identity, h.DashboardStats)

	return &apiFixture{router: r, handlers: h, callStore: callStore, complaintStore: complaintStore}
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func (f *apiFixture) seedComplaint(t *testing.T) complaints.Complaint {
	t.Helper()
	c, err := f.handlers.Complaints.Create(context.Background(), complaints.CreateRequest{
		CallID: "call-1", Category: "Theft", Priority: complaints.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("seed complaint: %v", err)
	}
	return c
}

func TestLoginEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/v1/auth/login", `{"email":"ana@example.com","password":"hunter2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("missing tokens in response: %s", w.Body.String())
	}

	w = f.do(t, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+resp.RefreshToken+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestLoginEndpointRejectsBadPassword(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/v1/auth/login", `{"email":"ana@example.com","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestComplaintStatusEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	c := f.seedComplaint(t)

	w := f.do(t, http.MethodPut, "/v1/complaints/"+c.ID+"/status",
		`{"status":"resolved","notes":"handled","resolution":"spoke with caller"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got complaints.Complaint
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != complaints.StatusResolved || got.ResolvedAt == nil {
		t.Fatalf("complaint = %+v", got)
	}

	w = f.do(t, http.MethodGet, "/v1/complaints/"+c.ID+"/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	var hist struct {
		History []complaints.StatusChange `json:"history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.History) != 1 || hist.History[0].ActorID != "user-1" {
		t.Fatalf("history = %+v", hist.History)
	}
}

func TestComplaintStatusEndpointRejectsUnknownStatus(t *testing.T) {
	f := newAPIFixture(t)
	c := f.seedComplaint(t)

	w := f.do(t, http.MethodPut, "/v1/complaints/"+c.ID+"/status", `{"status":"archived"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestComplaintCommentsEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	c := f.seedComplaint(t)

	w := f.do(t, http.MethodPost, "/v1/complaints/"+c.ID+"/comments", `{"comment":"called back"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/v1/complaints/"+c.ID+"/comments", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var resp struct {
		Comments []complaints.Comment `json:"comments"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Comments) != 1 || resp.Comments[0].UserID != "user-1" {
		t.Fatalf("comments = %+v", resp.Comments)
	}
}

func TestGetComplaintByCall(t *testing.T) {
	f := newAPIFixture(t)
	c := f.seedComplaint(t)

	w := f.do(t, http.MethodGet, "/v1/complaints/by-call/call-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got complaints.Complaint
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("id = %s, want %s", got.ID, c.ID)
	}

	w = f.do(t, http.MethodGet, "/v1/complaints/by-call/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestDashboardStatsEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.seedComplaint(t)

	w := f.do(t, http.MethodGet, "/v1/dashboard/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var stats reporting.DashboardStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Overview.TotalComplaints != 1 || stats.Overview.NewComplaints != 1 {
		t.Fatalf("overview = %+v", stats.Overview)
	}
}
