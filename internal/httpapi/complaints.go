package httpapi

import (
	"net/http"

	"complaint-hotline/internal/auth"
	"complaint-hotline/internal/complaints"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ListComplaints(c *gin.Context) {
	rows, err := h.Complaints.List(c.Request.Context())
	if err != nil {
		abortComplaintError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": rows})
}

func (h Handlers) GetComplaint(c *gin.Context) {
	complaint, err := h.Complaints.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortComplaintError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

func (h Handlers) GetComplaintByCall(c *gin.Context) {
	complaint, err := h.Complaints.GetByCall(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		abortComplaintError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

type createComplaintRequest struct {
	CallID        string  `json:"call_id"`
	Transcription *string `json:"transcription"`
	Category      string  `json:"category"`
	Priority      string  `json:"priority"`
	Summary       *string `json:"summary"`
}

// CreateComplaint files a complaint manually from the dashboard, outside
// the ingestion pipeline.
func (h Handlers) CreateComplaint(c *gin.Context) {
	var req createComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	complaint, err := h.Complaints.Create(c.Request.Context(), complaints.CreateRequest{
		CallID:        req.CallID,
		Transcription: req.Transcription,
		Category:      req.Category,
		Priority:      complaints.Priority(req.Priority),
		Summary:       req.Summary,
	})
	if err != nil {
		abortComplaintError(c, err)
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

type updateStatusRequest struct {
	Status     string `json:"status"`
	Notes      string `json:"notes"`
	Resolution string `json:"resolution"`
}

func (h Handlers) UpdateComplaintStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	actorID, _ := auth.UserID(c.Request.Context())

	complaint, err := h.Complaints.UpdateStatus(c.Request.Context(), complaints.UpdateStatusRequest{
		ComplaintID: c.Param("id"),
		NewStatus:   complaints.Status(req.Status),
		ActorID:     actorID,
		Notes:       req.Notes,
		Resolution:  req.Resolution,
	})
	if err != nil {
		abortComplaintError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

type assignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// AssignComplaint sets or clears the assignee; an empty assigned_to
// unassigns.
func (h Handlers) AssignComplaint(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	complaint, err := h.Complaints.Assign(c.Request.Context(), c.Param("id"), req.AssignedTo)
	if err != nil {
		abortComplaintError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

type commentRequest struct {
	Body string `json:"comment"`
}

func (h Handlers) AddComplaintComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	comment, err := h.Complaints.AddComment(c.Request.Context(), c.Param("id"), userID, req.Body)
	if err != nil {
		abortComplaintError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h Handlers) ListComplaintComments(c *gin.Context) {
	rows, err := h.Complaints.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortComplaintError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": rows})
}

func (h Handlers) ListComplaintHistory(c *gin.Context) {
	rows, err := h.Complaints.ListHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortComplaintError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": rows})
}
