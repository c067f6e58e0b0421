// Package httpapi holds the dashboard-facing HTTP handlers.
// Keep these thin: parse/validate input, call internal services, return JSON.
package httpapi

import (
	"errors"
	"net/http"

	"complaint-hotline/internal/auth"
	"complaint-hotline/internal/calls"
	"complaint-hotline/internal/complaints"
	"complaint-hotline/internal/reporting"
	"complaint-hotline/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
type Handlers struct {
	Auth       *auth.Service
	Calls      *calls.Service
	Complaints *complaints.Service
	Reporting  *reporting.Service
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	pair, user, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		logger.FromGin(c).Error("login failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          user,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h Handlers) Refresh(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}

	pair, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// --- Calls ---

func (h Handlers) ListCalls(c *gin.Context) {
	rows, err := h.Calls.List(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("call list failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": rows})
}

func (h Handlers) GetCall(c *gin.Context) {
	call, err := h.Calls.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

// --- Dashboard ---

func (h Handlers) DashboardStats(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	stats, err := h.Reporting.DashboardStats(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("dashboard stats failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dashboard stats failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- error mapping ---

func abortCallError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
	case errors.Is(err, calls.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.FromGin(c).Error("call request failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func abortComplaintError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, complaints.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "complaint not found"})
	case errors.Is(err, complaints.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.FromGin(c).Error("complaint request failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
