package main

import (
	"complaint-hotline/internal/httpapi"
	"complaint-hotline/internal/rbac"
	"complaint-hotline/internal/telephony"

	"github.com/gin-gonic/gin"
)

const recordingStatusPath = "/webhooks/twilio/recording-status"

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, webhooks telephony.WebhookHandler, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by Twilio signature validation in production.
	r.POST("/webhooks/twilio/voice", webhooks.HandleInboundVoice)
	r.POST(recordingStatusPath, webhooks.HandleRecordingStatus)

	// auth (public)
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/refresh", h.Refresh)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		// CALLS routes: read-only; the ingestion pipeline is the only writer.
		callsGroup := v1.Group("/calls")
		callsGroup.Use(rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleViewer))
		{
			callsGroup.GET("", h.ListCalls)
			callsGroup.GET("/:id", h.GetCall)
		}

		// COMPLAINTS routes: viewers read, operators triage.
		complaintsGroup := v1.Group("/complaints")
		complaintsGroup.Use(rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleViewer))
		{
			complaintsGroup.GET("", h.ListComplaints)
			complaintsGroup.GET("/:id", h.GetComplaint)
			complaintsGroup.GET("/by-call/:call_id", h.GetComplaintByCall)
			complaintsGroup.GET("/:id/comments", h.ListComplaintComments)
			complaintsGroup.GET("/:id/history", h.ListComplaintHistory)

			write := complaintsGroup.Group("")
			write.Use(rbac.RequireAnyRole(rbac.RoleOperator))
			{
				write.POST("", h.CreateComplaint)
				write.PUT("/:id/status", h.UpdateComplaintStatus)
				write.PATCH("/:id", h.AssignComplaint)
				write.POST("/:id/comments", h.AddComplaintComment)
			}
		}

		// DASHBOARD routes
		dashboard := v1.Group("/dashboard")
		dashboard.Use(rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleViewer))
		{
			dashboard.GET("/stats", h.DashboardStats)
		}
	}
}
