package router

import (
	"github.com/labstack/echo/v4"

	"pasarloka/internal/adapter/api/handler"
	"pasarloka/internal/adapter/api/middleware"
)

func SetupComplaintRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	complaintHandler := handler.GetComplaintHandler()

	complaints := e.Group("/v1/complaints")
	complaints.Use(authMiddleware.Authenticate)

	complaints.POST("", complaintHandler.OpenComplaint)
	complaints.GET("/:id", complaintHandler.GetComplaint)
	complaints.POST("/returns", complaintHandler.RequestReturn)

	admin := e.Group("/v1/admin/complaints")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.GET("", complaintHandler.ListComplaints)
	admin.POST("/:id/process", complaintHandler.ProcessComplaint)
	admin.POST("/:id/resolve", complaintHandler.ResolveComplaint)

	adminReturns := e.Group("/v1/admin/returns")
	adminReturns.Use(authMiddleware.Authenticate)
	adminReturns.Use(adminMiddleware.AdminOnly)

	adminReturns.POST("/:id/process", complaintHandler.ProcessReturn)
}
