package router

import (
	"github.com/labstack/echo/v4"

	"pasarloka/internal/adapter/api/handler"
	"pasarloka/internal/adapter/api/middleware"
)

func SetupPurchaseRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	purchaseHandler := handler.GetPurchaseHandler()

	purchases := e.Group("/v1/purchases")
	purchases.Use(authMiddleware.Authenticate)

	purchases.POST("", purchaseHandler.Checkout)
	purchases.GET("", purchaseHandler.ListPurchases)
	purchases.GET("/:id", purchaseHandler.GetPurchase)
	purchases.GET("/:id/logs", purchaseHandler.GetPurchaseLogs)
	purchases.GET("/:id/actions", purchaseHandler.GetAvailableActions)
	purchases.POST("/:id/ship", purchaseHandler.ShipPurchase)
	purchases.POST("/:id/confirm-delivery", purchaseHandler.ConfirmDelivery)
	purchases.POST("/:id/complete", purchaseHandler.CompletePurchase)
	purchases.POST("/:id/cancel", purchaseHandler.CancelPurchase)

	payments := e.Group("/v1/payments")
	payments.Use(authMiddleware.Authenticate)

	payments.POST("/:id/confirm", purchaseHandler.ConfirmPayment)

	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.GET("/purchases", purchaseHandler.ListAllPurchases)
	admin.POST("/payments/:id/reopen", purchaseHandler.ReopenPayment)
	admin.POST("/payments/:id/refund", purchaseHandler.RefundPayment)
	admin.POST("/purchases/:id/note", purchaseHandler.SetAdminNote)
}
