package router

import (
	"github.com/labstack/echo/v4"

	"pasarloka/internal/adapter/api/handler"
	"pasarloka/internal/adapter/api/middleware"
)

func SetupCartRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	cartHandler := handler.GetCartHandler()

	cart := e.Group("/v1/cart")
	cart.Use(authMiddleware.Authenticate)

	cart.POST("/items", cartHandler.AddToCart)
	cart.GET("", cartHandler.GetCart)
	cart.DELETE("/items/:id", cartHandler.RemoveFromCart)
	cart.DELETE("", cartHandler.ClearCart)
}
