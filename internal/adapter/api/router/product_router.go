package router

import (
	"github.com/labstack/echo/v4"

	"pasarloka/internal/adapter/api/handler"
	"pasarloka/internal/adapter/api/middleware"
)

func SetupProductRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	productHandler := handler.GetProductHandler()

	// Public catalog
	e.GET("/v1/products", productHandler.ListProducts)
	e.GET("/v1/products/:id", productHandler.GetProduct)

	// Seller management
	seller := e.Group("/v1/seller/products")
	seller.Use(authMiddleware.Authenticate)

	seller.POST("", productHandler.CreateProduct)
	seller.GET("", productHandler.ListMyProducts)
	seller.PUT("/:id", productHandler.UpdateProduct)
	seller.DELETE("/:id", productHandler.DeleteProduct)
}
