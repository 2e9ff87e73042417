package router

import (
	"github.com/labstack/echo/v4"

	"pasarloka/internal/adapter/api/middleware"
	"pasarloka/internal/infrastructure/ratelimit"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware, limiter *ratelimit.RateLimiter) {
	SetupAuthRouter(e, authMiddleware)
	SetupUserRouter(e, authMiddleware)
	SetupProductRouter(e, authMiddleware)
	SetupReviewRouter(e, authMiddleware)
	SetupPurchaseRouter(e, authMiddleware, adminMiddleware)
	SetupComplaintRouter(e, authMiddleware, adminMiddleware)
	SetupChatRouter(e, authMiddleware, limiter)
	SetupCartRouter(e, authMiddleware)
	SetupFileRouter(e, authMiddleware)
	SetupWebSocketRouter(e)
	SetupHealthRouter(e)
}
