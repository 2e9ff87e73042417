package router

import (
	"github.com/labstack/echo/v4"

	"pasarloka/internal/adapter/api/handler"
	"pasarloka/internal/adapter/api/middleware"
	"pasarloka/internal/infrastructure/ratelimit"
)

func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	chatHandler := handler.GetChatHandler()
	negotiationHandler := handler.GetNegotiationHandler()

	chats := e.Group("/v1/chats")
	chats.Use(authMiddleware.Authenticate)

	chats.POST("", chatHandler.CreateChat, middleware.RateLimit(limiter, "create_chat"))
	chats.GET("", chatHandler.ListChats)
	chats.GET("/:id/messages", chatHandler.GetMessages)
	chats.POST("/:id/messages", chatHandler.SendMessage, middleware.RateLimit(limiter, "send_message"))
	chats.POST("/:id/read", chatHandler.MarkChatAsRead)
	chats.POST("/:id/messages/:messageId/read", chatHandler.MarkMessageAsRead)

	// Negotiation rides on the chat room
	chats.POST("/:id/offers", negotiationHandler.CreateOffer)
	chats.POST("/:id/offers/:messageId/respond", negotiationHandler.RespondToOffer)
	chats.POST("/:id/offers/:messageId/convert", negotiationHandler.ConvertOffer)
}
