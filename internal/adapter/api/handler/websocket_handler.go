package handler

import (
	"context"
	"encoding/json"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"pasarloka/internal/adapter/api/middleware"
	ws "pasarloka/internal/infrastructure/websocket"
	"pasarloka/internal/usecase"
	"pasarloka/pkg/errors"
	"pasarloka/pkg/logger"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	chatUseCase    *usecase.ChatUseCase
	authMiddleware *middleware.AuthMiddleware
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Restrict in production
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, chatUseCase *usecase.ChatUseCase, authMiddleware *middleware.AuthMiddleware) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		chatUseCase:    chatUseCase,
		authMiddleware: authMiddleware,
	}
}

var webSocketHandler *WebSocketHandler

func SetupWebSocketHandler(wsManager *ws.Manager, chatUseCase *usecase.ChatUseCase, authMiddleware *middleware.AuthMiddleware) {
	webSocketHandler = NewWebSocketHandler(wsManager, chatUseCase, authMiddleware)
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}

// clientFrame is what connected clients send upstream. Chat messages
// themselves go through the REST endpoint; the socket only carries room
// membership and read receipts.
type clientFrame struct {
	Type      string `json:"type"`
	ChatID    string `json:"chat_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID, ok := c.Get("uid").(string)
	if !ok || userID == "" {
		token := c.QueryParam("token")
		if token == "" {
			return errors.Unauthorized("Authentication required", nil)
		}
		uid, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
		if err != nil {
			return errors.Unauthorized("Invalid or expired token", err)
		}
		userID = uid
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager, h.onClientFrame)
	go client.WritePump()

	return nil
}

func (h *WebSocketHandler) onClientFrame(client *ws.Client, raw []byte) {
	var frame clientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.Warn("Dropping malformed frame from %s", client.UserID)
		return
	}

	ctx := context.Background()

	switch frame.Type {
	case "join_room":
		if frame.ChatID == "" {
			return
		}
		if err := h.chatUseCase.VerifyParticipant(ctx, client.UserID, frame.ChatID); err != nil {
			logger.Warn("Join refused for %s on chat %s: %v", client.UserID, frame.ChatID, err)
			return
		}
		h.wsManager.JoinRoom(frame.ChatID, client.UserID)

	case "leave_room":
		if frame.ChatID == "" {
			return
		}
		h.wsManager.LeaveRoom(frame.ChatID, client.UserID)

	case "mark_read":
		if frame.ChatID == "" {
			return
		}
		if frame.MessageID != "" {
			if err := h.chatUseCase.MarkMessageAsRead(ctx, client.UserID, frame.ChatID, frame.MessageID); err != nil {
				logger.Warn("Mark message read failed for %s: %v", client.UserID, err)
			}
			return
		}
		if err := h.chatUseCase.MarkChatAsRead(ctx, client.UserID, frame.ChatID); err != nil {
			logger.Warn("Mark chat read failed for %s: %v", client.UserID, err)
		}

	case "typing":
		if frame.ChatID == "" {
			return
		}
		payload, _ := json.Marshal(map[string]string{
			"type":    "typing",
			"chat_id": frame.ChatID,
			"user_id": client.UserID,
		})
		h.wsManager.SendToChatRoom(frame.ChatID, payload, client.UserID)

	default:
		logger.Debug("Ignoring frame type %q from %s", frame.Type, client.UserID)
	}
}
