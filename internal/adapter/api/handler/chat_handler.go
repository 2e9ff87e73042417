package handler

import (
	"github.com/labstack/echo/v4"

	"pasarloka/internal/domain/entity"
	ws "pasarloka/internal/infrastructure/websocket"
	"pasarloka/internal/usecase"
	"pasarloka/pkg/errors"
	"pasarloka/pkg/response"
	"pasarloka/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
	wsManager   *ws.Manager
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, wsManager *ws.Manager) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
		wsManager:   wsManager,
	}
}

type createChatRequest struct {
	ProductID      string `json:"product_id" validate:"required"`
	InitialMessage string `json:"initial_message,omitempty"`
}

func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	buyerID := c.Get("uid").(string)

	chat, err := h.chatUseCase.CreateChat(c.Request().Context(), buyerID, usecase.CreateChatInput{
		ProductID:      req.ProductID,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

func (h *ChatHandler) ListChats(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)
	userID := c.Get("uid").(string)

	chats, total, err := h.chatUseCase.GetUserChats(c.Request().Context(), userID, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, chats, total, pagination.Page, pagination.PageSize)
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("Chat ID is required", nil))
	}

	pagination := utils.GetPaginationParams(c)
	userID := c.Get("uid").(string)

	messages, total, err := h.chatUseCase.GetChatMessages(c.Request().Context(), userID, chatID, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, pagination.Page, pagination.PageSize)
}

type sendMessageRequest struct {
	Kind   string `json:"kind,omitempty" validate:"omitempty,oneof=text image"`
	Body   string `json:"body" validate:"required"`
	TempID string `json:"temp_id,omitempty"`
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("Chat ID is required", nil))
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	kind := entity.MessageKind(req.Kind)
	if kind == "" {
		kind = entity.MessageText
	}

	userID := c.Get("uid").(string)

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ChatID: chatID,
		Kind:   kind,
		Body:   req.Body,
		TempID: req.TempID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return response.Error(c, errors.BadRequest("Chat ID is required", nil))
	}

	userID := c.Get("uid").(string)

	if err := h.chatUseCase.MarkChatAsRead(c.Request().Context(), userID, chatID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

func (h *ChatHandler) MarkMessageAsRead(c echo.Context) error {
	chatID := c.Param("id")
	messageID := c.Param("messageId")
	if chatID == "" || messageID == "" {
		return response.Error(c, errors.BadRequest("Chat ID and message ID are required", nil))
	}

	userID := c.Get("uid").(string)

	if err := h.chatUseCase.MarkMessageAsRead(c.Request().Context(), userID, chatID, messageID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}
