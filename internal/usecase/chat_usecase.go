package usecase

import (
	"context"
	"encoding/json"
	"time"

	"pasarloka/internal/domain/entity"
	"pasarloka/internal/domain/repository"
	"pasarloka/internal/infrastructure/ratelimit"
	ws "pasarloka/internal/infrastructure/websocket"
	"pasarloka/pkg/errors"
	"pasarloka/pkg/logger"
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	wsManager   *ws.Manager
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	wsManager *ws.Manager,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		wsManager:   wsManager,
		rateLimiter: rateLimiter,
	}
}

type CreateChatInput struct {
	ProductID      string
	InitialMessage string
}

type SendMessageInput struct {
	ChatID string
	Kind   entity.MessageKind
	Body   string
	TempID string
}

type ChatResponse struct {
	*entity.Chat
	Product   *entity.Product `json:"product,omitempty"`
	OtherUser *entity.User    `json:"other_user,omitempty"`
}

type MessageResponse struct {
	*entity.Message
	Sender *entity.User `json:"sender,omitempty"`
}

// CreateChat opens (or reuses) the room between the buyer and the product's
// seller. A room binds exactly one buyer and one seller.
func (uc *ChatUseCase) CreateChat(ctx context.Context, buyerID string, input CreateChatInput) (*ChatResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(buyerID, "create_chat")
	if !allowed {
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before creating another chat", waitTime)
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, errors.NotFound("Product", err)
	}
	if product.SellerID == buyerID {
		return nil, errors.BadRequest("You cannot open a chat with yourself", nil)
	}

	seller, err := uc.userRepo.GetByID(ctx, product.SellerID)
	if err != nil {
		return nil, errors.NotFound("Seller", err)
	}

	chat, err := uc.chatRepo.GetByParticipants(ctx, buyerID, product.SellerID, input.ProductID)
	if err != nil {
		if !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}
		chat = &entity.Chat{
			BuyerID:       buyerID,
			SellerID:      product.SellerID,
			ProductID:     input.ProductID,
			Status:        "active",
			UnreadCount:   make(map[string]int),
			LastMessageAt: time.Now(),
		}
		if err := uc.chatRepo.Create(ctx, chat); err != nil {
			return nil, err
		}
	}

	if input.InitialMessage != "" {
		if _, err := uc.SendMessage(ctx, buyerID, SendMessageInput{
			ChatID: chat.ID,
			Kind:   entity.MessageText,
			Body:   input.InitialMessage,
		}); err != nil {
			logger.Error("CreateChat: failed to send initial message for chat %s: %v", chat.ID, err)
		}
	}

	return &ChatResponse{
		Chat:      chat,
		Product:   product,
		OtherUser: seller,
	}, nil
}

// SendMessage persists a message and broadcasts it to the room. The client's
// temp id is echoed back so the sender's local projection replaces its
// provisional entry rather than appending a duplicate.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID string, input SendMessageInput) (*MessageResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "send_message")
	if !allowed {
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	sender, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NotFound("Sender", err)
	}

	kind := input.Kind
	if kind == "" {
		kind = entity.MessageText
	}
	if kind == entity.MessageOffer {
		return nil, errors.BadRequest("Offers must be created through the negotiation endpoint", nil)
	}

	now := time.Now()
	message := &entity.Message{
		ChatID:    input.ChatID,
		SenderID:  userID,
		Kind:      kind,
		Body:      input.Body,
		TempID:    input.TempID,
		ReadBy:    []string{userID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	uc.bumpUnread(ctx, chat, message)
	uc.broadcastMessage(chat, message, sender)

	return &MessageResponse{Message: message, Sender: sender}, nil
}

// SendSystemMessage emits a protocol-internal message (e.g. an offer-accepted
// confirmation) into the room.
func (uc *ChatUseCase) SendSystemMessage(ctx context.Context, chatID, body string) (*entity.Message, error) {
	now := time.Now()
	message := &entity.Message{
		ChatID:    chatID,
		SenderID:  "system",
		Kind:      entity.MessageSystem,
		Body:      body,
		ReadBy:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	chat.LastMessage = body
	chat.LastMessageAt = now
	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		logger.Error("SendSystemMessage: failed to update chat %s: %v", chatID, err)
	}

	uc.broadcastMessage(chat, message, nil)
	return message, nil
}

func (uc *ChatUseCase) GetUserChats(ctx context.Context, userID string, limit, offset int) ([]*ChatResponse, int64, error) {
	chats, total, err := uc.chatRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*ChatResponse, 0, len(chats))
	for _, chat := range chats {
		resp := &ChatResponse{Chat: chat}
		otherID := chat.SellerID
		if userID == chat.SellerID {
			otherID = chat.BuyerID
		}
		if other, err := uc.userRepo.GetByID(ctx, otherID); err == nil {
			resp.OtherUser = other
		}
		if chat.ProductID != "" {
			if product, err := uc.productRepo.GetByID(ctx, chat.ProductID); err == nil {
				resp.Product = product
			}
		}
		responses = append(responses, resp)
	}
	return responses, total, nil
}

func (uc *ChatUseCase) GetChatMessages(ctx context.Context, userID, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, 0, err
	}
	if !chat.HasParticipant(userID) {
		return nil, 0, errors.Forbidden("User is not a participant in this chat", nil)
	}
	return uc.chatRepo.GetMessagesByChat(ctx, chatID, limit, offset)
}

// VerifyParticipant checks room membership for a joining connection.
func (uc *ChatUseCase) VerifyParticipant(ctx context.Context, userID, chatID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this chat", nil)
	}
	return nil
}

// MarkChatAsRead resets the reader's unread counter, which happens when the
// room is opened.
func (uc *ChatUseCase) MarkChatAsRead(ctx context.Context, userID, chatID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this chat", nil)
	}

	if chat.UnreadCount == nil {
		chat.UnreadCount = make(map[string]int)
	}
	chat.UnreadCount[userID] = 0
	chat.UpdatedAt = time.Now()
	return uc.chatRepo.Update(ctx, chat)
}

// MarkMessageAsRead records a read receipt and pushes the updated message to
// the room under its existing id, so projections merge instead of appending.
func (uc *ChatUseCase) MarkMessageAsRead(ctx context.Context, userID, chatID, messageID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this chat", nil)
	}

	if err := uc.chatRepo.UpdateMessageReadStatus(ctx, chatID, messageID, userID); err != nil {
		return err
	}

	message, err := uc.chatRepo.GetMessageByID(ctx, chatID, messageID)
	if err != nil {
		return err
	}
	uc.broadcastMessage(chat, message, nil)
	return nil
}

func (uc *ChatUseCase) bumpUnread(ctx context.Context, chat *entity.Chat, message *entity.Message) {
	chat.LastMessage = message.Body
	chat.LastMessageAt = message.CreatedAt
	if chat.UnreadCount == nil {
		chat.UnreadCount = make(map[string]int)
	}
	for _, participantID := range chat.Participants() {
		if participantID != message.SenderID {
			chat.UnreadCount[participantID]++
		}
	}
	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		logger.Error("Failed to update chat %s with last message: %v", chat.ID, err)
	}
}

// broadcastMessage pushes the message event to the room channel and a chat
// list update to each participant's own channel.
func (uc *ChatUseCase) broadcastMessage(chat *entity.Chat, message *entity.Message, sender *entity.User) {
	if uc.wsManager == nil {
		return
	}

	notification := map[string]interface{}{
		"type":    "message",
		"chat_id": chat.ID,
		"message": message,
	}
	if sender != nil {
		notification["sender"] = sender
	}
	payload, _ := json.Marshal(notification)
	uc.wsManager.SendToChatRoom(chat.ID, payload, message.SenderID)

	listUpdate := map[string]interface{}{
		"type":            "chat_list_update",
		"chat_id":         chat.ID,
		"last_message":    message.Body,
		"last_message_at": message.CreatedAt.Format(time.RFC3339),
		"sender_id":       message.SenderID,
	}
	listPayload, _ := json.Marshal(listUpdate)
	for _, participantID := range chat.Participants() {
		if participantID != message.SenderID {
			uc.wsManager.SendToUser(participantID, listPayload)
		}
	}
}
