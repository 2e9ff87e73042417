package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pasarloka/internal/domain/entity"
	"pasarloka/internal/domain/repository"
	"pasarloka/internal/domain/status"
	"pasarloka/internal/infrastructure/ratelimit"
	ws "pasarloka/internal/infrastructure/websocket"
	"pasarloka/pkg/errors"
	"pasarloka/pkg/logger"
)

// NegotiationUseCase carries the offer sub-protocol layered on chat messages:
// a buyer proposes a price, the seller accepts or rejects in place, and an
// accepted offer converts into a binding purchase exactly once.
type NegotiationUseCase struct {
	chatRepo      repository.ChatRepository
	purchaseRepo  repository.PurchaseRepository
	paymentRepo   repository.PaymentRepository
	productRepo   repository.ProductRepository
	userRepo      repository.UserRepository
	wsManager     *ws.Manager
	feeCalculator FeeCalculator
	rateLimiter   *ratelimit.RateLimiter
}

func NewNegotiationUseCase(
	chatRepo repository.ChatRepository,
	purchaseRepo repository.PurchaseRepository,
	paymentRepo repository.PaymentRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	wsManager *ws.Manager,
) *NegotiationUseCase {
	return &NegotiationUseCase{
		chatRepo:      chatRepo,
		purchaseRepo:  purchaseRepo,
		paymentRepo:   paymentRepo,
		productRepo:   productRepo,
		userRepo:      userRepo,
		wsManager:     wsManager,
		feeCalculator: &defaultFeeCalculator{},
		rateLimiter:   ratelimit.NewRateLimiter(),
	}
}

type CreateOfferInput struct {
	ChatID   string
	Price    float64
	Quantity int
	Note     string
}

type ConvertOfferInput struct {
	ChatID    string
	MessageID string
	AddressID string
	Quantity  int
}

// CreateOffer emits an offer message from the room's buyer. Only one offer
// from that buyer may be outstanding in the room at a time; the cheap check
// here rejects early, and the repository claims the pending-offer slot
// atomically so concurrent requests from independent clients cannot both
// land.
func (uc *NegotiationUseCase) CreateOffer(ctx context.Context, buyerID string, input CreateOfferInput) (*entity.Message, error) {
	allowed, waitTime := uc.rateLimiter.Allow(buyerID, "create_offer")
	if !allowed {
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before creating another offer", waitTime)
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}
	if chat.BuyerID != buyerID {
		return nil, errors.Forbidden("Only the room's buyer can create an offer", nil)
	}

	if input.Price <= 0 {
		return nil, errors.BadRequest("Offer price must be positive", nil)
	}

	var product *entity.Product
	if chat.ProductID != "" {
		product, err = uc.productRepo.GetByID(ctx, chat.ProductID)
		if err != nil {
			return nil, errors.NotFound("Product", err)
		}
		if input.Price > product.Price {
			return nil, errors.BadRequest("Offer price cannot exceed the listed price", nil)
		}
	}

	pending, err := uc.chatRepo.GetPendingOfferByBuyer(ctx, input.ChatID, buyerID)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}
	if pending != nil {
		return nil, errors.OfferAlreadyPending(input.ChatID)
	}

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	now := time.Now()
	message := &entity.Message{
		ChatID:   input.ChatID,
		SenderID: buyerID,
		Kind:     entity.MessageOffer,
		Body:     fmt.Sprintf("Offered %.0f for %d item(s)", input.Price, quantity),
		Offer: &entity.Offer{
			ProductID: chat.ProductID,
			Price:     input.Price,
			Quantity:  quantity,
			Status:    status.OfferPending,
			Note:      input.Note,
		},
		ReadBy:    []string{buyerID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.chatRepo.CreateOfferMessage(ctx, message); err != nil {
		return nil, err
	}

	chat.LastMessage = message.Body
	chat.LastMessageAt = now
	if chat.UnreadCount == nil {
		chat.UnreadCount = make(map[string]int)
	}
	chat.UnreadCount[chat.SellerID]++
	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		logger.Error("CreateOffer: failed to update chat %s: %v", chat.ID, err)
	}

	uc.broadcastOfferUpdate(chat, message)
	return message, nil
}

// RespondToOffer applies the seller's accept/reject decision to a pending
// offer. The existing message is mutated in place by id: no new message is
// created for the decision, so the pushed update carries the same identifier
// and reconciles into existing projections.
func (uc *NegotiationUseCase) RespondToOffer(ctx context.Context, sellerID, chatID, messageID string, accept bool, note string) (*entity.Message, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.SellerID != sellerID {
		return nil, errors.Forbidden("Only the room's seller can respond to an offer", nil)
	}

	message, err := uc.chatRepo.GetMessageByID(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if message.Kind != entity.MessageOffer || message.Offer == nil {
		return nil, errors.BadRequest("Message is not an offer", nil)
	}

	target := status.OfferRejected
	if accept {
		target = status.OfferAccepted
	}
	next, err := status.OfferTransition(message.Offer.Status, target)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	message.Offer.Status = next
	message.Offer.ResponseNote = note
	message.Offer.RespondedAt = &now
	message.UpdatedAt = now
	if err := uc.chatRepo.UpdateMessage(ctx, chatID, message); err != nil {
		return nil, errors.Internal("Failed to update offer", err)
	}

	seller, err := uc.userRepo.GetByID(ctx, sellerID)
	sellerName := sellerID
	if err == nil {
		sellerName = seller.Username
	}
	verdict := "rejected"
	if accept {
		verdict = "accepted"
	}
	uc.sendSystemMessage(ctx, chatID, fmt.Sprintf("%s %s the offer of %.0f", sellerName, verdict, message.Offer.Price))

	uc.broadcastOfferUpdate(chat, message)
	return message, nil
}

// ConvertAcceptedOfferToPurchase turns an accepted offer into a purchase at
// the negotiated price, exactly once. The check-for-existing step runs first
// and creation is the fallback; a concurrent retry that loses the creation
// race gets the winner's purchase back, never an error and never a duplicate.
func (uc *NegotiationUseCase) ConvertAcceptedOfferToPurchase(ctx context.Context, buyerID string, input ConvertOfferInput) (*entity.Purchase, error) {
	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}
	if chat.BuyerID != buyerID {
		return nil, errors.Forbidden("Only the room's buyer can convert an offer", nil)
	}

	message, err := uc.chatRepo.GetMessageByID(ctx, input.ChatID, input.MessageID)
	if err != nil {
		return nil, err
	}
	if message.Kind != entity.MessageOffer || message.Offer == nil {
		return nil, errors.BadRequest("Message is not an offer", nil)
	}
	if message.Offer.Status != status.OfferAccepted {
		return nil, errors.InvalidState("Only accepted offers can be converted to a purchase")
	}

	// Check first: an earlier attempt (or another tab) may already have won.
	if existing, err := uc.purchaseRepo.GetByOfferMessageID(ctx, input.MessageID); err == nil {
		return existing, nil
	} else if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	if input.AddressID == "" {
		return nil, errors.BadRequest("Shipping address is required", nil)
	}
	if _, err := uc.userRepo.GetAddressByID(ctx, input.AddressID); err != nil {
		return nil, errors.NotFound("Shipping address", err)
	}

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = message.Offer.Quantity
	}

	title := "Negotiated item"
	productID := message.Offer.ProductID
	if productID != "" {
		if product, err := uc.productRepo.GetByID(ctx, productID); err == nil {
			title = product.Title
		}
	}

	now := time.Now()
	subtotal := message.Offer.Price * float64(quantity)
	purchase := &entity.Purchase{
		Code:      generatePurchaseCode(now),
		BuyerID:   buyerID,
		SellerID:  chat.SellerID,
		Status:    status.PurchaseDraft,
		AddressID: input.AddressID,
		Items: []entity.LineItem{{
			ID:        uuid.New().String(),
			ProductID: productID,
			Title:     title,
			UnitPrice: message.Offer.Price,
			Quantity:  quantity,
		}},
		OfferMessageID: input.MessageID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.purchaseRepo.Create(ctx, purchase); err != nil {
		// Creation is the fallback: losing the race to another attempt is
		// success-with-existing, not a caller-facing failure.
		if errors.Is(err, "ALREADY_EXISTS") {
			return uc.purchaseRepo.GetByOfferMessageID(ctx, input.MessageID)
		}
		return nil, err
	}

	platformFee := uc.feeCalculator.CalculateFee(subtotal, "")
	payment := &entity.Payment{
		PurchaseID:  purchase.ID,
		Status:      status.PaymentWaiting,
		Subtotal:    subtotal,
		PlatformFee: platformFee,
		Total:       subtotal + platformFee,
		Deadline:    now.Add(24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	purchase.Status = status.PurchaseAwaitingPayment
	purchase.UpdatedAt = time.Now()
	if err := uc.purchaseRepo.Update(ctx, purchase); err != nil {
		return nil, err
	}

	uc.sendSystemMessage(ctx, input.ChatID, fmt.Sprintf("Purchase %s created from the accepted offer", purchase.Code))
	return purchase, nil
}

func (uc *NegotiationUseCase) sendSystemMessage(ctx context.Context, chatID, body string) {
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
		logger.Error("Failed to send system message to chat %s: %v", chatID, err)
		return
	}
	if uc.wsManager != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"type":    "message",
			"chat_id": chatID,
			"message": message,
		})
		uc.wsManager.SendToChatRoom(chatID, payload, "")
	}
}

// broadcastOfferUpdate pushes the offer message under its existing id; the
// reconciliation layer merges it into place instead of appending.
func (uc *NegotiationUseCase) broadcastOfferUpdate(chat *entity.Chat, message *entity.Message) {
	if uc.wsManager == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"type":    "message",
		"chat_id": chat.ID,
		"message": message,
	})
	uc.wsManager.SendToChatRoom(chat.ID, payload, "")
}
