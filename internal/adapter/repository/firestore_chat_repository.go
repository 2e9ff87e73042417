package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pasarloka/internal/domain/entity"
	"pasarloka/internal/domain/repository"
	domstatus "pasarloka/internal/domain/status"
	"pasarloka/pkg/errors"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	if chat.UnreadCount == nil {
		chat.UnreadCount = make(map[string]int)
	}

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return errors.Internal("Failed to create chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return &chat, nil
}

func (r *firestoreChatRepository) GetByParticipants(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error) {
	query := r.client.Collection("chats").
		Where("buyerId", "==", buyerID).
		Where("sellerId", "==", sellerID).
		Where("productId", "==", productID).
		Limit(1)

	iter := query.Documents(ctx)
	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Chat", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return &chat, nil
}

// ListByUserID returns rooms where the user is buyer or seller, most recent
// activity first. A room binds the user in exactly one role, so the two
// queries never overlap.
func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	var chats []*entity.Chat
	for _, field := range []string{"buyerId", "sellerId"} {
		iter := r.client.Collection("chats").Where(field, "==", userID).Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return nil, 0, errors.Internal("Failed to iterate chats", err)
			}

			var chat entity.Chat
			if err := doc.DataTo(&chat); err != nil {
				return nil, 0, errors.Internal("Failed to parse chat data", err)
			}
			chats = append(chats, &chat)
		}
	}

	sort.Slice(chats, func(i, j int) bool {
		return chats[i].LastMessageAt.After(chats[j].LastMessageAt)
	})
	total := int64(len(chats))

	if offset > 0 {
		if offset >= len(chats) {
			return nil, total, nil
		}
		chats = chats[offset:]
	}
	if limit > 0 && limit < len(chats) {
		chats = chats[:limit]
	}

	return chats, total, nil
}

func (r *firestoreChatRepository) Update(ctx context.Context, chat *entity.Chat) error {
	chat.UpdatedAt = time.Now()

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return errors.Internal("Failed to update chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	now := time.Now()
	message.CreatedAt = now
	message.UpdatedAt = now

	_, err := r.client.Collection("chats").Doc(message.ChatID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	doc, err := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

func (r *firestoreChatRepository) GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("chats").Doc(chatID).Collection("messages").
		OrderBy("createdAt", firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count messages", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	// Oldest first for rendering.
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	return messages, total, nil
}

// UpdateMessage overwrites the message under its existing id. Offer decisions
// go through here so the pushed update reconciles in place on clients.
func (r *firestoreChatRepository) UpdateMessage(ctx context.Context, chatID string, message *entity.Message) error {
	message.UpdatedAt = time.Now()

	_, err := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}

	return nil
}

func (r *firestoreChatRepository) UpdateMessageReadStatus(ctx context.Context, chatID, messageID, userID string) error {
	docRef := r.client.Collection("chats").Doc(chatID).Collection("messages").Doc(messageID)

	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "readBy", Value: firestore.ArrayUnion(userID)},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.Internal("Failed to update message read status", err)
	}

	return nil
}

// CreateOfferMessage writes the offer message and the sender's pending-offer
// claim for the room in one transaction. A claim whose message is still
// pending refuses the new offer; a stale claim left by a responded offer is
// overwritten.
func (r *firestoreChatRepository) CreateOfferMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	now := time.Now()
	message.CreatedAt = now
	message.UpdatedAt = now

	claimRef := r.client.Collection("pending_offers").Doc(message.ChatID + "_" + message.SenderID)
	msgRef := r.client.Collection("chats").Doc(message.ChatID).Collection("messages").Doc(message.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		claim, err := tx.Get(claimRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil {
			claimedID, _ := claim.DataAt("messageId")
			if id, ok := claimedID.(string); ok && id != "" {
				prevRef := r.client.Collection("chats").Doc(message.ChatID).Collection("messages").Doc(id)
				if prev, perr := tx.Get(prevRef); perr == nil {
					var prevMsg entity.Message
					if derr := prev.DataTo(&prevMsg); derr == nil &&
						prevMsg.Offer != nil && prevMsg.Offer.Status == domstatus.OfferPending {
						return errors.OfferAlreadyPending(message.ChatID)
					}
				} else if status.Code(perr) != codes.NotFound {
					return perr
				}
			}
		}

		if err := tx.Set(claimRef, map[string]interface{}{
			"messageId": message.ID,
			"buyerId":   message.SenderID,
			"createdAt": now,
		}); err != nil {
			return err
		}
		return tx.Set(msgRef, message)
	})
	if err != nil {
		if errors.Is(err, "OFFER_ALREADY_PENDING") {
			return err
		}
		return errors.Internal("Failed to create offer message", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetPendingOfferByBuyer(ctx context.Context, chatID, buyerID string) (*entity.Message, error) {
	query := r.client.Collection("chats").Doc(chatID).Collection("messages").
		Where("kind", "==", string(entity.MessageOffer)).
		Where("senderId", "==", buyerID).
		Where("offer.status", "==", string(domstatus.OfferPending)).
		Limit(1)

	iter := query.Documents(ctx)
	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Offer", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query pending offer", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}
