package repository

import (
	"context"

	"pasarloka/internal/domain/entity"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	GetByParticipants(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error)
	Update(ctx context.Context, chat *entity.Chat) error

	// Message methods
	CreateMessage(ctx context.Context, message *entity.Message) error
	GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error)
	GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error)
	UpdateMessage(ctx context.Context, chatID string, message *entity.Message) error
	UpdateMessageReadStatus(ctx context.Context, chatID, messageID, userID string) error

	// GetPendingOfferByBuyer returns the buyer's outstanding offer message in
	// the room, or NOT_FOUND.
	GetPendingOfferByBuyer(ctx context.Context, chatID, buyerID string) (*entity.Message, error)

	// CreateOfferMessage writes an offer message and claims the sender's
	// pending-offer slot for the room atomically. While the claimed offer is
	// still pending, a second offer fails with OFFER_ALREADY_PENDING even
	// when both requests arrive at the same instant.
	CreateOfferMessage(ctx context.Context, message *entity.Message) error
}
