package entity

import (
	"time"

	"pasarloka/internal/domain/status"
)

type MessageKind string

const (
	MessageText   MessageKind = "text"
	MessageImage  MessageKind = "image"
	MessageOffer  MessageKind = "offer"
	MessageSystem MessageKind = "system"
)

// Message is the atomic unit exchanged in a chat room. The server-assigned ID
// is the deduplication key for reconciliation: the same ID observed twice must
// collapse into a single update. Only offer messages mutate after creation,
// and only their offer fields.
type Message struct {
	ID       string      `json:"id" firestore:"id"`
	ChatID   string      `json:"chat_id" firestore:"chatId"`
	SenderID string      `json:"sender_id" firestore:"senderId"`
	Kind     MessageKind `json:"kind" firestore:"kind"`
	Body     string      `json:"body" firestore:"body"`

	// Client-generated id of the provisional local echo this message
	// replaces, echoed back so the sender's projection can reconcile.
	TempID string `json:"temp_id,omitempty" firestore:"tempId,omitempty"`

	Offer *Offer `json:"offer,omitempty" firestore:"offer,omitempty"`

	ReadBy    []string  `json:"read_by" firestore:"readBy"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Offer carries the negotiation fields of a kind=offer message.
type Offer struct {
	ProductID    string             `json:"product_id" firestore:"productId"`
	Price        float64            `json:"price" firestore:"price"`
	Quantity     int                `json:"quantity" firestore:"quantity"`
	Status       status.OfferStatus `json:"status" firestore:"status"`
	Note         string             `json:"note,omitempty" firestore:"note,omitempty"`
	ResponseNote string             `json:"response_note,omitempty" firestore:"responseNote,omitempty"`
	RespondedAt  *time.Time         `json:"responded_at,omitempty" firestore:"respondedAt,omitempty"`
}
