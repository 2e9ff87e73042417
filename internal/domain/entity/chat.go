package entity

import "time"

// Chat is a two-party channel binding exactly one buyer and one seller,
// optionally anchored to a product.
type Chat struct {
	ID            string         `json:"id" firestore:"id"`
	BuyerID       string         `json:"buyer_id" firestore:"buyerId"`
	SellerID      string         `json:"seller_id" firestore:"sellerId"`
	ProductID     string         `json:"product_id,omitempty" firestore:"productId,omitempty"`
	Status        string         `json:"status" firestore:"status"`
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
	LastMessageAt time.Time      `json:"last_message_at" firestore:"lastMessageAt"`
	LastMessage   string         `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	UnreadCount   map[string]int `json:"unread_count" firestore:"unreadCount"` // Map of userID to unread count
}

// Participants returns both members of the room.
func (c *Chat) Participants() []string {
	return []string{c.BuyerID, c.SellerID}
}

// HasParticipant reports whether userID is a member of the room.
func (c *Chat) HasParticipant(userID string) bool {
	return userID == c.BuyerID || userID == c.SellerID
}
