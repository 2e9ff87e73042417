package entity

import (
	"time"
)

// Review is left by the buyer after a purchase completes. A purchase cannot
// hold a review unless its status is completed.
type Review struct {
	ID         string    `json:"id" firestore:"id"`
	PurchaseID string    `json:"purchase_id" firestore:"purchaseId"`
	ProductID  string    `json:"product_id" firestore:"productId"`
	ReviewerID string    `json:"reviewer_id" firestore:"reviewerId"`
	SellerID   string    `json:"seller_id" firestore:"sellerId"`
	Rating     int       `json:"rating" firestore:"rating"` // 1-5
	Content    string    `json:"content" firestore:"content"`
	Images     []string  `json:"images" firestore:"images"`
	Status     string    `json:"status" firestore:"status"` // "active", "hidden", "deleted"
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt  time.Time `json:"updated_at" firestore:"updatedAt"`
}
