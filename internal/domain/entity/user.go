package entity

import (
	"time"
)

type User struct {
	ID       string `json:"id" firestore:"id"`
	Email    string `json:"email" firestore:"email"`
	Username string `json:"username" firestore:"username"`
	Phone    string `json:"phone" firestore:"phone"`
	Role     string `json:"role" firestore:"role"` // "buyer", "seller", "admin"
	Status   string `json:"status" firestore:"status"`

	FullName  string `json:"full_name,omitempty" firestore:"fullName,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`

	SellerRating      float64 `json:"seller_rating,omitempty" firestore:"sellerRating,omitempty"`
	SellerReviewCount int     `json:"seller_review_count,omitempty" firestore:"sellerReviewCount,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Address is a stored shipping destination; purchases reference it by id.
type Address struct {
	ID         string    `json:"id" firestore:"id"`
	UserID     string    `json:"user_id" firestore:"userId"`
	Label      string    `json:"label" firestore:"label"`
	Recipient  string    `json:"recipient" firestore:"recipient"`
	Phone      string    `json:"phone" firestore:"phone"`
	Street     string    `json:"street" firestore:"street"`
	City       string    `json:"city" firestore:"city"`
	Province   string    `json:"province" firestore:"province"`
	PostalCode string    `json:"postal_code" firestore:"postalCode"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
}
