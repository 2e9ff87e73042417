package entity

import (
	"time"

	"pasarloka/internal/domain/status"
)

// Purchase is one buyer transaction, possibly spanning multiple sellers via a
// shared billing group. It is never deleted: cancellation is a soft mark.
type Purchase struct {
	ID           string                `json:"id" firestore:"id"`
	Code         string                `json:"code" firestore:"code"`
	BuyerID      string                `json:"buyer_id" firestore:"buyerId"`
	SellerID     string                `json:"seller_id" firestore:"sellerId"`
	BillingCode  string                `json:"billing_code,omitempty" firestore:"billingCode,omitempty"`
	Status       status.PurchaseStatus `json:"status" firestore:"status"`
	AddressID    string                `json:"address_id" firestore:"addressId"`
	BuyerNote    string                `json:"buyer_note,omitempty" firestore:"buyerNote,omitempty"`
	AdminNote    string                `json:"admin_note,omitempty" firestore:"adminNote,omitempty"`
	Items        []LineItem            `json:"items" firestore:"items"`

	// Set when the purchase was created from an accepted offer; used as the
	// idempotency key for offer conversion.
	OfferMessageID string `json:"offer_message_id,omitempty" firestore:"offerMessageId,omitempty"`

	ComplaintID string `json:"complaint_id,omitempty" firestore:"complaintId,omitempty"`
	ReviewID    string `json:"review_id,omitempty" firestore:"reviewId,omitempty"`

	CreatedAt   time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time  `json:"updated_at" firestore:"updatedAt"`
	PaidAt      *time.Time `json:"paid_at,omitempty" firestore:"paidAt,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty" firestore:"shippedAt,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty" firestore:"deliveredAt,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" firestore:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" firestore:"cancelledAt,omitempty"`
}

// LineItem is one product position inside a purchase. It owns zero-or-one
// shipment record, which only exists once the purchase has shipped.
type LineItem struct {
	ID        string    `json:"id" firestore:"id"`
	ProductID string    `json:"product_id" firestore:"productId"`
	Title     string    `json:"title" firestore:"title"`
	UnitPrice float64   `json:"unit_price" firestore:"unitPrice"`
	Quantity  int       `json:"quantity" firestore:"quantity"`
	Shipment  *Shipment `json:"shipment,omitempty" firestore:"shipment,omitempty"`
}

type Shipment struct {
	Courier        string     `json:"courier" firestore:"courier"`
	TrackingNumber string     `json:"tracking_number" firestore:"trackingNumber"`
	ShippedAt      time.Time  `json:"shipped_at" firestore:"shippedAt"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty" firestore:"deliveredAt,omitempty"`
}

// PurchaseLog records each applied transition for audit.
type PurchaseLog struct {
	ID         string                `json:"id" firestore:"id"`
	PurchaseID string                `json:"purchase_id" firestore:"purchaseId"`
	Status     status.PurchaseStatus `json:"status" firestore:"status"`
	Notes      string                `json:"notes,omitempty" firestore:"notes,omitempty"`
	CreatedBy  string                `json:"created_by" firestore:"createdBy"`
	CreatedAt  time.Time             `json:"created_at" firestore:"createdAt"`
}
