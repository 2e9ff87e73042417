package entity

import (
	"time"

	"pasarloka/internal/domain/status"
)

// Payment is the billing record tied 1:1 to a purchase (or to a group of
// purchases sharing a billing code). Total must always equal
// Subtotal + ShippingFee + PlatformFee.
type Payment struct {
	ID          string               `json:"id" firestore:"id"`
	PurchaseID  string               `json:"purchase_id" firestore:"purchaseId"`
	BillingCode string               `json:"billing_code,omitempty" firestore:"billingCode,omitempty"`
	Status      status.PaymentStatus `json:"status" firestore:"status"`

	Subtotal    float64 `json:"subtotal" firestore:"subtotal"`
	ShippingFee float64 `json:"shipping_fee" firestore:"shippingFee"`
	PlatformFee float64 `json:"platform_fee" firestore:"platformFee"`
	Total       float64 `json:"total" firestore:"total"`

	Method     string `json:"method,omitempty" firestore:"method,omitempty"`
	GatewayRef string `json:"gateway_ref,omitempty" firestore:"gatewayRef,omitempty"`

	// Set when a coordinated payment/purchase confirmation was left
	// half-applied by a fault and the rollback also failed. A payment with
	// this flag must not be treated as settled until reconciled.
	NeedsReconcile bool `json:"needs_reconcile,omitempty" firestore:"needsReconcile,omitempty"`

	// Refund fields are populated if and only if Status is refunded.
	RefundAmount float64    `json:"refund_amount,omitempty" firestore:"refundAmount,omitempty"`
	RefundReason string     `json:"refund_reason,omitempty" firestore:"refundReason,omitempty"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty" firestore:"refundedAt,omitempty"`
	RefundedBy   string     `json:"refunded_by,omitempty" firestore:"refundedBy,omitempty"`

	Deadline  time.Time  `json:"deadline" firestore:"deadline"`
	PaidAt    *time.Time `json:"paid_at,omitempty" firestore:"paidAt,omitempty"`
	CreatedAt time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time  `json:"updated_at" firestore:"updatedAt"`
}

// AmountsConsistent reports whether the declared breakdown adds up.
func (p *Payment) AmountsConsistent() bool {
	return p.Total == p.Subtotal+p.ShippingFee+p.PlatformFee
}
