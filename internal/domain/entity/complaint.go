package entity

import (
	"time"

	"pasarloka/internal/domain/status"
)

// Complaint is a buyer-initiated dispute opened against a purchase already in
// a post-delivery state. At most one active complaint exists per purchase.
type Complaint struct {
	ID         string                 `json:"id" firestore:"id"`
	PurchaseID string                 `json:"purchase_id" firestore:"purchaseId"`
	BuyerID    string                 `json:"buyer_id" firestore:"buyerId"`
	Status     status.ComplaintStatus `json:"status" firestore:"status"`
	Reason     string                 `json:"reason" firestore:"reason"`
	Body       string                 `json:"body" firestore:"body"`
	Evidence   string                 `json:"evidence,omitempty" firestore:"evidence,omitempty"`
	AdminNote  string                 `json:"admin_note,omitempty" firestore:"adminNote,omitempty"`

	ReturnID string `json:"return_id,omitempty" firestore:"returnId,omitempty"`

	ProcessedBy string     `json:"processed_by,omitempty" firestore:"processedBy,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" firestore:"processedAt,omitempty"`
	CreatedAt   time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time  `json:"updated_at" firestore:"updatedAt"`
}

// IsActive reports whether the complaint still blocks completion and review
// of its purchase.
func (c *Complaint) IsActive() bool {
	return status.IsComplaintActive(c.Status)
}

// Return is a structured remedy request nested under a complaint, scoped to a
// single line item of the complaint's purchase. Evidence is mandatory.
type Return struct {
	ID          string              `json:"id" firestore:"id"`
	ComplaintID string              `json:"complaint_id" firestore:"complaintId"`
	PurchaseID  string              `json:"purchase_id" firestore:"purchaseId"`
	LineItemID  string              `json:"line_item_id" firestore:"lineItemId"`
	Status      status.ReturnStatus `json:"status" firestore:"status"`
	Reason      string              `json:"reason" firestore:"reason"`
	Description string              `json:"description" firestore:"description"`
	Evidence    string              `json:"evidence" firestore:"evidence"`

	ProcessedBy string     `json:"processed_by,omitempty" firestore:"processedBy,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" firestore:"processedAt,omitempty"`
	CreatedAt   time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time  `json:"updated_at" firestore:"updatedAt"`
}
