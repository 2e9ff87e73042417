package status

// Closed status enumerations for every lifecycle entity. Raw strings never
// cross the lattice: callers compare and transition through these types only.

type PurchaseStatus string

const (
	PurchaseDraft           PurchaseStatus = "draft"
	PurchaseAwaitingPayment PurchaseStatus = "awaiting_payment"
	PurchasePaid            PurchaseStatus = "paid"
	PurchaseProcessing      PurchaseStatus = "processing"
	PurchaseShipped         PurchaseStatus = "shipped"
	PurchaseDelivered       PurchaseStatus = "delivered"
	PurchaseCompleted       PurchaseStatus = "completed"
	PurchaseCancelled       PurchaseStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentWaiting  PaymentStatus = "waiting"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentExpired  PaymentStatus = "expired"
	PaymentRefunded PaymentStatus = "refunded"
)

type ComplaintStatus string

const (
	ComplaintOpen       ComplaintStatus = "open"
	ComplaintProcessing ComplaintStatus = "processing"
	ComplaintResolved   ComplaintStatus = "resolved"
	ComplaintRejected   ComplaintStatus = "rejected"
)

type ReturnStatus string

const (
	ReturnPending   ReturnStatus = "pending"
	ReturnApproved  ReturnStatus = "approved"
	ReturnRejected  ReturnStatus = "rejected"
	ReturnCompleted ReturnStatus = "completed"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)
