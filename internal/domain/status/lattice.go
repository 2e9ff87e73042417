package status

import "pasarloka/pkg/errors"

// Pure transition tables. No I/O happens here: the lattice only answers
// whether an edge exists, and every rejected edge carries the attempted
// (from, to) pair back to the caller.

var purchaseEdges = map[PurchaseStatus][]PurchaseStatus{
	PurchaseDraft:           {PurchaseAwaitingPayment},
	PurchaseAwaitingPayment: {PurchasePaid, PurchaseCancelled},
	PurchasePaid:            {PurchaseProcessing, PurchaseCancelled},
	PurchaseProcessing:      {PurchaseShipped},
	PurchaseShipped:         {PurchaseDelivered},
	PurchaseDelivered:       {PurchaseCompleted},
	// completed and cancelled are terminal
}

var paymentEdges = map[PaymentStatus][]PaymentStatus{
	PaymentWaiting: {PaymentPaid, PaymentFailed, PaymentExpired},
	PaymentPaid:    {PaymentRefunded},
	// expired and failed may only be re-opened by an administrative actor
	PaymentExpired: {PaymentWaiting},
	PaymentFailed:  {PaymentWaiting},
}

var complaintEdges = map[ComplaintStatus][]ComplaintStatus{
	ComplaintOpen:       {ComplaintProcessing},
	ComplaintProcessing: {ComplaintResolved, ComplaintRejected},
}

var returnEdges = map[ReturnStatus][]ReturnStatus{
	ReturnPending:  {ReturnApproved, ReturnRejected},
	ReturnApproved: {ReturnCompleted},
}

var offerEdges = map[OfferStatus][]OfferStatus{
	OfferPending: {OfferAccepted, OfferRejected},
}

func contains[S ~string](edges []S, to S) bool {
	for _, s := range edges {
		if s == to {
			return true
		}
	}
	return false
}

// CanPurchaseTransition reports whether from -> to is a lattice edge.
func CanPurchaseTransition(from, to PurchaseStatus) bool {
	return contains(purchaseEdges[from], to)
}

func CanPaymentTransition(from, to PaymentStatus) bool {
	return contains(paymentEdges[from], to)
}

func CanComplaintTransition(from, to ComplaintStatus) bool {
	return contains(complaintEdges[from], to)
}

func CanReturnTransition(from, to ReturnStatus) bool {
	return contains(returnEdges[from], to)
}

func CanOfferTransition(from, to OfferStatus) bool {
	return contains(offerEdges[from], to)
}

// PurchaseTransition validates the edge and returns the target status, or a
// TRANSITION_REJECTED error naming the attempted pair.
func PurchaseTransition(from, to PurchaseStatus) (PurchaseStatus, error) {
	if !CanPurchaseTransition(from, to) {
		return from, errors.TransitionRejected("purchase", string(from), string(to))
	}
	return to, nil
}

func PaymentTransition(from, to PaymentStatus) (PaymentStatus, error) {
	if !CanPaymentTransition(from, to) {
		return from, errors.TransitionRejected("payment", string(from), string(to))
	}
	return to, nil
}

func ComplaintTransition(from, to ComplaintStatus) (ComplaintStatus, error) {
	if !CanComplaintTransition(from, to) {
		return from, errors.TransitionRejected("complaint", string(from), string(to))
	}
	return to, nil
}

func ReturnTransition(from, to ReturnStatus) (ReturnStatus, error) {
	if !CanReturnTransition(from, to) {
		return from, errors.TransitionRejected("return", string(from), string(to))
	}
	return to, nil
}

func OfferTransition(from, to OfferStatus) (OfferStatus, error) {
	if !CanOfferTransition(from, to) {
		return from, errors.TransitionRejected("offer", string(from), string(to))
	}
	return to, nil
}

// IsPurchaseTerminal reports whether a purchase status has no outgoing edges.
func IsPurchaseTerminal(s PurchaseStatus) bool {
	return len(purchaseEdges[s]) == 0
}

func IsPaymentTerminal(s PaymentStatus) bool {
	return len(paymentEdges[s]) == 0
}

// IsComplaintActive reports whether a complaint still blocks completion and
// review of its purchase.
func IsComplaintActive(s ComplaintStatus) bool {
	return s == ComplaintOpen || s == ComplaintProcessing
}

// PurchaseStatuses returns every defined purchase status, in lifecycle order.
func PurchaseStatuses() []PurchaseStatus {
	return []PurchaseStatus{
		PurchaseDraft,
		PurchaseAwaitingPayment,
		PurchasePaid,
		PurchaseProcessing,
		PurchaseShipped,
		PurchaseDelivered,
		PurchaseCompleted,
		PurchaseCancelled,
	}
}

func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{
		PaymentWaiting,
		PaymentPaid,
		PaymentFailed,
		PaymentExpired,
		PaymentRefunded,
	}
}
