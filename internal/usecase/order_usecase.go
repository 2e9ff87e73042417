package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pasarloka/internal/domain/entity"
	"pasarloka/internal/domain/repository"
	"pasarloka/internal/domain/status"
	"pasarloka/pkg/errors"
	"pasarloka/pkg/logger"
)

type FeeCalculator interface {
	CalculateFee(amount float64, paymentMethod string) float64
}

type defaultFeeCalculator struct{}

func (fc *defaultFeeCalculator) CalculateFee(amount float64, paymentMethod string) float64 {
	return amount * 0.025
}

// OrderUseCase is the single authority for deciding whether a requested
// purchase/payment status change is legal, and for composing the side effects
// that must accompany it. It never leaves a coordinated payment+purchase pair
// observably inconsistent: callers see either "both applied" or "neither
// applied, retry".
type OrderUseCase struct {
	purchaseRepo  repository.PurchaseRepository
	paymentRepo   repository.PaymentRepository
	complaintRepo repository.ComplaintRepository
	productRepo   repository.ProductRepository
	userRepo      repository.UserRepository
	feeCalculator FeeCalculator

	// One outstanding transition per entity, purchases and payments alike.
	ops *inflightGuard
}

func NewOrderUseCase(
	purchaseRepo repository.PurchaseRepository,
	paymentRepo repository.PaymentRepository,
	complaintRepo repository.ComplaintRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
) *OrderUseCase {
	return &OrderUseCase{
		purchaseRepo:  purchaseRepo,
		paymentRepo:   paymentRepo,
		complaintRepo: complaintRepo,
		productRepo:   productRepo,
		userRepo:      userRepo,
		feeCalculator: &defaultFeeCalculator{},
		ops:           newInflightGuard(),
	}
}

func (uc *OrderUseCase) beginOp(entityID string) error {
	return uc.ops.begin(entityID)
}

func (uc *OrderUseCase) endOp(entityID string) {
	uc.ops.end(entityID)
}

type CheckoutItemInput struct {
	ProductID string
	Quantity  int
}

type CheckoutInput struct {
	Items       []CheckoutItemInput
	AddressID   string
	ShippingFee float64
	Note        string
}

// Checkout creates the purchase in draft with its payment in waiting, then
// moves the purchase to awaiting_payment. Purchases are never deleted after
// this point; cancellation is a soft mark.
func (uc *OrderUseCase) Checkout(ctx context.Context, buyerID string, input CheckoutInput) (*entity.Purchase, *entity.Payment, error) {
	if len(input.Items) == 0 {
		return nil, nil, errors.BadRequest("Checkout requires at least one item", nil)
	}
	if input.AddressID == "" {
		return nil, nil, errors.BadRequest("Shipping address is required", nil)
	}
	if _, err := uc.userRepo.GetAddressByID(ctx, input.AddressID); err != nil {
		return nil, nil, errors.NotFound("Shipping address", err)
	}

	var (
		items    []entity.LineItem
		subtotal float64
		sellerID string
	)
	for _, in := range input.Items {
		product, err := uc.productRepo.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, nil, errors.NotFound("Product", err)
		}
		if product.SellerID == buyerID {
			return nil, nil, errors.BadRequest("Cannot buy your own product", nil)
		}
		if product.Status != "active" {
			return nil, nil, errors.BadRequest("Product is not available", nil)
		}
		qty := in.Quantity
		if qty <= 0 {
			qty = 1
		}
		if product.Stock < qty {
			return nil, nil, errors.BadRequest("Insufficient stock for "+product.Title, nil)
		}
		if sellerID == "" {
			sellerID = product.SellerID
		} else if sellerID != product.SellerID {
			return nil, nil, errors.BadRequest("All items in one purchase must belong to the same seller", nil)
		}
		items = append(items, entity.LineItem{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			Title:     product.Title,
			UnitPrice: product.Price,
			Quantity:  qty,
		})
		subtotal += product.Price * float64(qty)
	}

	now := time.Now()
	purchase := &entity.Purchase{
		Code:      generatePurchaseCode(now),
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Status:    status.PurchaseDraft,
		AddressID: input.AddressID,
		BuyerNote: input.Note,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.purchaseRepo.Create(ctx, purchase); err != nil {
		return nil, nil, err
	}

	platformFee := uc.feeCalculator.CalculateFee(subtotal, "")
	payment := &entity.Payment{
		PurchaseID:  purchase.ID,
		Status:      status.PaymentWaiting,
		Subtotal:    subtotal,
		ShippingFee: input.ShippingFee,
		PlatformFee: platformFee,
		Total:       subtotal + input.ShippingFee + platformFee,
		Deadline:    now.Add(24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !payment.AmountsConsistent() {
		return nil, nil, errors.Internal("Payment amount breakdown does not add up", nil)
	}
	if err := uc.paymentRepo.Create(ctx, payment); err != nil {
		return nil, nil, err
	}

	purchase.Status = status.PurchaseAwaitingPayment
	purchase.UpdatedAt = time.Now()
	if err := uc.purchaseRepo.Update(ctx, purchase); err != nil {
		return nil, nil, err
	}
	uc.logTransition(ctx, purchase.ID, purchase.Status, "Checkout created", buyerID)

	return purchase, payment, nil
}

// RequestTransition validates that target is a lattice-legal successor of the
// purchase's current status, asks the system of record to apply it, and only
// then updates the local entity. On a rejected edge nothing is mutated.
func (uc *OrderUseCase) RequestTransition(ctx context.Context, purchaseID string, target status.PurchaseStatus, actorID string) (*entity.Purchase, error) {
	if err := uc.beginOp(purchaseID); err != nil {
		return nil, err
	}
	defer uc.endOp(purchaseID)

	return uc.applyTransition(ctx, purchaseID, target, actorID, "")
}

func (uc *OrderUseCase) applyTransition(ctx context.Context, purchaseID string, target status.PurchaseStatus, actorID, note string) (*entity.Purchase, error) {
	purchase, err := uc.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	next, err := status.PurchaseTransition(purchase.Status, target)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	purchase.Status = next
	purchase.UpdatedAt = now
	switch next {
	case status.PurchasePaid:
		purchase.PaidAt = &now
	case status.PurchaseShipped:
		purchase.ShippedAt = &now
	case status.PurchaseDelivered:
		purchase.DeliveredAt = &now
	case status.PurchaseCompleted:
		purchase.CompletedAt = &now
	case status.PurchaseCancelled:
		purchase.CancelledAt = &now
	}

	if err := uc.purchaseRepo.Update(ctx, purchase); err != nil {
		// Remote apply failed: the local projection stays at its
		// last-known-good state and the actor may retry.
		return nil, err
	}

	if note == "" {
		note = fmt.Sprintf("Status changed to %s", next)
	}
	uc.logTransition(ctx, purchase.ID, next, note, actorID)

	return purchase, nil
}

// ConfirmDelivery is sugar for the buyer's shipped -> delivered transition.
func (uc *OrderUseCase) ConfirmDelivery(ctx context.Context, buyerID, purchaseID string) (*entity.Purchase, error) {
	if err := uc.beginOp(purchaseID); err != nil {
		return nil, err
	}
	defer uc.endOp(purchaseID)

	purchase, err := uc.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.BuyerID != buyerID {
		return nil, errors.Forbidden("Only the buyer can confirm delivery", nil)
	}

	return uc.applyTransition(ctx, purchaseID, status.PurchaseDelivered, buyerID, "Delivery confirmed by buyer")
}

// CompletePurchase moves delivered -> completed. Completion and an active
// complaint are mutually exclusive: a purchase under dispute cannot complete.
func (uc *OrderUseCase) CompletePurchase(ctx context.Context, buyerID, purchaseID string) (*entity.Purchase, error) {
	if err := uc.beginOp(purchaseID); err != nil {
		return nil, err
	}
	defer uc.endOp(purchaseID)

	purchase, err := uc.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.BuyerID != buyerID {
		return nil, errors.Forbidden("Only the buyer can complete the purchase", nil)
	}
	if purchase.Status != status.PurchaseDelivered {
		return nil, errors.InvalidState("Purchase can only be completed after delivery")
	}

	complaint, err := uc.complaintRepo.GetActiveByPurchaseID(ctx, purchaseID)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}
	if complaint != nil && complaint.IsActive() {
		return nil, errors.InvalidState("Purchase cannot be completed while a complaint is active")
	}

	return uc.applyTransition(ctx, purchaseID, status.PurchaseCompleted, buyerID, "Purchase completed by buyer")
}

// ShipPurchase moves processing -> shipped and attaches shipment records to
// every line item. Shipments only exist from this point on.
func (uc *OrderUseCase) ShipPurchase(ctx context.Context, sellerID, purchaseID, courier, trackingNumber string) (*entity.Purchase, error) {
	if err := uc.beginOp(purchaseID); err != nil {
		return nil, err
	}
	defer uc.endOp(purchaseID)

	purchase, err := uc.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.SellerID != sellerID {
		return nil, errors.Forbidden("Only the seller can ship this purchase", nil)
	}
	if courier == "" || trackingNumber == "" {
		return nil, errors.BadRequest("Courier and tracking number are required", nil)
	}

	if _, err := status.PurchaseTransition(purchase.Status, status.PurchaseShipped); err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range purchase.Items {
		purchase.Items[i].Shipment = &entity.Shipment{
			Courier:        courier,
			TrackingNumber: trackingNumber,
			ShippedAt:      now,
		}
	}
	purchase.Status = status.PurchaseShipped
	purchase.ShippedAt = &now
	purchase.UpdatedAt = now

	if err := uc.purchaseRepo.Update(ctx, purchase); err != nil {
		return nil, err
	}
	uc.logTransition(ctx, purchase.ID, status.PurchaseShipped, "Shipped via "+courier, sellerID)

	return purchase, nil
}

// CancelPurchase soft-marks the purchase as cancelled when the lattice allows
// it from the current status. The record itself is never deleted.
func (uc *OrderUseCase) CancelPurchase(ctx context.Context, actorID, purchaseID, reason string) (*entity.Purchase, error) {
	if err := uc.beginOp(purchaseID); err != nil {
		return nil, err
	}
	defer uc.endOp(purchaseID)

	purchase, err := uc.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	actor, err := uc.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, errors.NotFound("Actor", err)
	}
	if purchase.BuyerID != actorID && purchase.SellerID != actorID && actor.Role != "admin" {
		return nil, errors.Forbidden("You don't have permission to cancel this purchase", nil)
	}

	note := "Purchase cancelled"
	if reason != "" {
		note += ": " + reason
	}
	return uc.applyTransition(ctx, purchaseID, status.PurchaseCancelled, actorID, note)
}

// ConfirmPayment applies the gateway's waiting -> paid result to the payment
// and the awaiting_payment -> paid transition of its purchase as one logical
// unit. The payment side is applied first; if the purchase side then fails,
// the payment is rolled back, and if the rollback itself fails the payment is
// flagged for reconciliation. Either way the caller gets an error rather than
// a silently half-applied pair.
func (uc *OrderUseCase) ConfirmPayment(ctx context.Context, paymentID, gatewayRef, actorID string) (*entity.Purchase, *entity.Payment, error) {
	if err := uc.beginOp(paymentID); err != nil {
		return nil, nil, err
	}
	defer uc.endOp(paymentID)

	payment, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}

	if err := uc.beginOp(payment.PurchaseID); err != nil {
		return nil, nil, err
	}
	defer uc.endOp(payment.PurchaseID)

	if _, err := status.PaymentTransition(payment.Status, status.PaymentPaid); err != nil {
		return nil, nil, err
	}

	// Verify the purchase side is representable before touching anything.
	purchase, err := uc.purchaseRepo.GetByID(ctx, payment.PurchaseID)
	if err != nil {
		return nil, nil, err
	}
	if !status.CanPurchaseTransition(purchase.Status, status.PurchasePaid) {
		return nil, nil, errors.TransitionRejected("purchase", string(purchase.Status), string(status.PurchasePaid))
	}

	now := time.Now()
	payment.Status = status.PaymentPaid
	payment.GatewayRef = gatewayRef
	payment.PaidAt = &now
	payment.UpdatedAt = now
	if err := uc.paymentRepo.Update(ctx, payment); err != nil {
		return nil, nil, err
	}

	updated, err := uc.applyTransition(ctx, purchase.ID, status.PurchasePaid, actorID, "Payment confirmed: "+gatewayRef)
	if err != nil {
		// A paid payment with a non-paid purchase violates the invariant:
		// undo the payment side so the caller can retry the whole unit.
		payment.Status = status.PaymentWaiting
		payment.PaidAt = nil
		payment.UpdatedAt = time.Now()
		if rbErr := uc.paymentRepo.Update(ctx, payment); rbErr != nil {
			payment.NeedsReconcile = true
			if flagErr := uc.paymentRepo.Update(ctx, payment); flagErr != nil {
				logger.Error("Payment %s left inconsistent after failed rollback: %v", payment.ID, flagErr)
			}
			return nil, nil, errors.Internal("Payment applied but purchase update failed; payment flagged for reconciliation", err)
		}
		return nil, nil, errors.Internal("Payment confirmation could not be applied; retry", err)
	}

	return updated, payment, nil
}

// ReopenPayment is the administrative expired/failed -> waiting re-open.
func (uc *OrderUseCase) ReopenPayment(ctx context.Context, adminID, paymentID string) (*entity.Payment, error) {
	if err := uc.beginOp(paymentID); err != nil {
		return nil, err
	}
	defer uc.endOp(paymentID)

	admin, err := uc.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, errors.NotFound("Admin user", err)
	}
	if admin.Role != "admin" {
		return nil, errors.Forbidden("Only admin can re-open a payment", nil)
	}

	payment, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	next, err := status.PaymentTransition(payment.Status, status.PaymentWaiting)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	payment.Status = next
	payment.Deadline = now.Add(24 * time.Hour)
	payment.UpdatedAt = now
	if err := uc.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

// RefundPayment moves paid -> refunded and populates the refund fields, which
// exist on a payment if and only if it is refunded.
func (uc *OrderUseCase) RefundPayment(ctx context.Context, adminID, paymentID string, amount float64, reason string) (*entity.Payment, error) {
	if err := uc.beginOp(paymentID); err != nil {
		return nil, err
	}
	defer uc.endOp(paymentID)

	admin, err := uc.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, errors.NotFound("Admin user", err)
	}
	if admin.Role != "admin" {
		return nil, errors.Forbidden("Only admin can refund a payment", nil)
	}

	payment, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	next, err := status.PaymentTransition(payment.Status, status.PaymentRefunded)
	if err != nil {
		return nil, err
	}
	if amount <= 0 || amount > payment.Total {
		return nil, errors.BadRequest("Refund amount must be positive and at most the payment total", nil)
	}

	now := time.Now()
	payment.Status = next
	payment.RefundAmount = amount
	payment.RefundReason = reason
	payment.RefundedAt = &now
	payment.RefundedBy = adminID
	payment.UpdatedAt = now
	if err := uc.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

func (uc *OrderUseCase) GetPurchaseByID(ctx context.Context, userID, purchaseID string) (*entity.Purchase, error) {
	purchase, err := uc.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if purchase.BuyerID != userID && purchase.SellerID != userID {
		user, err := uc.userRepo.GetByID(ctx, userID)
		if err != nil || user.Role != "admin" {
			return nil, errors.Forbidden("You don't have permission to view this purchase", nil)
		}
	}

	return purchase, nil
}

func (uc *OrderUseCase) ListPurchases(ctx context.Context, userID, role string, st status.PurchaseStatus, limit, offset int) ([]*entity.Purchase, int64, error) {
	if role != "buyer" && role != "seller" {
		role = "buyer"
	}
	return uc.purchaseRepo.ListByUserID(ctx, userID, role, st, limit, offset)
}

// ListAllPurchases is the admin view across every buyer and seller.
func (uc *OrderUseCase) ListAllPurchases(ctx context.Context, adminID string, st status.PurchaseStatus, limit, offset int) ([]*entity.Purchase, int64, error) {
	admin, err := uc.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, 0, errors.NotFound("Admin user", err)
	}
	if admin.Role != "admin" {
		return nil, 0, errors.Forbidden("Only admin can list all purchases", nil)
	}

	filter := map[string]interface{}{}
	if st != "" {
		filter["status"] = string(st)
	}
	return uc.purchaseRepo.List(ctx, filter, limit, offset)
}

func (uc *OrderUseCase) GetPurchaseLogs(ctx context.Context, userID, purchaseID string) ([]*entity.PurchaseLog, error) {
	if _, err := uc.GetPurchaseByID(ctx, userID, purchaseID); err != nil {
		return nil, err
	}

	logs, err := uc.purchaseRepo.ListLogsByPurchaseID(ctx, purchaseID)
	if err != nil {
		return nil, errors.Internal("Failed to get purchase logs", err)
	}
	return logs, nil
}

// SetAdminNote mutates the admin-only note on a purchase.
func (uc *OrderUseCase) SetAdminNote(ctx context.Context, adminID, purchaseID, note string) (*entity.Purchase, error) {
	admin, err := uc.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, errors.NotFound("Admin user", err)
	}
	if admin.Role != "admin" {
		return nil, errors.Forbidden("Only admin can edit the admin note", nil)
	}

	purchase, err := uc.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	purchase.AdminNote = note
	purchase.UpdatedAt = time.Now()
	if err := uc.purchaseRepo.Update(ctx, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

func (uc *OrderUseCase) logTransition(ctx context.Context, purchaseID string, st status.PurchaseStatus, notes, actorID string) {
	log := &entity.PurchaseLog{
		PurchaseID: purchaseID,
		Status:     st,
		Notes:      notes,
		CreatedBy:  actorID,
		CreatedAt:  time.Now(),
	}
	if err := uc.purchaseRepo.CreateLog(ctx, log); err != nil {
		logger.LogPurchaseError(purchaseID, string(st), err)
	}
}

func generatePurchaseCode(now time.Time) string {
	return fmt.Sprintf("PL-%s-%s", now.Format("20060102"), uuid.New().String()[:8])
}
