package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasarloka/internal/domain/entity"
	"pasarloka/internal/domain/status"
	"pasarloka/pkg/errors"
)

type orderFixture struct {
	uc        *OrderUseCase
	purchases *memPurchaseRepo
	payments  *memPaymentRepo
	disputes  *memComplaintRepo
	products  *memProductRepo
	users     *memUserRepo
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		purchases: newMemPurchaseRepo(),
		payments:  newMemPaymentRepo(),
		disputes:  newMemComplaintRepo(),
		products:  newMemProductRepo(),
		users:     newMemUserRepo(),
	}
	f.uc = NewOrderUseCase(f.purchases, f.payments, f.disputes, f.products, f.users)

	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, &entity.User{ID: "buyer-1", Username: "budi", Role: "buyer"}))
	require.NoError(t, f.users.Create(ctx, &entity.User{ID: "seller-1", Username: "sari", Role: "seller"}))
	require.NoError(t, f.users.Create(ctx, &entity.User{ID: "admin-1", Username: "ops", Role: "admin"}))
	require.NoError(t, f.users.CreateAddress(ctx, &entity.Address{ID: "addr-1", UserID: "buyer-1", City: "Jakarta"}))
	require.NoError(t, f.products.Create(ctx, &entity.Product{
		ID: "prod-1", SellerID: "seller-1", Title: "Akun Mobile Legends", Price: 150000, Stock: 5, Status: "active",
	}))
	require.NoError(t, f.products.Create(ctx, &entity.Product{
		ID: "prod-2", SellerID: "seller-2", Title: "Akun Genshin", Price: 200000, Stock: 3, Status: "active",
	}))
	return f
}

func (f *orderFixture) seedPurchase(t *testing.T, st status.PurchaseStatus) *entity.Purchase {
	t.Helper()
	purchase := &entity.Purchase{
		ID:       "pur-" + string(st),
		Code:     "PL-20260828-test",
		BuyerID:  "buyer-1",
		SellerID: "seller-1",
		Status:   st,
		Items: []entity.LineItem{{
			ID: "item-1", ProductID: "prod-1", Title: "Akun Mobile Legends", UnitPrice: 150000, Quantity: 1,
		}},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, f.purchases.Create(context.Background(), purchase))
	return purchase
}

func (f *orderFixture) seedPayment(t *testing.T, purchaseID string, st status.PaymentStatus) *entity.Payment {
	t.Helper()
	payment := &entity.Payment{
		ID:         "pay-" + purchaseID,
		PurchaseID: purchaseID,
		Status:     st,
		Subtotal:   150000,
		Total:      150000,
		Deadline:   time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, f.payments.Create(context.Background(), payment))
	return payment
}

func TestCheckoutCreatesAwaitingPaymentPair(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	purchase, payment, err := f.uc.Checkout(ctx, "buyer-1", CheckoutInput{
		Items:       []CheckoutItemInput{{ProductID: "prod-1", Quantity: 2}},
		AddressID:   "addr-1",
		ShippingFee: 10000,
	})
	require.NoError(t, err)

	assert.Equal(t, status.PurchaseAwaitingPayment, purchase.Status)
	assert.Equal(t, status.PurchaseAwaitingPayment, f.purchases.status(purchase.ID))
	assert.NotEmpty(t, purchase.Code)

	assert.Equal(t, status.PaymentWaiting, payment.Status)
	assert.Equal(t, purchase.ID, payment.PurchaseID)
	assert.Equal(t, 300000.0, payment.Subtotal)
	assert.True(t, payment.AmountsConsistent())

	logs, err := f.uc.GetPurchaseLogs(ctx, "buyer-1", purchase.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, status.PurchaseAwaitingPayment, logs[0].Status)
}

func TestCheckoutRejectsMixedSellers(t *testing.T) {
	f := newOrderFixture(t)

	_, _, err := f.uc.Checkout(context.Background(), "buyer-1", CheckoutInput{
		Items: []CheckoutItemInput{
			{ProductID: "prod-1", Quantity: 1},
			{ProductID: "prod-2", Quantity: 1},
		},
		AddressID: "addr-1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestCheckoutRejectsOwnProduct(t *testing.T) {
	f := newOrderFixture(t)

	_, _, err := f.uc.Checkout(context.Background(), "seller-1", CheckoutInput{
		Items:     []CheckoutItemInput{{ProductID: "prod-1", Quantity: 1}},
		AddressID: "addr-1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestRequestTransitionRejectsIllegalEdgeWithoutMutation(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseAwaitingPayment)

	_, err := f.uc.RequestTransition(context.Background(), purchase.ID, status.PurchaseShipped, "seller-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "TRANSITION_REJECTED"))

	// Nothing mutated, no audit entry.
	assert.Equal(t, status.PurchaseAwaitingPayment, f.purchases.status(purchase.ID))
	logs, lerr := f.purchases.ListLogsByPurchaseID(context.Background(), purchase.ID)
	require.NoError(t, lerr)
	assert.Empty(t, logs)
}

func TestRequestTransitionRemoteFailureKeepsLastKnownGood(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchasePaid)
	f.purchases.failUpdates = 1

	_, err := f.uc.RequestTransition(context.Background(), purchase.ID, status.PurchaseProcessing, "seller-1")
	require.Error(t, err)
	assert.Equal(t, status.PurchasePaid, f.purchases.status(purchase.ID))

	// The edge is still legal afterwards, so a retry succeeds.
	updated, err := f.uc.RequestTransition(context.Background(), purchase.ID, status.PurchaseProcessing, "seller-1")
	require.NoError(t, err)
	assert.Equal(t, status.PurchaseProcessing, updated.Status)
	assert.Equal(t, status.PurchaseProcessing, f.purchases.status(purchase.ID))
}

func TestRequestTransitionStampsLifecycleTimestamps(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseShipped)

	updated, err := f.uc.RequestTransition(context.Background(), purchase.ID, status.PurchaseDelivered, "buyer-1")
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveredAt)
	assert.Nil(t, updated.CompletedAt)
}

func TestConcurrentTransitionIsRefused(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchasePaid)

	// Hold the in-flight slot the way a slow transition would.
	require.NoError(t, f.uc.beginOp(purchase.ID))

	_, err := f.uc.RequestTransition(context.Background(), purchase.ID, status.PurchaseProcessing, "seller-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "OPERATION_IN_PROGRESS"))
	assert.Equal(t, status.PurchasePaid, f.purchases.status(purchase.ID))

	// Releasing the slot lets the next request through.
	f.uc.endOp(purchase.ID)
	_, err = f.uc.RequestTransition(context.Background(), purchase.ID, status.PurchaseProcessing, "seller-1")
	require.NoError(t, err)
}

func TestConcurrentRefundAppliesOnce(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchasePaid)
	payment := f.seedPayment(t, purchase.ID, status.PaymentPaid)

	// Two admins click refund at the same moment. The in-flight slot refuses
	// the second attempt, or the lattice refuses it after the first lands;
	// either way exactly one refund is applied.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.RefundPayment(context.Background(), "admin-1", payment.ID, 150000, "item never delivered")
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.True(t, errors.Is(err, "OPERATION_IN_PROGRESS") || errors.Is(err, "TRANSITION_REJECTED"))
		}
	}
	assert.Equal(t, 1, failures, "exactly one refund must be refused")

	stored, err := f.payments.GetByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, status.PaymentRefunded, stored.Status)
	assert.Equal(t, 150000.0, stored.RefundAmount)
}

func TestConcurrentPaymentOpIsRefusedWhileInFlight(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchasePaid)
	payment := f.seedPayment(t, purchase.ID, status.PaymentExpired)

	// Hold the payment's in-flight slot the way a slow refund would.
	require.NoError(t, f.uc.beginOp(payment.ID))

	_, err := f.uc.ReopenPayment(context.Background(), "admin-1", payment.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "OPERATION_IN_PROGRESS"))
	assert.Equal(t, status.PaymentExpired, f.payments.status(payment.ID))

	f.uc.endOp(payment.ID)
	reopened, err := f.uc.ReopenPayment(context.Background(), "admin-1", payment.ID)
	require.NoError(t, err)
	assert.Equal(t, status.PaymentWaiting, reopened.Status)
}

func TestConfirmPaymentAppliesBothSides(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseAwaitingPayment)
	payment := f.seedPayment(t, purchase.ID, status.PaymentWaiting)

	updated, paid, err := f.uc.ConfirmPayment(context.Background(), payment.ID, "gw-abc123", "buyer-1")
	require.NoError(t, err)

	assert.Equal(t, status.PurchasePaid, updated.Status)
	assert.Equal(t, status.PaymentPaid, paid.Status)
	assert.Equal(t, "gw-abc123", paid.GatewayRef)
	require.NotNil(t, paid.PaidAt)

	assert.Equal(t, status.PurchasePaid, f.purchases.status(purchase.ID))
	assert.Equal(t, status.PaymentPaid, f.payments.status(payment.ID))
}

func TestConfirmPaymentRejectsNonWaitingPayment(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseAwaitingPayment)
	payment := f.seedPayment(t, purchase.ID, status.PaymentExpired)

	_, _, err := f.uc.ConfirmPayment(context.Background(), payment.ID, "gw-late", "buyer-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "TRANSITION_REJECTED"))
	assert.Equal(t, status.PaymentExpired, f.payments.status(payment.ID))
	assert.Equal(t, status.PurchaseAwaitingPayment, f.purchases.status(purchase.ID))
}

func TestConfirmPaymentRollsBackWhenPurchaseSideFails(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseAwaitingPayment)
	payment := f.seedPayment(t, purchase.ID, status.PaymentWaiting)
	f.purchases.failUpdates = 1

	_, _, err := f.uc.ConfirmPayment(context.Background(), payment.ID, "gw-fault", "buyer-1")
	require.Error(t, err)

	// Neither side applied: payment rolled back to waiting, purchase
	// untouched, and the pair is retryable.
	assert.Equal(t, status.PaymentWaiting, f.payments.status(payment.ID))
	assert.Equal(t, status.PurchaseAwaitingPayment, f.purchases.status(purchase.ID))
	assert.False(t, f.payments.needsReconcile(payment.ID))

	updated, paid, err := f.uc.ConfirmPayment(context.Background(), payment.ID, "gw-retry", "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, status.PurchasePaid, updated.Status)
	assert.Equal(t, status.PaymentPaid, paid.Status)
}

func TestConfirmPaymentFlagsReconcileWhenRollbackFails(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseAwaitingPayment)
	payment := f.seedPayment(t, purchase.ID, status.PaymentWaiting)

	// First payment update (waiting -> paid) succeeds, the purchase update
	// fails, then the rollback update fails too.
	f.purchases.failUpdates = 1
	f.payments.succeedFirst = 1
	f.payments.failUpdates = 1

	_, _, err := f.uc.ConfirmPayment(context.Background(), payment.ID, "gw-doomed", "buyer-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INTERNAL_ERROR"))

	// The half-applied payment is flagged so reconciliation can pick it up.
	assert.True(t, f.payments.needsReconcile(payment.ID))
	assert.Equal(t, status.PurchaseAwaitingPayment, f.purchases.status(purchase.ID))
}

func TestCompletePurchaseBlockedByActiveComplaint(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseDelivered)
	require.NoError(t, f.disputes.Create(context.Background(), &entity.Complaint{
		ID: "cmp-1", PurchaseID: purchase.ID, BuyerID: "buyer-1", Status: status.ComplaintOpen, Reason: "wrong item",
	}))

	_, err := f.uc.CompletePurchase(context.Background(), "buyer-1", purchase.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INVALID_STATE"))
	assert.Equal(t, status.PurchaseDelivered, f.purchases.status(purchase.ID))
}

func TestCompletePurchaseAfterComplaintResolved(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseDelivered)
	require.NoError(t, f.disputes.Create(context.Background(), &entity.Complaint{
		ID: "cmp-1", PurchaseID: purchase.ID, BuyerID: "buyer-1", Status: status.ComplaintResolved, Reason: "wrong item",
	}))

	updated, err := f.uc.CompletePurchase(context.Background(), "buyer-1", purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, status.PurchaseCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
}

func TestShipPurchaseAttachesShipments(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseProcessing)

	updated, err := f.uc.ShipPurchase(context.Background(), "seller-1", purchase.ID, "JNE", "JNE123456")
	require.NoError(t, err)
	assert.Equal(t, status.PurchaseShipped, updated.Status)
	require.NotNil(t, updated.Items[0].Shipment)
	assert.Equal(t, "JNE", updated.Items[0].Shipment.Courier)
	assert.Equal(t, "JNE123456", updated.Items[0].Shipment.TrackingNumber)
}

func TestShipPurchaseOnlyBySeller(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseProcessing)

	_, err := f.uc.ShipPurchase(context.Background(), "buyer-1", purchase.ID, "JNE", "JNE123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestCancelPurchaseIsSoftMark(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseAwaitingPayment)

	updated, err := f.uc.CancelPurchase(context.Background(), "buyer-1", purchase.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, status.PurchaseCancelled, updated.Status)
	require.NotNil(t, updated.CancelledAt)

	// The record itself survives.
	kept, err := f.purchases.GetByID(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, status.PurchaseCancelled, kept.Status)
}

func TestCancelPurchaseRejectedAfterShipment(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseShipped)

	_, err := f.uc.CancelPurchase(context.Background(), "buyer-1", purchase.ID, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "TRANSITION_REJECTED"))
	assert.Equal(t, status.PurchaseShipped, f.purchases.status(purchase.ID))
}

func TestReopenPaymentIsAdminOnly(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseAwaitingPayment)
	payment := f.seedPayment(t, purchase.ID, status.PaymentExpired)

	_, err := f.uc.ReopenPayment(context.Background(), "buyer-1", payment.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	reopened, err := f.uc.ReopenPayment(context.Background(), "admin-1", payment.ID)
	require.NoError(t, err)
	assert.Equal(t, status.PaymentWaiting, reopened.Status)
	assert.True(t, reopened.Deadline.After(time.Now()))
}

func TestRefundPaymentPopulatesRefundFields(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseCancelled)
	payment := f.seedPayment(t, purchase.ID, status.PaymentPaid)

	refunded, err := f.uc.RefundPayment(context.Background(), "admin-1", payment.ID, 150000, "order cancelled")
	require.NoError(t, err)
	assert.Equal(t, status.PaymentRefunded, refunded.Status)
	assert.Equal(t, 150000.0, refunded.RefundAmount)
	assert.Equal(t, "admin-1", refunded.RefundedBy)
	require.NotNil(t, refunded.RefundedAt)
}

func TestRefundPaymentRejectsWaitingPayment(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchaseAwaitingPayment)
	payment := f.seedPayment(t, purchase.ID, status.PaymentWaiting)

	_, err := f.uc.RefundPayment(context.Background(), "admin-1", payment.ID, 150000, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "TRANSITION_REJECTED"))
}

func TestGetPurchaseByIDEnforcesVisibility(t *testing.T) {
	f := newOrderFixture(t)
	purchase := f.seedPurchase(t, status.PurchasePaid)
	require.NoError(t, f.users.Create(context.Background(), &entity.User{ID: "stranger-1", Role: "buyer"}))

	_, err := f.uc.GetPurchaseByID(context.Background(), "stranger-1", purchase.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	// Buyer, seller and admin all see it.
	for _, uid := range []string{"buyer-1", "seller-1", "admin-1"} {
		_, err := f.uc.GetPurchaseByID(context.Background(), uid, purchase.ID)
		assert.NoError(t, err, uid)
	}
}

func TestListAllPurchasesIsAdminOnly(t *testing.T) {
	f := newOrderFixture(t)
	f.seedPurchase(t, status.PurchasePaid)
	f.seedPurchase(t, status.PurchaseShipped)

	purchases, total, err := f.uc.ListAllPurchases(context.Background(), "admin-1", "", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, purchases, 2)

	_, _, err = f.uc.ListAllPurchases(context.Background(), "buyer-1", "", 20, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}
