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

type complaintFixture struct {
	uc        *ComplaintUseCase
	disputes  *memComplaintRepo
	purchases *memPurchaseRepo
	users     *memUserRepo
}

func newComplaintFixture(t *testing.T) *complaintFixture {
	t.Helper()
	f := &complaintFixture{
		disputes:  newMemComplaintRepo(),
		purchases: newMemPurchaseRepo(),
		users:     newMemUserRepo(),
	}
	f.uc = NewComplaintUseCase(f.disputes, f.purchases, f.users)

	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, &entity.User{ID: "buyer-1", Username: "budi", Role: "buyer"}))
	require.NoError(t, f.users.Create(ctx, &entity.User{ID: "seller-1", Username: "sari", Role: "seller"}))
	require.NoError(t, f.users.Create(ctx, &entity.User{ID: "admin-1", Username: "ops", Role: "admin"}))
	return f
}

func (f *complaintFixture) seedPurchase(t *testing.T, st status.PurchaseStatus) *entity.Purchase {
	t.Helper()
	purchase := &entity.Purchase{
		ID: "pur-1", BuyerID: "buyer-1", SellerID: "seller-1", Status: st,
		Items: []entity.LineItem{
			{ID: "item-1", ProductID: "prod-1", Title: "Akun A", UnitPrice: 100000, Quantity: 1},
			{ID: "item-2", ProductID: "prod-2", Title: "Akun B", UnitPrice: 50000, Quantity: 1},
		},
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, f.purchases.Create(context.Background(), purchase))
	return purchase
}

func (f *complaintFixture) openComplaint(t *testing.T) *entity.Complaint {
	t.Helper()
	complaint, err := f.uc.OpenComplaint(context.Background(), "buyer-1", OpenComplaintInput{
		PurchaseID: "pur-1", Reason: "item not as described", Body: "account level is wrong",
	})
	require.NoError(t, err)
	return complaint
}

func TestOpenComplaintOnDeliveredPurchase(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseDelivered)

	complaint := f.openComplaint(t)
	assert.Equal(t, status.ComplaintOpen, complaint.Status)

	// The purchase links back to its complaint.
	purchase, err := f.purchases.GetByID(context.Background(), "pur-1")
	require.NoError(t, err)
	assert.Equal(t, complaint.ID, purchase.ComplaintID)
}

func TestOpenComplaintRequiresDeliveredState(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseShipped)

	_, err := f.uc.OpenComplaint(context.Background(), "buyer-1", OpenComplaintInput{
		PurchaseID: "pur-1", Reason: "never arrived",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INVALID_STATE"))
}

func TestOpenComplaintOnlyOneActivePerPurchase(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseDelivered)
	f.openComplaint(t)

	_, err := f.uc.OpenComplaint(context.Background(), "buyer-1", OpenComplaintInput{
		PurchaseID: "pur-1", Reason: "second complaint",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INVALID_STATE"))
}

func TestOpenComplaintAllowedAfterPreviousResolved(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseDelivered)
	first := f.openComplaint(t)

	_, err := f.uc.ProcessComplaint(context.Background(), "admin-1", first.ID, "looking into it")
	require.NoError(t, err)
	_, err = f.uc.ResolveComplaint(context.Background(), "admin-1", first.ID, true, "replacement sent")
	require.NoError(t, err)

	second, err := f.uc.OpenComplaint(context.Background(), "buyer-1", OpenComplaintInput{
		PurchaseID: "pur-1", Reason: "replacement also broken",
	})
	require.NoError(t, err)
	assert.Equal(t, status.ComplaintOpen, second.Status)
}

func TestRequestReturnRequiresEvidence(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseDelivered)
	complaint := f.openComplaint(t)

	_, err := f.uc.RequestReturn(context.Background(), "buyer-1", RequestReturnInput{
		ComplaintID: complaint.ID, LineItemID: "item-1", Reason: "broken",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"), "missing evidence must fail loudly")
}

func TestRequestReturnScopedToPurchaseLineItem(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseDelivered)
	complaint := f.openComplaint(t)

	_, err := f.uc.RequestReturn(context.Background(), "buyer-1", RequestReturnInput{
		ComplaintID: complaint.ID, LineItemID: "item-elsewhere", Reason: "broken",
		Evidence: "https://storage.example/evidence.jpg",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INVALID_STATE"))

	ret, err := f.uc.RequestReturn(context.Background(), "buyer-1", RequestReturnInput{
		ComplaintID: complaint.ID, LineItemID: "item-2", Reason: "broken",
		Evidence: "https://storage.example/evidence.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, status.ReturnPending, ret.Status)
	assert.Equal(t, "item-2", ret.LineItemID)

	// The complaint links to its return.
	kept, err := f.disputes.GetByID(context.Background(), complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, ret.ID, kept.ReturnID)
}

func TestRequestReturnRejectedOnResolvedComplaint(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseDelivered)
	complaint := f.openComplaint(t)

	_, err := f.uc.ProcessComplaint(context.Background(), "admin-1", complaint.ID, "")
	require.NoError(t, err)
	_, err = f.uc.ResolveComplaint(context.Background(), "admin-1", complaint.ID, false, "no grounds")
	require.NoError(t, err)

	_, err = f.uc.RequestReturn(context.Background(), "buyer-1", RequestReturnInput{
		ComplaintID: complaint.ID, LineItemID: "item-1", Reason: "broken",
		Evidence: "https://storage.example/evidence.jpg",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INVALID_STATE"))
}

func TestComplaintAdminWorkflow(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseDelivered)
	complaint := f.openComplaint(t)

	// Non-admin cannot process.
	_, err := f.uc.ProcessComplaint(context.Background(), "seller-1", complaint.ID, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	processing, err := f.uc.ProcessComplaint(context.Background(), "admin-1", complaint.ID, "checking")
	require.NoError(t, err)
	assert.Equal(t, status.ComplaintProcessing, processing.Status)
	assert.Equal(t, "admin-1", processing.ProcessedBy)

	// Resolving twice is an illegal edge.
	resolved, err := f.uc.ResolveComplaint(context.Background(), "admin-1", complaint.ID, true, "refunded")
	require.NoError(t, err)
	assert.Equal(t, status.ComplaintResolved, resolved.Status)

	_, err = f.uc.ResolveComplaint(context.Background(), "admin-1", complaint.ID, false, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "TRANSITION_REJECTED"))
}

func TestProcessReturnWalksTheMachine(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseDelivered)
	complaint := f.openComplaint(t)
	ret, err := f.uc.RequestReturn(context.Background(), "buyer-1", RequestReturnInput{
		ComplaintID: complaint.ID, LineItemID: "item-1", Reason: "broken",
		Evidence: "https://storage.example/evidence.jpg",
	})
	require.NoError(t, err)

	// pending -> completed skips approval and is rejected.
	_, err = f.uc.ProcessReturn(context.Background(), "admin-1", ret.ID, status.ReturnCompleted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "TRANSITION_REJECTED"))

	approved, err := f.uc.ProcessReturn(context.Background(), "admin-1", ret.ID, status.ReturnApproved)
	require.NoError(t, err)
	assert.Equal(t, status.ReturnApproved, approved.Status)

	completed, err := f.uc.ProcessReturn(context.Background(), "admin-1", ret.ID, status.ReturnCompleted)
	require.NoError(t, err)
	assert.Equal(t, status.ReturnCompleted, completed.Status)
}

func TestAvailableActionsGating(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseDelivered)

	actions, err := f.uc.AvailableActions(context.Background(), "buyer-1", "pur-1")
	require.NoError(t, err)
	assert.True(t, actions.CanComplain)
	assert.True(t, actions.CanComplete)
	assert.False(t, actions.CanReturn)
	assert.False(t, actions.CanReview)

	complaint := f.openComplaint(t)

	// An active complaint flips the gates: return becomes available,
	// complete and a second complaint do not.
	actions, err = f.uc.AvailableActions(context.Background(), "buyer-1", "pur-1")
	require.NoError(t, err)
	assert.False(t, actions.CanComplain)
	assert.False(t, actions.CanComplete)
	assert.True(t, actions.CanReturn)

	_, err = f.uc.ProcessComplaint(context.Background(), "admin-1", complaint.ID, "")
	require.NoError(t, err)
	_, err = f.uc.ResolveComplaint(context.Background(), "admin-1", complaint.ID, true, "")
	require.NoError(t, err)

	actions, err = f.uc.AvailableActions(context.Background(), "buyer-1", "pur-1")
	require.NoError(t, err)
	assert.True(t, actions.CanComplete)
	assert.False(t, actions.CanReturn)
}

func TestConcurrentComplaintDecisionAppliesOnce(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseDelivered)
	complaint := f.openComplaint(t)
	_, err := f.uc.ProcessComplaint(context.Background(), "admin-1", complaint.ID, "")
	require.NoError(t, err)

	// Two admins decide the same complaint at the same moment, one resolving
	// and one rejecting. The in-flight slot or the lattice refuses the loser;
	// the stored status is exactly one of the two decisions.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	verdicts := []bool{true, false}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.ResolveComplaint(context.Background(), "admin-1", complaint.ID, verdicts[i], "decision")
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
	assert.Equal(t, 1, failures, "exactly one decision must be refused")

	kept, err := f.disputes.GetByID(context.Background(), complaint.ID)
	require.NoError(t, err)
	assert.Contains(t, []status.ComplaintStatus{status.ComplaintResolved, status.ComplaintRejected}, kept.Status)
}

func TestConcurrentReturnStepIsRefusedWhileInFlight(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseDelivered)
	complaint := f.openComplaint(t)
	ret, err := f.uc.RequestReturn(context.Background(), "buyer-1", RequestReturnInput{
		ComplaintID: complaint.ID, LineItemID: "item-1", Reason: "broken",
		Evidence: "https://storage.example/evidence.jpg",
	})
	require.NoError(t, err)

	// Hold the return's in-flight slot the way a slow admin step would.
	require.NoError(t, f.uc.ops.begin(ret.ID))

	_, err = f.uc.ProcessReturn(context.Background(), "admin-1", ret.ID, status.ReturnApproved)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "OPERATION_IN_PROGRESS"))

	f.uc.ops.end(ret.ID)
	approved, err := f.uc.ProcessReturn(context.Background(), "admin-1", ret.ID, status.ReturnApproved)
	require.NoError(t, err)
	assert.Equal(t, status.ReturnApproved, approved.Status)
}

func TestComplaintVisibility(t *testing.T) {
	f := newComplaintFixture(t)
	f.seedPurchase(t, status.PurchaseDelivered)
	complaint := f.openComplaint(t)
	require.NoError(t, f.users.Create(context.Background(), &entity.User{ID: "stranger-1", Role: "buyer"}))

	for _, uid := range []string{"buyer-1", "seller-1", "admin-1"} {
		_, err := f.uc.GetComplaintByID(context.Background(), uid, complaint.ID)
		assert.NoError(t, err, uid)
	}

	_, err := f.uc.GetComplaintByID(context.Background(), "stranger-1", complaint.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}
