package usecase

import (
	"context"
	"time"

	"pasarloka/internal/domain/entity"
	"pasarloka/internal/domain/repository"
	"pasarloka/internal/domain/status"
	"pasarloka/pkg/errors"
	"pasarloka/pkg/logger"
)

// ComplaintUseCase owns the post-delivery dispute sub-lifecycle and the
// gating of buyer actions while a dispute is active.
type ComplaintUseCase struct {
	complaintRepo repository.ComplaintRepository
	purchaseRepo  repository.PurchaseRepository
	userRepo      repository.UserRepository

	// One outstanding decision per complaint or return at a time.
	ops *inflightGuard
}

func NewComplaintUseCase(
	complaintRepo repository.ComplaintRepository,
	purchaseRepo repository.PurchaseRepository,
	userRepo repository.UserRepository,
) *ComplaintUseCase {
	return &ComplaintUseCase{
		complaintRepo: complaintRepo,
		purchaseRepo:  purchaseRepo,
		userRepo:      userRepo,
		ops:           newInflightGuard(),
	}
}

type OpenComplaintInput struct {
	PurchaseID string
	Reason     string
	Body       string
	Evidence   string
}

type RequestReturnInput struct {
	ComplaintID string
	LineItemID  string
	Reason      string
	Description string
	Evidence    string
}

// OpenComplaint creates a dispute against a delivered purchase. A purchase
// holds at most one active complaint at a time.
func (uc *ComplaintUseCase) OpenComplaint(ctx context.Context, buyerID string, input OpenComplaintInput) (*entity.Complaint, error) {
	purchase, err := uc.purchaseRepo.GetByID(ctx, input.PurchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.BuyerID != buyerID {
		return nil, errors.Forbidden("Only the buyer can open a complaint", nil)
	}
	if purchase.Status != status.PurchaseDelivered {
		return nil, errors.InvalidState("Complaints can only be opened on delivered purchases")
	}

	existing, err := uc.complaintRepo.GetActiveByPurchaseID(ctx, input.PurchaseID)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}
	if existing != nil && existing.IsActive() {
		return nil, errors.InvalidState("An active complaint already exists for this purchase")
	}

	if input.Reason == "" {
		return nil, errors.BadRequest("Complaint reason is required", nil)
	}

	now := time.Now()
	complaint := &entity.Complaint{
		PurchaseID: input.PurchaseID,
		BuyerID:    buyerID,
		Status:     status.ComplaintOpen,
		Reason:     input.Reason,
		Body:       input.Body,
		Evidence:   input.Evidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.complaintRepo.Create(ctx, complaint); err != nil {
		return nil, err
	}

	purchase.ComplaintID = complaint.ID
	purchase.UpdatedAt = now
	if err := uc.purchaseRepo.Update(ctx, purchase); err != nil {
		logger.Error("Failed to link complaint %s to purchase %s: %v", complaint.ID, purchase.ID, err)
	}

	return complaint, nil
}

// RequestReturn creates a remedy request under an open or processing
// complaint, scoped to one line item of the complaint's purchase. Evidence is
// mandatory: an empty locator is a validation failure, never a silent no-op.
func (uc *ComplaintUseCase) RequestReturn(ctx context.Context, buyerID string, input RequestReturnInput) (*entity.Return, error) {
	complaint, err := uc.complaintRepo.GetByID(ctx, input.ComplaintID)
	if err != nil {
		return nil, err
	}
	if complaint.BuyerID != buyerID {
		return nil, errors.Forbidden("Only the complaint owner can request a return", nil)
	}
	if !complaint.IsActive() {
		return nil, errors.InvalidState("Returns can only be requested while the complaint is open or processing")
	}
	if input.Evidence == "" {
		return nil, errors.BadRequest("Return evidence image is required", nil)
	}

	purchase, err := uc.purchaseRepo.GetByID(ctx, complaint.PurchaseID)
	if err != nil {
		return nil, err
	}
	var found bool
	for _, item := range purchase.Items {
		if item.ID == input.LineItemID {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.InvalidState("Line item does not belong to the complaint's purchase")
	}

	now := time.Now()
	ret := &entity.Return{
		ComplaintID: complaint.ID,
		PurchaseID:  complaint.PurchaseID,
		LineItemID:  input.LineItemID,
		Status:      status.ReturnPending,
		Reason:      input.Reason,
		Description: input.Description,
		Evidence:    input.Evidence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.complaintRepo.CreateReturn(ctx, ret); err != nil {
		return nil, err
	}

	complaint.ReturnID = ret.ID
	complaint.UpdatedAt = now
	if err := uc.complaintRepo.Update(ctx, complaint); err != nil {
		logger.Error("Failed to link return %s to complaint %s: %v", ret.ID, complaint.ID, err)
	}

	return ret, nil
}

// ProcessComplaint is the admin's open -> processing step.
func (uc *ComplaintUseCase) ProcessComplaint(ctx context.Context, adminID, complaintID, note string) (*entity.Complaint, error) {
	if err := uc.ops.begin(complaintID); err != nil {
		return nil, err
	}
	defer uc.ops.end(complaintID)

	if err := uc.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	complaint, err := uc.complaintRepo.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	next, err := status.ComplaintTransition(complaint.Status, status.ComplaintProcessing)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	complaint.Status = next
	complaint.AdminNote = note
	complaint.ProcessedBy = adminID
	complaint.ProcessedAt = &now
	complaint.UpdatedAt = now
	if err := uc.complaintRepo.Update(ctx, complaint); err != nil {
		return nil, err
	}
	return complaint, nil
}

// ResolveComplaint closes the dispute as resolved or rejected. Both outcomes
// are terminal and unblock completion and review of the purchase.
func (uc *ComplaintUseCase) ResolveComplaint(ctx context.Context, adminID, complaintID string, resolved bool, note string) (*entity.Complaint, error) {
	if err := uc.ops.begin(complaintID); err != nil {
		return nil, err
	}
	defer uc.ops.end(complaintID)

	if err := uc.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	complaint, err := uc.complaintRepo.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	target := status.ComplaintRejected
	if resolved {
		target = status.ComplaintResolved
	}
	next, err := status.ComplaintTransition(complaint.Status, target)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	complaint.Status = next
	complaint.AdminNote = note
	complaint.ProcessedBy = adminID
	complaint.ProcessedAt = &now
	complaint.UpdatedAt = now
	if err := uc.complaintRepo.Update(ctx, complaint); err != nil {
		return nil, err
	}
	return complaint, nil
}

// ProcessReturn applies one admin step of the return machine:
// pending -> approved/rejected, approved -> completed.
func (uc *ComplaintUseCase) ProcessReturn(ctx context.Context, adminID, returnID string, target status.ReturnStatus) (*entity.Return, error) {
	if err := uc.ops.begin(returnID); err != nil {
		return nil, err
	}
	defer uc.ops.end(returnID)

	if err := uc.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	ret, err := uc.complaintRepo.GetReturnByID(ctx, returnID)
	if err != nil {
		return nil, err
	}

	next, err := status.ReturnTransition(ret.Status, target)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ret.Status = next
	ret.ProcessedBy = adminID
	ret.ProcessedAt = &now
	ret.UpdatedAt = now
	if err := uc.complaintRepo.UpdateReturn(ctx, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// PurchaseActions describes which buyer actions are currently available for a
// purchase, for the UI to enable and disable controls.
type PurchaseActions struct {
	CanComplain bool `json:"can_complain"`
	CanReturn   bool `json:"can_return"`
	CanComplete bool `json:"can_complete"`
	CanReview   bool `json:"can_review"`
}

// AvailableActions computes the gating rule: while an active complaint
// exists, complete and review are disabled.
func (uc *ComplaintUseCase) AvailableActions(ctx context.Context, userID, purchaseID string) (*PurchaseActions, error) {
	purchase, err := uc.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.BuyerID != userID {
		return nil, errors.Forbidden("Only the buyer can query purchase actions", nil)
	}

	complaint, err := uc.complaintRepo.GetActiveByPurchaseID(ctx, purchaseID)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}
	active := complaint != nil && complaint.IsActive()

	return &PurchaseActions{
		CanComplain: purchase.Status == status.PurchaseDelivered && !active,
		CanReturn:   active,
		CanComplete: purchase.Status == status.PurchaseDelivered && !active,
		CanReview:   purchase.Status == status.PurchaseCompleted,
	}, nil
}

func (uc *ComplaintUseCase) GetComplaintByID(ctx context.Context, userID, complaintID string) (*entity.Complaint, error) {
	complaint, err := uc.complaintRepo.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.BuyerID != userID {
		if err := uc.requireAdmin(ctx, userID); err != nil {
			purchase, perr := uc.purchaseRepo.GetByID(ctx, complaint.PurchaseID)
			if perr != nil || purchase.SellerID != userID {
				return nil, errors.Forbidden("You don't have permission to view this complaint", nil)
			}
		}
	}
	return complaint, nil
}

func (uc *ComplaintUseCase) ListComplaints(ctx context.Context, adminID, st string, limit, offset int) ([]*entity.Complaint, int64, error) {
	if err := uc.requireAdmin(ctx, adminID); err != nil {
		return nil, 0, err
	}
	return uc.complaintRepo.ListByStatus(ctx, st, limit, offset)
}

func (uc *ComplaintUseCase) requireAdmin(ctx context.Context, userID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return errors.NotFound("Admin user", err)
	}
	if user.Role != "admin" {
		return errors.Forbidden("Only admin can perform this action", nil)
	}
	return nil
}
