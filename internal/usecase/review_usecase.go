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

type ReviewUseCase struct {
	reviewRepo    repository.ReviewRepository
	purchaseRepo  repository.PurchaseRepository
	complaintRepo repository.ComplaintRepository
	userRepo      repository.UserRepository
}

func NewReviewUseCase(
	reviewRepo repository.ReviewRepository,
	purchaseRepo repository.PurchaseRepository,
	complaintRepo repository.ComplaintRepository,
	userRepo repository.UserRepository,
) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo:    reviewRepo,
		purchaseRepo:  purchaseRepo,
		complaintRepo: complaintRepo,
		userRepo:      userRepo,
	}
}

type CreateReviewInput struct {
	PurchaseID string
	Rating     int
	Content    string
	Images     []string
}

// CreateReview is only available once the purchase has completed; a purchase
// under an active complaint can never reach that state.
func (uc *ReviewUseCase) CreateReview(ctx context.Context, buyerID string, input CreateReviewInput) (*entity.Review, error) {
	purchase, err := uc.purchaseRepo.GetByID(ctx, input.PurchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.BuyerID != buyerID {
		return nil, errors.Forbidden("Only the buyer can review this purchase", nil)
	}
	if purchase.Status != status.PurchaseCompleted {
		return nil, errors.InvalidState("Reviews can only be left on completed purchases")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, errors.BadRequest("Rating must be between 1 and 5", nil)
	}

	if existing, err := uc.reviewRepo.GetByPurchaseID(ctx, input.PurchaseID); err == nil && existing != nil {
		return nil, errors.InvalidState("This purchase already has a review")
	} else if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	productID := ""
	if len(purchase.Items) > 0 {
		productID = purchase.Items[0].ProductID
	}

	now := time.Now()
	review := &entity.Review{
		PurchaseID: input.PurchaseID,
		ProductID:  productID,
		ReviewerID: buyerID,
		SellerID:   purchase.SellerID,
		Rating:     input.Rating,
		Content:    input.Content,
		Images:     input.Images,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	purchase.ReviewID = review.ID
	purchase.UpdatedAt = now
	if err := uc.purchaseRepo.Update(ctx, purchase); err != nil {
		logger.Error("Failed to link review %s to purchase %s: %v", review.ID, purchase.ID, err)
	}

	uc.updateSellerRating(ctx, purchase.SellerID, input.Rating)
	return review, nil
}

func (uc *ReviewUseCase) ListProductReviews(ctx context.Context, productID string, limit, offset int) ([]*entity.Review, int64, error) {
	return uc.reviewRepo.ListByProductID(ctx, productID, limit, offset)
}

func (uc *ReviewUseCase) ListSellerReviews(ctx context.Context, sellerID string, limit, offset int) ([]*entity.Review, int64, error) {
	return uc.reviewRepo.ListBySellerID(ctx, sellerID, limit, offset)
}

func (uc *ReviewUseCase) updateSellerRating(ctx context.Context, sellerID string, rating int) {
	seller, err := uc.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		logger.Error("Failed to load seller %s for rating update: %v", sellerID, err)
		return
	}

	total := seller.SellerRating*float64(seller.SellerReviewCount) + float64(rating)
	seller.SellerReviewCount++
	seller.SellerRating = total / float64(seller.SellerReviewCount)
	seller.UpdatedAt = time.Now()

	if err := uc.userRepo.Update(ctx, seller); err != nil {
		logger.Error("Failed to update seller %s rating: %v", sellerID, err)
	}
}
