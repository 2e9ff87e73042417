package repository

import (
	"context"

	"pasarloka/internal/domain/entity"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	GetByPurchaseID(ctx context.Context, purchaseID string) (*entity.Review, error)
	ListByProductID(ctx context.Context, productID string, limit, offset int) ([]*entity.Review, int64, error)
	ListBySellerID(ctx context.Context, sellerID string, limit, offset int) ([]*entity.Review, int64, error)
	Update(ctx context.Context, review *entity.Review) error
}
