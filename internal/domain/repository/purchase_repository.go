package repository

import (
	"context"

	"pasarloka/internal/domain/entity"
	"pasarloka/internal/domain/status"
)

type PurchaseRepository interface {
	// Create fails with ALREADY_EXISTS when the purchase carries an offer
	// message id for which a purchase already exists. This is the
	// system-of-record half of the offer conversion idempotency contract.
	Create(ctx context.Context, purchase *entity.Purchase) error
	GetByID(ctx context.Context, id string) (*entity.Purchase, error)
	GetByOfferMessageID(ctx context.Context, offerMessageID string) (*entity.Purchase, error)
	Update(ctx context.Context, purchase *entity.Purchase) error
	List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Purchase, int64, error)
	ListByUserID(ctx context.Context, userID, role string, st status.PurchaseStatus, limit, offset int) ([]*entity.Purchase, int64, error)

	CreateLog(ctx context.Context, log *entity.PurchaseLog) error
	ListLogsByPurchaseID(ctx context.Context, purchaseID string) ([]*entity.PurchaseLog, error)
}
