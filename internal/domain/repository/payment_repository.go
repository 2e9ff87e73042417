package repository

import (
	"context"

	"pasarloka/internal/domain/entity"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id string) (*entity.Payment, error)
	GetByPurchaseID(ctx context.Context, purchaseID string) (*entity.Payment, error)
	GetByGatewayRef(ctx context.Context, gatewayRef string) (*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error
}
