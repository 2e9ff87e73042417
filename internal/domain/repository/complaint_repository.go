package repository

import (
	"context"

	"pasarloka/internal/domain/entity"
)

type ComplaintRepository interface {
	Create(ctx context.Context, complaint *entity.Complaint) error
	GetByID(ctx context.Context, id string) (*entity.Complaint, error)
	// GetActiveByPurchaseID returns the complaint whose status is still open
	// or processing, or NOT_FOUND when none exists.
	GetActiveByPurchaseID(ctx context.Context, purchaseID string) (*entity.Complaint, error)
	Update(ctx context.Context, complaint *entity.Complaint) error
	ListByStatus(ctx context.Context, st string, limit, offset int) ([]*entity.Complaint, int64, error)

	CreateReturn(ctx context.Context, ret *entity.Return) error
	GetReturnByID(ctx context.Context, id string) (*entity.Return, error)
	UpdateReturn(ctx context.Context, ret *entity.Return) error
}
