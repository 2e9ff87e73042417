package repository

import (
	"context"

	"pasarloka/internal/domain/entity"
)

type CartRepository interface {
	AddItem(ctx context.Context, item *entity.CartItem) error
	GetItem(ctx context.Context, userID, productID string) (*entity.CartItem, error)
	UpdateItem(ctx context.Context, item *entity.CartItem) error
	RemoveItem(ctx context.Context, userID, itemID string) error
	ListByUserID(ctx context.Context, userID string) ([]*entity.CartItem, error)
	Clear(ctx context.Context, userID string) error
}
