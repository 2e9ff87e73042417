package usecase

import (
	"context"
	"time"

	"pasarloka/internal/domain/entity"
	"pasarloka/internal/domain/repository"
	"pasarloka/pkg/errors"
)

type CartUseCase struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartUseCase(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartUseCase {
	return &CartUseCase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (uc *CartUseCase) AddToCart(ctx context.Context, userID, productID string, quantity int) (*entity.CartItem, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.NotFound("Product", err)
	}
	if product.SellerID == userID {
		return nil, errors.BadRequest("Cannot add your own product to the cart", nil)
	}
	if product.Status != "active" {
		return nil, errors.BadRequest("Product is not available", nil)
	}
	if quantity <= 0 {
		quantity = 1
	}
	if product.Stock < quantity {
		return nil, errors.BadRequest("Insufficient stock", nil)
	}

	now := time.Now()
	if existing, err := uc.cartRepo.GetItem(ctx, userID, productID); err == nil && existing != nil {
		existing.Quantity += quantity
		existing.UpdatedAt = now
		if err := uc.cartRepo.UpdateItem(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	} else if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	item := &entity.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.cartRepo.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (uc *CartUseCase) RemoveFromCart(ctx context.Context, userID, itemID string) error {
	return uc.cartRepo.RemoveItem(ctx, userID, itemID)
}

func (uc *CartUseCase) GetCart(ctx context.Context, userID string) ([]*entity.CartItemWithProduct, error) {
	items, err := uc.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]*entity.CartItemWithProduct, 0, len(items))
	for _, item := range items {
		withProduct := &entity.CartItemWithProduct{
			ID:        item.ID,
			UserID:    item.UserID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			CreatedAt: item.CreatedAt,
		}
		if product, err := uc.productRepo.GetByID(ctx, item.ProductID); err == nil {
			withProduct.Product = product
		}
		result = append(result, withProduct)
	}
	return result, nil
}

// ClearCart empties the cart, called after a successful checkout.
func (uc *CartUseCase) ClearCart(ctx context.Context, userID string) error {
	return uc.cartRepo.Clear(ctx, userID)
}
