package usecase

import (
	"context"
	"time"

	"pasarloka/internal/domain/entity"
	"pasarloka/internal/domain/repository"
	"pasarloka/pkg/errors"
)

type ProductUseCase struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

func NewProductUseCase(productRepo repository.ProductRepository, userRepo repository.UserRepository) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

type CreateProductInput struct {
	CategoryID  string
	Title       string
	Description string
	Price       float64
	Stock       int
	Images      []entity.ProductImage
}

func (uc *ProductUseCase) CreateProduct(ctx context.Context, sellerID string, input CreateProductInput) (*entity.Product, error) {
	seller, err := uc.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, errors.NotFound("Seller", err)
	}
	if seller.Role != "seller" && seller.Role != "admin" {
		return nil, errors.Forbidden("Only sellers can list products", nil)
	}
	if input.Price <= 0 {
		return nil, errors.BadRequest("Product price must be positive", nil)
	}

	now := time.Now()
	product := &entity.Product{
		SellerID:    sellerID,
		CategoryID:  input.CategoryID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Images:      input.Images,
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (uc *ProductUseCase) UpdateProduct(ctx context.Context, sellerID, productID string, input CreateProductInput) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, errors.Forbidden("You can only update your own products", nil)
	}
	if input.Price <= 0 {
		return nil, errors.BadRequest("Product price must be positive", nil)
	}

	product.CategoryID = input.CategoryID
	product.Title = input.Title
	product.Description = input.Description
	product.Price = input.Price
	product.Stock = input.Stock
	if len(input.Images) > 0 {
		product.Images = input.Images
	}
	product.UpdatedAt = time.Now()

	if err := uc.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (uc *ProductUseCase) GetProductByID(ctx context.Context, productID string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	product.Views++
	if err := uc.productRepo.Update(ctx, product); err != nil {
		// View counting is best effort
		return product, nil
	}
	return product, nil
}

func (uc *ProductUseCase) ListProducts(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Product, int64, error) {
	return uc.productRepo.List(ctx, filter, limit, offset)
}

func (uc *ProductUseCase) ListSellerProducts(ctx context.Context, sellerID string, limit, offset int) ([]*entity.Product, int64, error) {
	return uc.productRepo.ListBySellerID(ctx, sellerID, limit, offset)
}

func (uc *ProductUseCase) DeleteProduct(ctx context.Context, sellerID, productID string) error {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.SellerID != sellerID {
		return errors.Forbidden("You can only delete your own products", nil)
	}
	return uc.productRepo.SoftDelete(ctx, productID)
}
