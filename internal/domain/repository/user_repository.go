package repository

import (
	"context"

	"pasarloka/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error

	CreateAddress(ctx context.Context, address *entity.Address) error
	GetAddressByID(ctx context.Context, id string) (*entity.Address, error)
	ListAddressesByUserID(ctx context.Context, userID string) ([]*entity.Address, error)
}
