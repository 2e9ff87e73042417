package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pasarloka/internal/domain/entity"
	"pasarloka/internal/domain/repository"
	"pasarloka/pkg/errors"
)

type firestoreCartRepository struct {
	client *firestore.Client
}

func NewFirestoreCartRepository(client *firestore.Client) repository.CartRepository {
	return &firestoreCartRepository{
		client: client,
	}
}

func (r *firestoreCartRepository) AddItem(ctx context.Context, item *entity.CartItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := r.client.Collection("carts").Doc(item.UserID).Collection("items").Doc(item.ID).Set(ctx, item)
	if err != nil {
		return errors.Internal("Failed to add cart item", err)
	}

	return nil
}

func (r *firestoreCartRepository) GetItem(ctx context.Context, userID, productID string) (*entity.CartItem, error) {
	query := r.client.Collection("carts").Doc(userID).Collection("items").
		Where("productId", "==", productID).
		Limit(1)

	iter := query.Documents(ctx)
	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Cart item", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query cart item", err)
	}

	var item entity.CartItem
	if err := doc.DataTo(&item); err != nil {
		return nil, errors.Internal("Failed to parse cart item data", err)
	}

	return &item, nil
}

func (r *firestoreCartRepository) UpdateItem(ctx context.Context, item *entity.CartItem) error {
	item.UpdatedAt = time.Now()

	_, err := r.client.Collection("carts").Doc(item.UserID).Collection("items").Doc(item.ID).Set(ctx, item)
	if err != nil {
		return errors.Internal("Failed to update cart item", err)
	}

	return nil
}

func (r *firestoreCartRepository) RemoveItem(ctx context.Context, userID, itemID string) error {
	_, err := r.client.Collection("carts").Doc(userID).Collection("items").Doc(itemID).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Cart item", err)
		}
		return errors.Internal("Failed to remove cart item", err)
	}

	return nil
}

func (r *firestoreCartRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.CartItem, error) {
	query := r.client.Collection("carts").Doc(userID).Collection("items").
		OrderBy("createdAt", firestore.Asc)

	iter := query.Documents(ctx)
	var items []*entity.CartItem

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate cart items", err)
		}

		var item entity.CartItem
		if err := doc.DataTo(&item); err != nil {
			return nil, errors.Internal("Failed to parse cart item data", err)
		}
		items = append(items, &item)
	}

	return items, nil
}

func (r *firestoreCartRepository) Clear(ctx context.Context, userID string) error {
	iter := r.client.Collection("carts").Doc(userID).Collection("items").Documents(ctx)

	batch := r.client.Batch()
	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to iterate cart items", err)
		}
		batch.Delete(doc.Ref)
		count++
	}

	if count == 0 {
		return nil
	}
	if _, err := batch.Commit(ctx); err != nil {
		return errors.Internal("Failed to clear cart", err)
	}

	return nil
}
