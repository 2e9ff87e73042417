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
	domstatus "pasarloka/internal/domain/status"
	"pasarloka/pkg/errors"
)

type firestorePurchaseRepository struct {
	client *firestore.Client
}

func NewFirestorePurchaseRepository(client *firestore.Client) repository.PurchaseRepository {
	return &firestorePurchaseRepository{
		client: client,
	}
}

// Create writes the purchase. When the purchase carries an offer message id,
// creation and the uniqueness claim on that id happen in one Firestore
// transaction: a second conversion of the same offer loses the claim and gets
// ALREADY_EXISTS instead of a duplicate purchase.
func (r *firestorePurchaseRepository) Create(ctx context.Context, purchase *entity.Purchase) error {
	if purchase.ID == "" {
		purchase.ID = uuid.New().String()
	}

	now := time.Now()
	purchase.CreatedAt = now
	purchase.UpdatedAt = now

	if purchase.OfferMessageID == "" {
		if _, err := r.client.Collection("purchases").Doc(purchase.ID).Set(ctx, purchase); err != nil {
			return errors.Internal("Failed to create purchase", err)
		}
		return nil
	}

	claimRef := r.client.Collection("offer_conversions").Doc(purchase.OfferMessageID)
	purchaseRef := r.client.Collection("purchases").Doc(purchase.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(claimRef); err == nil {
			return errors.AlreadyExists("Purchase")
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		if err := tx.Set(claimRef, map[string]interface{}{
			"purchaseId": purchase.ID,
			"createdAt":  now,
		}); err != nil {
			return err
		}
		return tx.Set(purchaseRef, purchase)
	})
	if err != nil {
		if errors.Is(err, "ALREADY_EXISTS") {
			return err
		}
		return errors.Internal("Failed to create purchase", err)
	}

	return nil
}

func (r *firestorePurchaseRepository) GetByID(ctx context.Context, id string) (*entity.Purchase, error) {
	doc, err := r.client.Collection("purchases").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Purchase", err)
		}
		return nil, errors.Internal("Failed to get purchase", err)
	}

	var purchase entity.Purchase
	if err := doc.DataTo(&purchase); err != nil {
		return nil, errors.Internal("Failed to parse purchase data", err)
	}

	return &purchase, nil
}

func (r *firestorePurchaseRepository) GetByOfferMessageID(ctx context.Context, offerMessageID string) (*entity.Purchase, error) {
	query := r.client.Collection("purchases").Where("offerMessageId", "==", offerMessageID).Limit(1)

	iter := query.Documents(ctx)
	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Purchase", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query purchase by offer", err)
	}

	var purchase entity.Purchase
	if err := doc.DataTo(&purchase); err != nil {
		return nil, errors.Internal("Failed to parse purchase data", err)
	}

	return &purchase, nil
}

func (r *firestorePurchaseRepository) Update(ctx context.Context, purchase *entity.Purchase) error {
	purchase.UpdatedAt = time.Now()

	_, err := r.client.Collection("purchases").Doc(purchase.ID).Set(ctx, purchase)
	if err != nil {
		return errors.Internal("Failed to update purchase", err)
	}

	return nil
}

func (r *firestorePurchaseRepository) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Purchase, int64, error) {
	query := r.client.Collection("purchases").OrderBy("createdAt", firestore.Desc)

	for key, value := range filter {
		query = query.Where(key, "==", value)
	}

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count purchases", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var purchases []*entity.Purchase

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate purchases", err)
		}

		var purchase entity.Purchase
		if err := doc.DataTo(&purchase); err != nil {
			return nil, 0, errors.Internal("Failed to parse purchase data", err)
		}
		purchases = append(purchases, &purchase)
	}

	return purchases, total, nil
}

func (r *firestorePurchaseRepository) ListByUserID(ctx context.Context, userID, role string, st domstatus.PurchaseStatus, limit, offset int) ([]*entity.Purchase, int64, error) {
	var field string
	if role == "seller" {
		field = "sellerId"
	} else {
		field = "buyerId"
	}

	query := r.client.Collection("purchases").Where(field, "==", userID)
	if st != "" {
		query = query.Where("status", "==", string(st))
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count purchases", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var purchases []*entity.Purchase

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate purchases", err)
		}

		var purchase entity.Purchase
		if err := doc.DataTo(&purchase); err != nil {
			return nil, 0, errors.Internal("Failed to parse purchase data", err)
		}
		purchases = append(purchases, &purchase)
	}

	return purchases, total, nil
}

func (r *firestorePurchaseRepository) CreateLog(ctx context.Context, log *entity.PurchaseLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	log.CreatedAt = time.Now()

	_, err := r.client.Collection("purchase_logs").Doc(log.ID).Set(ctx, log)
	if err != nil {
		return errors.Internal("Failed to create purchase log", err)
	}

	return nil
}

func (r *firestorePurchaseRepository) ListLogsByPurchaseID(ctx context.Context, purchaseID string) ([]*entity.PurchaseLog, error) {
	query := r.client.Collection("purchase_logs").
		Where("purchaseId", "==", purchaseID).
		OrderBy("createdAt", firestore.Asc)

	iter := query.Documents(ctx)
	var logs []*entity.PurchaseLog

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate purchase logs", err)
		}

		var log entity.PurchaseLog
		if err := doc.DataTo(&log); err != nil {
			return nil, errors.Internal("Failed to parse purchase log data", err)
		}
		logs = append(logs, &log)
	}

	return logs, nil
}
