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

type firestoreComplaintRepository struct {
	client *firestore.Client
}

func NewFirestoreComplaintRepository(client *firestore.Client) repository.ComplaintRepository {
	return &firestoreComplaintRepository{
		client: client,
	}
}

func (r *firestoreComplaintRepository) Create(ctx context.Context, complaint *entity.Complaint) error {
	if complaint.ID == "" {
		complaint.ID = uuid.New().String()
	}

	now := time.Now()
	complaint.CreatedAt = now
	complaint.UpdatedAt = now

	_, err := r.client.Collection("complaints").Doc(complaint.ID).Set(ctx, complaint)
	if err != nil {
		return errors.Internal("Failed to create complaint", err)
	}

	return nil
}

func (r *firestoreComplaintRepository) GetByID(ctx context.Context, id string) (*entity.Complaint, error) {
	doc, err := r.client.Collection("complaints").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Complaint", err)
		}
		return nil, errors.Internal("Failed to get complaint", err)
	}

	var complaint entity.Complaint
	if err := doc.DataTo(&complaint); err != nil {
		return nil, errors.Internal("Failed to parse complaint data", err)
	}

	return &complaint, nil
}

func (r *firestoreComplaintRepository) GetActiveByPurchaseID(ctx context.Context, purchaseID string) (*entity.Complaint, error) {
	query := r.client.Collection("complaints").
		Where("purchaseId", "==", purchaseID).
		Where("status", "in", []string{
			string(domstatus.ComplaintOpen),
			string(domstatus.ComplaintProcessing),
		}).
		Limit(1)

	iter := query.Documents(ctx)
	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Complaint", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query active complaint", err)
	}

	var complaint entity.Complaint
	if err := doc.DataTo(&complaint); err != nil {
		return nil, errors.Internal("Failed to parse complaint data", err)
	}

	return &complaint, nil
}

func (r *firestoreComplaintRepository) Update(ctx context.Context, complaint *entity.Complaint) error {
	complaint.UpdatedAt = time.Now()

	_, err := r.client.Collection("complaints").Doc(complaint.ID).Set(ctx, complaint)
	if err != nil {
		return errors.Internal("Failed to update complaint", err)
	}

	return nil
}

func (r *firestoreComplaintRepository) ListByStatus(ctx context.Context, st string, limit, offset int) ([]*entity.Complaint, int64, error) {
	query := r.client.Collection("complaints").Query
	if st != "" {
		query = query.Where("status", "==", st)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count complaints", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var complaints []*entity.Complaint

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate complaints", err)
		}

		var complaint entity.Complaint
		if err := doc.DataTo(&complaint); err != nil {
			return nil, 0, errors.Internal("Failed to parse complaint data", err)
		}
		complaints = append(complaints, &complaint)
	}

	return complaints, total, nil
}

func (r *firestoreComplaintRepository) CreateReturn(ctx context.Context, ret *entity.Return) error {
	if ret.ID == "" {
		ret.ID = uuid.New().String()
	}

	now := time.Now()
	ret.CreatedAt = now
	ret.UpdatedAt = now

	_, err := r.client.Collection("returns").Doc(ret.ID).Set(ctx, ret)
	if err != nil {
		return errors.Internal("Failed to create return", err)
	}

	return nil
}

func (r *firestoreComplaintRepository) GetReturnByID(ctx context.Context, id string) (*entity.Return, error) {
	doc, err := r.client.Collection("returns").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Return", err)
		}
		return nil, errors.Internal("Failed to get return", err)
	}

	var ret entity.Return
	if err := doc.DataTo(&ret); err != nil {
		return nil, errors.Internal("Failed to parse return data", err)
	}

	return &ret, nil
}

func (r *firestoreComplaintRepository) UpdateReturn(ctx context.Context, ret *entity.Return) error {
	ret.UpdatedAt = time.Now()

	_, err := r.client.Collection("returns").Doc(ret.ID).Set(ctx, ret)
	if err != nil {
		return errors.Internal("Failed to update return", err)
	}

	return nil
}
