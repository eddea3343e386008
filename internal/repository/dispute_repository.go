package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mealmarket/mealmarket-backend/internal/models"
	"github.com/mealmarket/mealmarket-backend/internal/repository/common"
)

var ErrDisputeNotFound = errors.New("dispute not found")

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (listing_id, buyer_id, seller_id, reason, evidence_file_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		d.ListingID, d.BuyerID, d.SellerID, d.Reason, d.EvidenceFileID, models.DisputeStatusOpen,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("dispute repository: create %w", err)
	}
	d.Status = models.DisputeStatusOpen
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return common.GetByID[models.Dispute](ctx, r.db, "disputes", id, ErrDisputeNotFound)
}

// ListOpen возвращает споры в работе: open и in_review.
func (r *DisputeRepository) ListOpen(ctx context.Context) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE status = ANY($1) ORDER BY created_at
	`, pq.Array([]string{models.DisputeStatusOpen, models.DisputeStatusInReview}))
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list open %w", err)
	}
	return disputes, nil
}

func (r *DisputeRepository) SetStatus(ctx context.Context, id uuid.UUID, status string, adminNotes *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE disputes SET status = $2, admin_notes = COALESCE($3, admin_notes) WHERE id = $1
	`, id, status, adminNotes)
	if err != nil {
		return fmt.Errorf("dispute repository: set status %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDisputeNotFound
	}
	return nil
}
