package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/osamaaslam86004/E-Commrace/internal/domain"
)

type RefundRepo struct {
	db *sql.DB
}

func NewRefundRepo(db *sql.DB) *RefundRepo {
	return &RefundRepo{db: db}
}

// MarkRefunded finds-or-creates the refund row for a cart item and records
// the processor's charge id. The unique constraint on cart_item_id keeps the
// relation one-to-one, and the upsert makes webhook replays harmless.
func (r *RefundRepo) MarkRefunded(ctx context.Context, cartItemID int64, processorRefundID string) (*domain.Refund, error) {
	var ref domain.Refund
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO refunds (cart_id, cart_item_id, processor_refund_id, status)
		 SELECT ci.cart_id, ci.id, $2, $3 FROM cart_items ci WHERE ci.id = $1
		 ON CONFLICT (cart_item_id)
		 DO UPDATE SET processor_refund_id = EXCLUDED.processor_refund_id, status = EXCLUDED.status
		 RETURNING id, cart_id, cart_item_id, processor_refund_id, status`,
		cartItemID, processorRefundID, domain.RefundStatusRefunded).
		Scan(&ref.ID, &ref.CartID, &ref.CartItemID, &ref.ProcessorRefundID, &ref.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("upsert refund: %w", err)
	}
	return &ref, nil
}

func (r *RefundRepo) GetByCartItem(ctx context.Context, cartItemID int64) (*domain.Refund, error) {
	var ref domain.Refund
	err := r.db.QueryRowContext(ctx,
		`SELECT id, cart_id, cart_item_id, processor_refund_id, status
		 FROM refunds WHERE cart_item_id = $1`,
		cartItemID).Scan(&ref.ID, &ref.CartID, &ref.CartItemID, &ref.ProcessorRefundID, &ref.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("refund for cart item %d: %w", cartItemID, sql.ErrNoRows)
	}
	if err != nil {
		return nil, fmt.Errorf("query refund: %w", err)
	}
	return &ref, nil
}
