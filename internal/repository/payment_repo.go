package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/osamaaslam86004/E-Commrace/internal/domain"
)

// ErrDuplicatePayment surfaces the unique constraint on payments.cart_id: a
// cart gets at most one payment row, ever.
var ErrDuplicatePayment = errors.New("payment already exists for cart")

type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO payments (cart_id, user_id, processor_charge_id, processor_customer_id, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		p.CartID, p.UserID, p.ProcessorChargeID, p.ProcessorCustomerID, p.Status).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) GetByCartID(ctx context.Context, cartID int64) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, cart_id, user_id, processor_charge_id, processor_customer_id, status, created_at
		 FROM payments WHERE cart_id = $1`,
		cartID).Scan(&p.ID, &p.CartID, &p.UserID, &p.ProcessorChargeID, &p.ProcessorCustomerID, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment: %w", err)
	}
	return &p, nil
}

// MarkSuccessful flips the cart's payment to SUCCESSFUL. It is a plain
// lookup-then-update keyed by cart id, so replaying the same webhook event is
// harmless. Returns how many rows matched.
func (r *PaymentRepo) MarkSuccessful(ctx context.Context, cartID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = $2 WHERE cart_id = $1`,
		cartID, domain.PaymentStatusSuccessful)
	if err != nil {
		return 0, fmt.Errorf("mark payment successful: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (r *PaymentRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, cart_id, user_id, processor_charge_id, processor_customer_id, status, created_at
		 FROM payments WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.CartID, &p.UserID, &p.ProcessorChargeID, &p.ProcessorCustomerID, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return payments, nil
}
