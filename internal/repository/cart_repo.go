package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/osamaaslam86004/E-Commrace/internal/domain"
)

// CartRepo owns the carts and cart_items tables. All mutation of a given
// cart happens inside a transaction holding a row lock on the cart, so
// concurrent adds/removes for the same user cannot lose subtotal updates.
type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{db: db}
}

// openCartQuery selects the user's single open cart: the one with no payment
// row attached. A cart with a pending payment is already spoken for; the next
// add creates a fresh cart.
const openCartQuery = `SELECT c.id, c.user_id, c.subtotal, c.total, c.created_at, c.updated_at
	FROM carts c
	WHERE c.user_id = $1
	  AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.cart_id = c.id)
	ORDER BY c.created_at
	LIMIT 1`

func scanCart(row *sql.Row) (*domain.Cart, error) {
	var c domain.Cart
	err := row.Scan(&c.ID, &c.UserID, &c.Subtotal, &c.Total, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoOpenCart
	}
	if err != nil {
		return nil, fmt.Errorf("scan cart: %w", err)
	}
	return &c, nil
}

// FindOpenCart returns the user's open cart without locking it.
func (r *CartRepo) FindOpenCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	return scanCart(r.db.QueryRowContext(ctx, openCartQuery, userID))
}

// lockOpenCart loads the open cart inside tx with FOR UPDATE, serializing all
// mutation of that cart.
func lockOpenCart(ctx context.Context, tx *sql.Tx, userID int64) (*domain.Cart, error) {
	return scanCart(tx.QueryRowContext(ctx, openCartQuery+" FOR UPDATE OF c", userID))
}

// AddItem finds-or-creates the open cart and the cart item for ref, then
// applies the additive subtotal update. A repeated add increments quantity on
// the existing row; the snapshotted unit price is kept from the first add.
func (r *CartRepo) AddItem(ctx context.Context, userID int64, ref domain.ProductRef, qty int32, unitPrice decimal.Decimal) (*domain.Cart, *domain.CartItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin add item: %w", err)
	}
	defer tx.Rollback()

	// Serializes find-or-create per user: without this, two concurrent first
	// adds can each see no open cart and both insert one, stranding the
	// younger cart. FOR UPDATE alone cannot lock a row that does not exist
	// yet. Released at commit/rollback.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
		return nil, nil, fmt.Errorf("lock user cart: %w", err)
	}

	cart, err := lockOpenCart(ctx, tx, userID)
	if errors.Is(err, ErrNoOpenCart) {
		cart = &domain.Cart{UserID: userID, Subtotal: decimal.Zero, Total: decimal.Zero}
		insertErr := tx.QueryRowContext(ctx,
			`INSERT INTO carts (user_id, subtotal, total) VALUES ($1, 0, 0)
			 RETURNING id, created_at, updated_at`,
			userID).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
		if insertErr != nil {
			return nil, nil, fmt.Errorf("create cart: %w", insertErr)
		}
	} else if err != nil {
		return nil, nil, err
	}

	item := &domain.CartItem{CartID: cart.ID, Ref: ref}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO cart_items (cart_id, product_kind, product_id, quantity, price)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (cart_id, product_kind, product_id)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		 RETURNING id, quantity, price`,
		cart.ID, ref.Kind, ref.ID, qty, unitPrice).Scan(&item.ID, &item.Quantity, &item.Price)
	if err != nil {
		return nil, nil, fmt.Errorf("upsert cart item: %w", err)
	}

	// Delta uses the stored unit price so cart.subtotal stays equal to the
	// sum of price * quantity over its rows even after catalog price changes.
	delta := item.Price.Mul(decimal.NewFromInt32(qty))
	err = tx.QueryRowContext(ctx,
		`UPDATE carts SET subtotal = subtotal + $2, total = total + $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING subtotal, total, updated_at`,
		cart.ID, delta).Scan(&cart.Subtotal, &cart.Total, &cart.UpdatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("update cart totals: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit add item: %w", err)
	}
	return cart, item, nil
}

// RemoveItem takes one unit of ref out of the open cart. It reports whether
// anything changed; a missing cart or item is a no-op, so removal is
// idempotent.
func (r *CartRepo) RemoveItem(ctx context.Context, userID int64, ref domain.ProductRef) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin remove item: %w", err)
	}
	defer tx.Rollback()

	cart, err := lockOpenCart(ctx, tx, userID)
	if errors.Is(err, ErrNoOpenCart) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var itemID int64
	var qty int32
	var price decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT id, quantity, price FROM cart_items
		 WHERE cart_id = $1 AND product_kind = $2 AND product_id = $3`,
		cart.ID, ref.Kind, ref.ID).Scan(&itemID, &qty, &price)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("select cart item: %w", err)
	}

	if qty > 1 {
		_, err = tx.ExecContext(ctx,
			`UPDATE cart_items SET quantity = quantity - 1 WHERE id = $1`, itemID)
	} else {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE id = $1`, itemID)
	}
	if err != nil {
		return false, fmt.Errorf("remove cart item: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE carts SET subtotal = subtotal - $2, total = total - $2, updated_at = NOW()
		 WHERE id = $1`,
		cart.ID, price)
	if err != nil {
		return false, fmt.Errorf("update cart totals: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit remove item: %w", err)
	}
	return true, nil
}

func (r *CartRepo) ListItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, cart_id, product_kind, product_id, quantity, price
		 FROM cart_items WHERE cart_id = $1 ORDER BY id`,
		cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.Ref.Kind, &it.Ref.ID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

func (r *CartRepo) GetItem(ctx context.Context, itemID int64) (*domain.CartItem, error) {
	var it domain.CartItem
	err := r.db.QueryRowContext(ctx,
		`SELECT id, cart_id, product_kind, product_id, quantity, price
		 FROM cart_items WHERE id = $1`,
		itemID).Scan(&it.ID, &it.CartID, &it.Ref.Kind, &it.Ref.ID, &it.Quantity, &it.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart item: %w", err)
	}
	return &it, nil
}

// CartsWithPayment lists the user's closed carts, newest first. Only carts
// with a payment row attached count as orders.
func (r *CartRepo) CartsWithPayment(ctx context.Context, userID int64) ([]domain.Cart, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.subtotal, c.total, c.created_at, c.updated_at
		 FROM carts c
		 WHERE c.user_id = $1
		   AND EXISTS (SELECT 1 FROM payments p WHERE p.cart_id = c.id)
		 ORDER BY c.created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query carts with payment: %w", err)
	}
	defer rows.Close()

	var carts []domain.Cart
	for rows.Next() {
		var c domain.Cart
		if err := rows.Scan(&c.ID, &c.UserID, &c.Subtotal, &c.Total, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart: %w", err)
		}
		carts = append(carts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return carts, nil
}

// DeleteCart removes a cart and its items. Carts with a successful payment
// hold financial records and are refused.
func (r *CartRepo) DeleteCart(ctx context.Context, cartID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete cart: %w", err)
	}
	defer tx.Rollback()

	var paid bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE cart_id = $1 AND status = $2)`,
		cartID, domain.PaymentStatusSuccessful).Scan(&paid)
	if err != nil {
		return fmt.Errorf("check cart payment: %w", err)
	}
	if paid {
		return ErrCartHasPayment
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return tx.Commit()
}
