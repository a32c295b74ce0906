package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/osamaaslam86004/E-Commrace/internal/domain"
	"github.com/osamaaslam86004/E-Commrace/internal/identity"
	"github.com/osamaaslam86004/E-Commrace/internal/repository"
)

// CartReader is the read-only slice of the cart repository checkout needs.
type CartReader interface {
	FindOpenCart(ctx context.Context, userID int64) (*domain.Cart, error)
	GetItem(ctx context.Context, itemID int64) (*domain.CartItem, error)
	CartsWithPayment(ctx context.Context, userID int64) ([]domain.Cart, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByCartID(ctx context.Context, cartID int64) (*domain.Payment, error)
	MarkSuccessful(ctx context.Context, cartID int64) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error)
}

type RefundStore interface {
	MarkRefunded(ctx context.Context, cartItemID int64, processorRefundID string) (*domain.Refund, error)
}

type Service struct {
	carts          CartReader
	payments       PaymentStore
	refunds        RefundStore
	processor      Processor
	identity       identity.Resolver
	publishableKey string
}

func NewService(carts CartReader, payments PaymentStore, refunds RefundStore, processor Processor, idents identity.Resolver, publishableKey string) *Service {
	return &Service{
		carts:          carts,
		payments:       payments,
		refunds:        refunds,
		processor:      processor,
		identity:       idents,
		publishableKey: publishableKey,
	}
}

// Page is what the checkout form needs to render.
type Page struct {
	PublishableKey string `json:"stripe_publishable_key"`
}

func (s *Service) Begin() *Page {
	return &Page{PublishableKey: s.publishableKey}
}

// Submit charges the user's open cart. It finds-or-creates the processor
// customer keyed by contact metadata and cart id, initiates the charge with a
// deterministic idempotency key, and only then persists the pending payment
// row. Any processor failure aborts before the row is written.
func (s *Service) Submit(ctx context.Context, userID int64, token string) error {
	cart, err := s.carts.FindOpenCart(ctx, userID)
	if errors.Is(err, repository.ErrNoOpenCart) {
		return ErrNoActiveCart
	}
	if err != nil {
		return fmt.Errorf("find open cart: %w", err)
	}

	ident, err := s.identity.Lookup(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup identity: %w", err)
	}

	customer, err := s.processor.SearchCustomer(ctx, ident.Email, ident.Phone, cart.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProcessor, err)
	}
	if customer == nil {
		customer, err = s.processor.CreateCustomer(ctx, ident, cart.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrProcessor, err)
		}
	}

	charge, err := s.processor.CreateCharge(ctx, ChargeParams{
		Token:       token,
		CustomerID:  customer.ID,
		AmountCents: toCents(cart.Total),
		UserID:      userID,
		CartID:      cart.ID,
		// Deterministic per cart content: a retried submit of the unchanged
		// cart reuses the key instead of double-charging.
		IdempotencyKey: fmt.Sprintf("checkout:%d:%d", cart.ID, cart.UpdatedAt.Unix()),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProcessor, err)
	}

	payment := &domain.Payment{
		CartID:              cart.ID,
		UserID:              userID,
		ProcessorChargeID:   charge.ID,
		ProcessorCustomerID: customer.ID,
		Status:              domain.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return fmt.Errorf("persist payment: %w", err)
	}

	slog.Info("checkout submitted",
		"user_id", userID, "cart_id", cart.ID, "charge_id", charge.ID)
	return nil
}

type OrdersView struct {
	Carts          []domain.Cart    `json:"carts"`
	PaymentObjects []domain.Payment `json:"payment_objects"`
}

// Orders lists the user's carts that have a payment attached; PaymentObjects
// is nil when the user has never paid.
func (s *Service) Orders(ctx context.Context, userID int64) (*OrdersView, error) {
	carts, err := s.carts.CartsWithPayment(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	payments, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return &OrdersView{Carts: carts, PaymentObjects: payments}, nil
}

// InitiateRefund runs phase one of the refund protocol: retrieve the original
// charge, mark it non-refundable-twice, and request a partial refund for one
// line item. No refund row is written here; the webhook commits it once the
// processor confirms.
func (s *Service) InitiateRefund(ctx context.Context, userID, cartItemID int64) error {
	item, err := s.carts.GetItem(ctx, cartItemID)
	if err != nil {
		return fmt.Errorf("load cart item: %w", err)
	}

	payment, err := s.payments.GetByCartID(ctx, item.CartID)
	if err != nil || payment.Status != domain.PaymentStatusSuccessful || payment.UserID != userID {
		return ErrPaymentRequired
	}

	if _, err := s.processor.RetrieveCharge(ctx, payment.ProcessorChargeID); err != nil {
		return fmt.Errorf("%w: %v", ErrChargeRetrieve, err)
	}

	if err := s.processor.MarkChargeNonRefundable(ctx, payment.ProcessorChargeID); err != nil {
		return fmt.Errorf("%w: %v", ErrRefundCreate, err)
	}

	_, err = s.processor.CreateRefund(ctx, payment.ProcessorChargeID, toCents(item.Price), userID, cartItemID)
	if err != nil {
		// The charge is already marked non-refundable at this point; the
		// attempt leaves no durable row and only this log line.
		slog.Warn("refund create failed after charge modify",
			"user_id", userID, "cartitem_id", cartItemID, "charge_id", payment.ProcessorChargeID, "error", err)
		return fmt.Errorf("%w: %v", ErrRefundCreate, err)
	}

	slog.Info("refund initiated",
		"user_id", userID, "cartitem_id", cartItemID, "charge_id", payment.ProcessorChargeID)
	return nil
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// IsProcessorFailure reports whether err belongs to the outbound-processor
// error family, all of which surface as flash messages.
func IsProcessorFailure(err error) bool {
	return errors.Is(err, ErrProcessor) ||
		errors.Is(err, ErrChargeRetrieve) ||
		errors.Is(err, ErrRefundCreate)
}
