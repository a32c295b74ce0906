package checkout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/osamaaslam86004/E-Commrace/internal/identity"
)

// StripeProcessor implements Processor against the Stripe API. Every call
// carries a bounded timeout and goes through a shared circuit breaker so a
// stuck or failing processor degrades to fast errors instead of piling up
// blocked requests.
type StripeProcessor struct {
	api     *client.API
	breaker *gobreaker.CircuitBreaker[any]
	timeout time.Duration
}

func NewStripeProcessor(secretKey string, timeout time.Duration) *StripeProcessor {
	api := &client.API{}
	api.Init(secretKey, nil)

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "stripe",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &StripeProcessor{api: api, breaker: breaker, timeout: timeout}
}

func (s *StripeProcessor) SearchCustomer(ctx context.Context, email, phone string, cartID int64) (*Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.CustomerSearchParams{
		SearchParams: stripe.SearchParams{
			Context: ctx,
			Query: fmt.Sprintf("email:'%s' AND phone:'%s' AND metadata['cart_id']:'%d'",
				email, phone, cartID),
		},
	}

	v, err := s.breaker.Execute(func() (any, error) {
		iter := s.api.Customers.Search(params)
		if iter.Next() {
			return iter.Customer(), nil
		}
		if e2 := iter.Err(); e2 != nil {
			return nil, e2
		}
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("stripe customer search: %w", err)
	}
	if v == nil {
		return nil, nil
	}
	return &Customer{ID: v.(*stripe.Customer).ID}, nil
}

func (s *StripeProcessor) CreateCustomer(ctx context.Context, ident *identity.Identity, cartID int64) (*Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.CustomerParams{
		Email: stripe.String(ident.Email),
		Phone: stripe.String(ident.Phone),
		Name:  stripe.String(ident.FullName),
	}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.FormatInt(ident.UserID, 10))
	params.AddMetadata("cart_id", strconv.FormatInt(cartID, 10))

	v, err := s.breaker.Execute(func() (any, error) {
		return s.api.Customers.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe customer create: %w", err)
	}
	return &Customer{ID: v.(*stripe.Customer).ID}, nil
}

func (s *StripeProcessor) CreateCharge(ctx context.Context, p ChargeParams) (*Charge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.ChargeParams{
		Amount:   stripe.Int64(p.AmountCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		Customer: stripe.String(p.CustomerID),
	}
	params.Context = ctx
	if err := params.SetSource(p.Token); err != nil {
		return nil, fmt.Errorf("stripe charge source: %w", err)
	}
	params.AddMetadata("user_id", strconv.FormatInt(p.UserID, 10))
	params.AddMetadata("cart_id", strconv.FormatInt(p.CartID, 10))
	params.SetIdempotencyKey(p.IdempotencyKey)

	v, err := s.breaker.Execute(func() (any, error) {
		return s.api.Charges.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe charge create: %w", err)
	}
	return &Charge{ID: v.(*stripe.Charge).ID}, nil
}

func (s *StripeProcessor) RetrieveCharge(ctx context.Context, chargeID string) (*Charge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.ChargeParams{}
	params.Context = ctx

	v, err := s.breaker.Execute(func() (any, error) {
		return s.api.Charges.Get(chargeID, params)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe charge retrieve: %w", err)
	}
	return &Charge{ID: v.(*stripe.Charge).ID}, nil
}

func (s *StripeProcessor) MarkChargeNonRefundable(ctx context.Context, chargeID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.ChargeParams{}
	params.Context = ctx
	params.AddMetadata("refund_initiated", "true")

	_, err := s.breaker.Execute(func() (any, error) {
		return s.api.Charges.Update(chargeID, params)
	})
	if err != nil {
		return fmt.Errorf("stripe charge update: %w", err)
	}
	return nil
}

func (s *StripeProcessor) CreateRefund(ctx context.Context, chargeID string, amountCents int64, userID, cartItemID int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.RefundParams{
		Charge: stripe.String(chargeID),
		Amount: stripe.Int64(amountCents),
	}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.FormatInt(userID, 10))
	params.AddMetadata("cartitem_id", strconv.FormatInt(cartItemID, 10))

	v, err := s.breaker.Execute(func() (any, error) {
		return s.api.Refunds.New(params)
	})
	if err != nil {
		return "", fmt.Errorf("stripe refund create: %w", err)
	}
	return v.(*stripe.Refund).ID, nil
}
