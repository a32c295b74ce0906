package checkout

import (
	"context"
	"errors"

	"github.com/osamaaslam86004/E-Commrace/internal/identity"
)

var (
	// ErrNoActiveCart is a client-sequencing error: checkout was submitted
	// with nothing to pay for. Surfaced as a structured 400, not a redirect.
	ErrNoActiveCart = errors.New("no active cart found")
	// ErrProcessor covers any outbound processor failure during checkout. It
	// is converted to a flash message at the boundary, never propagated raw.
	ErrProcessor = errors.New("payment processor error")

	ErrChargeRetrieve  = errors.New("error retrieving charge from stripe")
	ErrRefundCreate    = errors.New("error refunding charge")
	ErrPaymentRequired = errors.New("no successful payment for cart")
)

type Customer struct {
	ID string
}

type Charge struct {
	ID string
}

type ChargeParams struct {
	Token          string
	CustomerID     string
	AmountCents    int64
	UserID         int64
	CartID         int64
	IdempotencyKey string
}

// Processor is the narrow surface of the payment processor this core uses.
// The stripe-backed implementation lives in stripe.go; tests substitute
// struct mocks.
type Processor interface {
	// SearchCustomer returns (nil, nil) when no customer matches.
	SearchCustomer(ctx context.Context, email, phone string, cartID int64) (*Customer, error)
	CreateCustomer(ctx context.Context, ident *identity.Identity, cartID int64) (*Customer, error)
	CreateCharge(ctx context.Context, p ChargeParams) (*Charge, error)
	RetrieveCharge(ctx context.Context, chargeID string) (*Charge, error)
	// MarkChargeNonRefundable flags the charge so a second refund pass is
	// refused processor-side.
	MarkChargeNonRefundable(ctx context.Context, chargeID string) error
	CreateRefund(ctx context.Context, chargeID string, amountCents int64, userID, cartItemID int64) (string, error)
}
