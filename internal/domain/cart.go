package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags the catalog table a product reference points into.
type Kind string

const (
	KindMonitor Kind = "monitor"
	KindBook    Kind = "book"
	KindConsole Kind = "console"
)

// ProductRef identifies an item in an external catalog store.
// Monitors are keyed by a business key, the other kinds by their row id.
type ProductRef struct {
	Kind Kind  `json:"kind"`
	ID   int64 `json:"product_id"`
}

// Cart is the per-owner collection of pending purchase intents. At most one
// cart per owner is open (has no payment attached); a payment closes it and
// the next add creates a fresh cart.
type Cart struct {
	ID        int64
	UserID    int64
	Subtotal  decimal.Decimal
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is one line entry in a cart. Price is the unit price captured at
// the time of the first add; it does not track later catalog price changes.
type CartItem struct {
	ID       int64
	CartID   int64
	Ref      ProductRef
	Quantity int32
	Price    decimal.Decimal
}

// LineTotal returns price * quantity for this line.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt32(i.Quantity))
}
