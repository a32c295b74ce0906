package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusSuccessful PaymentStatus = "SUCCESSFUL"
)

// Payment records a processor-side charge against a cart. It is created
// PENDING at checkout submission and flips to SUCCESSFUL only when the
// processor confirms via webhook.
type Payment struct {
	ID                  int64
	CartID              int64
	UserID              int64
	ProcessorChargeID   string
	ProcessorCustomerID string
	Status              PaymentStatus
	CreatedAt           time.Time
}

type RefundStatus string

const (
	RefundStatusNone     RefundStatus = "NO_REFUND"
	RefundStatusRefunded RefundStatus = "REFUNDED"
)

// Refund records a processor-side partial refund scoped to a single cart
// item. The row is written only on webhook confirmation, never by the
// refund-initiation call.
type Refund struct {
	ID                int64
	CartID            int64
	CartItemID        int64
	ProcessorRefundID string
	Status            RefundStatus
}
