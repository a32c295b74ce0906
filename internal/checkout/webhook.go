package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/osamaaslam86004/E-Commrace/internal/repository"
)

// ErrMalformedEvent marks a payload the reconciler cannot act on: bad JSON is
// caught at the handler, missing or non-numeric metadata here. Both get a 400
// so the sender knows retrying is pointless.
var ErrMalformedEvent = errors.New("malformed webhook event")

// Event is the slice of a processor webhook payload this core reads.
type Event struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// Reconciler advances payment and refund state from processor-pushed events.
// Both paths are lookup-then-update keyed by the event metadata, so
// at-least-once delivery and replays are safe.
type Reconciler struct {
	payments PaymentStore
	refunds  RefundStore
}

func NewReconciler(payments PaymentStore, refunds RefundStore) *Reconciler {
	return &Reconciler{payments: payments, refunds: refunds}
}

// HandleEvent applies one event and returns the acknowledgment body. Unknown
// event types are acknowledged without a state change so the sender stops
// retrying them.
func (r *Reconciler) HandleEvent(ctx context.Context, evt *Event) (map[string]string, error) {
	switch evt.Type {
	case "charge.succeeded":
		if _, err := metadataID(evt, "user_id"); err != nil {
			return nil, err
		}
		cartID, err := metadataID(evt, "cart_id")
		if err != nil {
			return nil, err
		}

		n, err := r.payments.MarkSuccessful(ctx, cartID)
		if err != nil {
			return nil, fmt.Errorf("reconcile charge.succeeded: %w", err)
		}
		if n == 0 {
			slog.Warn("charge.succeeded for unknown cart", "cart_id", cartID, "charge_id", evt.Data.Object.ID)
		}
		return map[string]string{"message": "stripe created"}, nil

	case "charge.refunded":
		if _, err := metadataID(evt, "user_id"); err != nil {
			return nil, err
		}
		itemID, err := metadataID(evt, "cartitem_id")
		if err != nil {
			return nil, err
		}

		_, err = r.refunds.MarkRefunded(ctx, itemID, evt.Data.Object.ID)
		if errors.Is(err, repository.ErrCartItemNotFound) {
			slog.Warn("charge.refunded for unknown cart item", "cartitem_id", itemID, "charge_id", evt.Data.Object.ID)
			return map[string]string{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reconcile charge.refunded: %w", err)
		}
		return map[string]string{}, nil

	default:
		slog.Debug("unhandled webhook event acknowledged", "type", evt.Type)
		return map[string]string{}, nil
	}
}

func metadataID(evt *Event, key string) (int64, error) {
	raw, ok := evt.Data.Object.Metadata[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing metadata %q", ErrMalformedEvent, key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: metadata %q is not numeric", ErrMalformedEvent, key)
	}
	return id, nil
}
