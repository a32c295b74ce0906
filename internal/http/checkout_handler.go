package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/osamaaslam86004/E-Commrace/internal/checkout"
	"github.com/osamaaslam86004/E-Commrace/internal/repository"
	"github.com/osamaaslam86004/E-Commrace/internal/session"
)

type CheckoutService interface {
	Begin() *checkout.Page
	Submit(ctx context.Context, userID int64, token string) error
	Orders(ctx context.Context, userID int64) (*checkout.OrdersView, error)
	InitiateRefund(ctx context.Context, userID, cartItemID int64) error
}

type WebhookReconciler interface {
	HandleEvent(ctx context.Context, evt *checkout.Event) (map[string]string, error)
}

type CheckoutHandler struct {
	svc        CheckoutService
	reconciler WebhookReconciler
	sessions   *session.Store
	timeout    time.Duration
}

func NewCheckoutHandler(svc CheckoutService, reconciler WebhookReconciler, sessions *session.Store, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, reconciler: reconciler, sessions: sessions, timeout: timeout}
}

type checkoutPageDTO struct {
	PublishableKey string   `json:"stripe_publishable_key"`
	Messages       []string `json:"messages,omitempty"`
}

// BeginCheckout handles GET /checkout/. Renders the form context with the
// processor's publishable key; no state is mutated.
func (h *CheckoutHandler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	if !sess.Authenticated() {
		http.Redirect(w, r, "/login?reason=session_expired", http.StatusFound)
		return
	}

	page := h.svc.Begin()
	respondJSON(w, http.StatusOK, checkoutPageDTO{
		PublishableKey: page.PublishableKey,
		Messages:       h.popFlash(ctx, sess),
	})
}

// SubmitCheckout handles POST /checkout/. Success and processor failures both
// land back on the checkout page; only the missing-cart sequencing error is a
// structured 400.
func (h *CheckoutHandler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	if !sess.Authenticated() {
		http.Redirect(w, r, "/login?reason=session_expired", http.StatusFound)
		return
	}

	token := r.FormValue("stripeToken")
	if token == "" {
		h.flashAndRedirect(ctx, w, r, sess, "Payment token is missing, please try again", "/checkout/")
		return
	}

	err := h.svc.Submit(ctx, sess.UserID, token)
	switch {
	case err == nil:
		h.flashAndRedirect(ctx, w, r, sess, "Your payment is being processed", "/checkout/")
	case errors.Is(err, checkout.ErrNoActiveCart):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "No active cart found"})
	default:
		slog.Error("checkout submit failed", "user_id", sess.UserID, "error", err)
		h.flashAndRedirect(ctx, w, r, sess, "Payment could not be processed, please try again", "/checkout/")
	}
}

// StripeWebhook handles POST /checkout/webhook: one event per request,
// unparseable bodies get a 400, everything else is acknowledged.
func (h *CheckoutHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var evt checkout.Event
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", "invalid webhook payload")
		return
	}

	body, err := h.reconciler.HandleEvent(ctx, &evt)
	if errors.Is(err, checkout.ErrMalformedEvent) {
		respondError(w, http.StatusBadRequest, "invalid_payload", "invalid webhook payload")
		return
	}
	if err != nil {
		slog.Error("webhook reconciliation failed", "type", evt.Type, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, body)
}

// Refund handles GET /checkout/refund/{cartitem_id}. The outcome is reported
// through a flash message on the home page in every case.
func (h *CheckoutHandler) Refund(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	if !sess.Authenticated() {
		http.Redirect(w, r, "/login?reason=session_expired", http.StatusFound)
		return
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "cartitem_id"), 10, 64)
	if err != nil || itemID <= 0 {
		h.flashAndRedirect(ctx, w, r, sess, "Refund is not available for this item", "/")
		return
	}

	err = h.svc.InitiateRefund(ctx, sess.UserID, itemID)
	switch {
	case err == nil:
		h.flashAndRedirect(ctx, w, r, sess, "Refund initiated successfully", "/")
	case errors.Is(err, checkout.ErrChargeRetrieve):
		h.flashAndRedirect(ctx, w, r, sess, "Error retrieving charge from Stripe", "/")
	case errors.Is(err, checkout.ErrRefundCreate):
		h.flashAndRedirect(ctx, w, r, sess, "Error refunding charge", "/")
	case errors.Is(err, checkout.ErrPaymentRequired), errors.Is(err, repository.ErrCartItemNotFound):
		h.flashAndRedirect(ctx, w, r, sess, "Refund is not available for this item", "/")
	default:
		slog.Error("refund initiation failed", "user_id", sess.UserID, "cartitem_id", itemID, "error", err)
		h.flashAndRedirect(ctx, w, r, sess, "Refund could not be processed, please try again", "/")
	}
}

// Orders handles GET /checkout/orders: carts with a payment attached plus the
// payment rows themselves; payment_objects is null when none exist.
func (h *CheckoutHandler) Orders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	if !sess.Authenticated() {
		http.Redirect(w, r, "/login?reason=session_expired", http.StatusFound)
		return
	}

	view, err := h.svc.Orders(ctx, sess.UserID)
	if err != nil {
		slog.Error("orders view failed", "user_id", sess.UserID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) flashAndRedirect(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *session.Session, msg, target string) {
	sess.PushFlash(msg)
	if err := h.sessions.Save(ctx, sess); err != nil {
		slog.Warn("flash save failed", "user_id", sess.UserID, "error", err)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *CheckoutHandler) popFlash(ctx context.Context, sess *session.Session) []string {
	msgs := sess.PopFlash()
	if len(msgs) == 0 {
		return nil
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		slog.Warn("flash save failed", "user_id", sess.UserID, "error", err)
	}
	return msgs
}
