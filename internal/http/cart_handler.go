package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/osamaaslam86004/E-Commrace/internal/cart"
	"github.com/osamaaslam86004/E-Commrace/internal/catalog"
	"github.com/osamaaslam86004/E-Commrace/internal/domain"
	"github.com/osamaaslam86004/E-Commrace/internal/session"
)

type CartService interface {
	AddItem(ctx context.Context, sess *session.Session, ref domain.ProductRef, qty int32) error
	RemoveItem(ctx context.Context, sess *session.Session, ref domain.ProductRef) error
	View(ctx context.Context, sess *session.Session) (*cart.View, error)
}

type CartHandler struct {
	svc      CartService
	sessions *session.Store
	timeout  time.Duration
}

func NewCartHandler(svc CartService, sessions *session.Store, timeout time.Duration) *CartHandler {
	return &CartHandler{svc: svc, sessions: sessions, timeout: timeout}
}

// cartViewDTO mirrors what the cart template renders: a de-duplicated item
// list plus the running totals and any pending flash messages.
type cartViewDTO struct {
	CartItems   int             `json:"cart_items"`
	SubTotal    decimal.Decimal `json:"sub_total"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Tax         decimal.Decimal `json:"tax"`
	Results     []cart.Line     `json:"results"`
	Messages    []string        `json:"messages,omitempty"`
}

// AddToCart handles GET /cart/add/{kind}/{product_id}.
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	if !sess.Authenticated() {
		// No session to stash a flash message in, so the login page carries
		// its own "session expired" notice.
		http.Redirect(w, r, "/login?reason=session_expired", http.StatusFound)
		return
	}

	ref, ok := parseProductRef(r)
	if !ok {
		h.flashAndRedirect(ctx, w, r, sess, "Invalid product reference", "/cart/")
		return
	}

	if err := h.svc.AddItem(ctx, sess, ref, 1); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) || errors.Is(err, catalog.ErrUnknownKind) {
			h.flashAndRedirect(ctx, w, r, sess, "Product not found", "/cart/")
			return
		}
		slog.Error("add to cart failed", "user_id", sess.UserID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	http.Redirect(w, r, "/cart/", http.StatusFound)
}

// RemoveFromCart handles GET /cart/remove/{kind}/{product_id}. Removal is
// idempotent: with no session, cart or item it still lands on the cart view.
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	if !sess.Authenticated() {
		http.Redirect(w, r, "/cart/", http.StatusFound)
		return
	}

	ref, ok := parseProductRef(r)
	if ok {
		if err := h.svc.RemoveItem(ctx, sess, ref); err != nil {
			slog.Error("remove from cart failed", "user_id", sess.UserID, "error", err)
		}
	}

	http.Redirect(w, r, "/cart/", http.StatusFound)
}

// ViewCart handles GET /cart/.
func (h *CartHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	if !sess.Authenticated() {
		respondJSON(w, http.StatusOK, cartViewDTO{Results: nil})
		return
	}

	view, err := h.svc.View(ctx, sess)
	if err != nil {
		slog.Error("cart view failed", "user_id", sess.UserID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, cartViewDTO{
		CartItems:   view.CartItems,
		SubTotal:    view.SubTotal,
		TotalAmount: view.TotalAmount,
		Tax:         view.Tax,
		Results:     view.Results,
		Messages:    h.popFlash(ctx, sess),
	})
}

func (h *CartHandler) flashAndRedirect(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *session.Session, msg, target string) {
	sess.PushFlash(msg)
	if err := h.sessions.Save(ctx, sess); err != nil {
		slog.Warn("flash save failed", "user_id", sess.UserID, "error", err)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *CartHandler) popFlash(ctx context.Context, sess *session.Session) []string {
	msgs := sess.PopFlash()
	if len(msgs) == 0 {
		return nil
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		slog.Warn("flash save failed", "user_id", sess.UserID, "error", err)
	}
	return msgs
}

func parseProductRef(r *http.Request) (domain.ProductRef, bool) {
	kind := chi.URLParam(r, "kind")
	idStr := chi.URLParam(r, "product_id")

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 || kind == "" {
		return domain.ProductRef{}, false
	}
	return domain.ProductRef{Kind: domain.Kind(kind), ID: id}, true
}
