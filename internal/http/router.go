package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/osamaaslam86004/E-Commrace/internal/session"
)

// NewRouter wires the cart and checkout endpoints behind the shared
// middleware stack.
func NewRouter(cartHandler *CartHandler, checkoutHandler *CheckoutHandler, sessions *session.Store, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDHeader)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(SessionMiddleware(sessions))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", cartHandler.ViewCart)
		r.Get("/add/{kind}/{product_id}", cartHandler.AddToCart)
		r.Get("/remove/{kind}/{product_id}", cartHandler.RemoveFromCart)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", checkoutHandler.BeginCheckout)
		r.Post("/", checkoutHandler.SubmitCheckout)
		r.Post("/webhook", checkoutHandler.StripeWebhook)
		r.Get("/refund/{cartitem_id}", checkoutHandler.Refund)
		r.Get("/orders", checkoutHandler.Orders)
	})

	return r
}
