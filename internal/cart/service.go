package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/osamaaslam86004/E-Commrace/internal/catalog"
	"github.com/osamaaslam86004/E-Commrace/internal/domain"
	"github.com/osamaaslam86004/E-Commrace/internal/repository"
	"github.com/osamaaslam86004/E-Commrace/internal/session"
)

// Store is the slice of the cart repository this service mutates.
type Store interface {
	FindOpenCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID int64, ref domain.ProductRef, qty int32, unitPrice decimal.Decimal) (*domain.Cart, *domain.CartItem, error)
	RemoveItem(ctx context.Context, userID int64, ref domain.ProductRef) (bool, error)
	ListItems(ctx context.Context, cartID int64) ([]domain.CartItem, error)
}

// Resolver maps a product reference to its priced catalog entity.
type Resolver interface {
	Resolve(ctx context.Context, ref domain.ProductRef) (*catalog.PricedProduct, error)
}

type Service struct {
	resolver  Resolver
	store     Store
	sessions  *session.Store
	surcharge decimal.Decimal
}

func NewService(resolver Resolver, store Store, sessions *session.Store, surcharge decimal.Decimal) *Service {
	return &Service{
		resolver:  resolver,
		store:     store,
		sessions:  sessions,
		surcharge: surcharge,
	}
}

// AddItem resolves ref, upserts the cart item and appends one mirror entry
// per unit. A mirror write failure is logged and swallowed: the rows are the
// source of truth and the mirror gets rebuilt on the next view.
func (s *Service) AddItem(ctx context.Context, sess *session.Session, ref domain.ProductRef, qty int32) error {
	if qty < 1 {
		qty = 1
	}

	product, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return fmt.Errorf("resolve product: %w", err)
	}

	if _, _, err := s.store.AddItem(ctx, sess.UserID, ref, qty, product.Price); err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}

	for i := int32(0); i < qty; i++ {
		sess.AppendItem(ref)
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		slog.Warn("cart mirror write failed", "user_id", sess.UserID, "error", err)
	}
	return nil
}

// RemoveItem takes one unit of ref out of the cart and drops the first
// matching mirror entry. A missing cart or item is a no-op.
func (s *Service) RemoveItem(ctx context.Context, sess *session.Session, ref domain.ProductRef) error {
	removed, err := s.store.RemoveItem(ctx, sess.UserID, ref)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if !removed {
		return nil
	}

	sess.RemoveFirst(ref)
	if err := s.sessions.Save(ctx, sess); err != nil {
		slog.Warn("cart mirror write failed", "user_id", sess.UserID, "error", err)
	}
	return nil
}

// Line is one displayed row of the cart: all units of a distinct product
// reference collapsed together.
type Line struct {
	Count     int32                  `json:"count"`
	Kind      domain.Kind            `json:"kind"`
	ProductID int64                  `json:"product_id"`
	Product   *catalog.PricedProduct `json:"product"`
}

type View struct {
	CartItems   int             `json:"cart_items"`
	SubTotal    decimal.Decimal `json:"sub_total"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Tax         decimal.Decimal `json:"tax"`
	Results     []Line          `json:"results"`
}

// View aggregates the open cart's rows for display and corrects the mirror
// when it has drifted from the rows.
func (s *Service) View(ctx context.Context, sess *session.Session) (*View, error) {
	cart, err := s.store.FindOpenCart(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNoOpenCart) {
		// No open cart renders an empty view, not an error.
		return &View{Tax: s.surcharge}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open cart: %w", err)
	}

	items, err := s.store.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}

	view := &View{
		SubTotal:    cart.Subtotal,
		TotalAmount: cart.Subtotal.Add(s.surcharge),
		Tax:         s.surcharge,
	}

	var mirror []session.Entry
	for _, it := range items {
		product, resolveErr := s.resolver.Resolve(ctx, it.Ref)
		if resolveErr != nil {
			return nil, fmt.Errorf("resolve product: %w", resolveErr)
		}
		view.Results = append(view.Results, Line{
			Count:     it.Quantity,
			Kind:      it.Ref.Kind,
			ProductID: it.Ref.ID,
			Product:   product,
		})
		for i := int32(0); i < it.Quantity; i++ {
			mirror = append(mirror, session.Entry{Kind: it.Ref.Kind, ProductID: it.Ref.ID})
		}
	}
	view.CartItems = len(view.Results)

	if mirrorDrifted(sess.CartItems, mirror) {
		sess.SetMirror(mirror)
		if err := s.sessions.Save(ctx, sess); err != nil {
			slog.Warn("cart mirror rebuild failed", "user_id", sess.UserID, "error", err)
		}
	}

	return view, nil
}

// mirrorDrifted reports whether the session mirror no longer holds the same
// per-unit entries as the rows. Order is ignored: the mirror keeps append
// order while the rows come back aggregated.
func mirrorDrifted(current, want []session.Entry) bool {
	if len(current) != len(want) {
		return true
	}
	counts := make(map[session.Entry]int, len(want))
	for _, e := range want {
		counts[e]++
	}
	for _, e := range current {
		counts[e]--
		if counts[e] < 0 {
			return true
		}
	}
	return false
}
