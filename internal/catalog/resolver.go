package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/osamaaslam86004/E-Commrace/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUnknownKind     = errors.New("unknown product kind")
)

// PricedProduct is the narrow catalog view the cart core needs: a resolved
// reference with its current price and availability.
type PricedProduct struct {
	Ref       domain.ProductRef `json:"ref"`
	Name      string            `json:"name"`
	Price     decimal.Decimal   `json:"price"`
	Available bool              `json:"available"`
}

// Fetcher resolves one product kind by id.
type Fetcher interface {
	Fetch(ctx context.Context, id int64) (*PricedProduct, error)
}

// Registry maps product kinds to their fetchers. Concurrent resolves of the
// same reference are collapsed through singleflight.
type Registry struct {
	fetchers map[domain.Kind]Fetcher
	sfg      singleflight.Group
}

func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[domain.Kind]Fetcher)}
}

func (r *Registry) Register(kind domain.Kind, f Fetcher) {
	r.fetchers[kind] = f
}

func (r *Registry) Resolve(ctx context.Context, ref domain.ProductRef) (*PricedProduct, error) {
	f, ok := r.fetchers[ref.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, ref.Kind)
	}

	key := fmt.Sprintf("%s:%d", ref.Kind, ref.ID)
	v, err, _ := r.sfg.Do(key, func() (interface{}, error) {
		return f.Fetch(ctx, ref.ID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*PricedProduct), nil
}
