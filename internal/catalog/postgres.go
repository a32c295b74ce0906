package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/osamaaslam86004/E-Commrace/internal/domain"
)

// rowFetcher reads one catalog table. The query must select (name, price,
// available) by a single id parameter; which column that parameter matches
// differs per kind.
type rowFetcher struct {
	db    *sql.DB
	kind  domain.Kind
	query string
}

func (f *rowFetcher) Fetch(ctx context.Context, id int64) (*PricedProduct, error) {
	p := &PricedProduct{Ref: domain.ProductRef{Kind: f.kind, ID: id}}

	err := f.db.QueryRowContext(ctx, f.query, id).Scan(&p.Name, &p.Price, &p.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %d", ErrProductNotFound, f.kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s %d: %w", f.kind, id, err)
	}
	return p, nil
}

// NewMonitorFetcher resolves monitors by their business key, not the row id.
func NewMonitorFetcher(db *sql.DB) Fetcher {
	return &rowFetcher{
		db:    db,
		kind:  domain.KindMonitor,
		query: `SELECT name, price, in_stock FROM monitors WHERE monitor_id = $1`,
	}
}

func NewBookFetcher(db *sql.DB) Fetcher {
	return &rowFetcher{
		db:    db,
		kind:  domain.KindBook,
		query: `SELECT title, price, in_stock FROM books WHERE id = $1`,
	}
}

func NewConsoleFetcher(db *sql.DB) Fetcher {
	return &rowFetcher{
		db:    db,
		kind:  domain.KindConsole,
		query: `SELECT name, price, in_stock FROM consoles WHERE id = $1`,
	}
}
