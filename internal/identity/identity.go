package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrIdentityNotFound = errors.New("identity not found")

// Identity is the contact metadata checkout needs to key a processor
// customer: email plus phone, with the display name along for the ride.
type Identity struct {
	UserID   int64
	Email    string
	Phone    string
	FullName string
}

// Resolver looks up the authenticated identity behind a request. User
// management itself lives outside this core.
type Resolver interface {
	Lookup(ctx context.Context, userID int64) (*Identity, error)
}

type PostgresResolver struct {
	db *sql.DB
}

func NewPostgresResolver(db *sql.DB) *PostgresResolver {
	return &PostgresResolver{db: db}
}

func (r *PostgresResolver) Lookup(ctx context.Context, userID int64) (*Identity, error) {
	id := &Identity{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT email, phone, full_name FROM user_profiles WHERE user_id = $1`,
		userID).Scan(&id.Email, &id.Phone, &id.FullName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user profile: %w", err)
	}
	return id, nil
}
