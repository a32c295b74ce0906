package session

import (
	"github.com/osamaaslam86004/E-Commrace/internal/domain"
)

// Entry is one unit of quantity in the cart mirror: quantity 3 of a product
// appears as three entries.
type Entry struct {
	Kind      domain.Kind `json:"kind"`
	ProductID int64       `json:"product_id"`
}

// Session is the per-caller state kept in redis: the authenticated user, the
// display-only cart mirror, and pending flash messages. The mirror is never
// authoritative; cart_items rows are the source of truth.
type Session struct {
	ID        string   `json:"id"`
	UserID    int64    `json:"user_id"`
	CartItems []Entry  `json:"cart_items"`
	Flash     []string `json:"flash,omitempty"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// AppendItem records one unit of ref at the end of the mirror.
func (s *Session) AppendItem(ref domain.ProductRef) {
	s.CartItems = append(s.CartItems, Entry{Kind: ref.Kind, ProductID: ref.ID})
}

// RemoveFirst deletes the first entry equal to ref, matching by value rather
// than position. Reports whether an entry was removed.
func (s *Session) RemoveFirst(ref domain.ProductRef) bool {
	for i, e := range s.CartItems {
		if e.Kind == ref.Kind && e.ProductID == ref.ID {
			s.CartItems = append(s.CartItems[:i], s.CartItems[i+1:]...)
			return true
		}
	}
	return false
}

// SetMirror replaces the mirror wholesale, used when the rows and the mirror
// disagree and the mirror has to be rebuilt.
func (s *Session) SetMirror(entries []Entry) {
	s.CartItems = entries
}

func (s *Session) PushFlash(msg string) {
	s.Flash = append(s.Flash, msg)
}

// PopFlash drains pending flash messages; they are shown once.
func (s *Session) PopFlash() []string {
	msgs := s.Flash
	s.Flash = nil
	return msgs
}
