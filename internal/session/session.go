// Package session turns the per-user server-side session into an explicit
// object that workflows receive as an argument instead of reaching for
// request state.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/cart"
)

const (
	keyCart = "cart"
	keyUser = "user"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleMechanic Role = "mechanic"
)

// Identity is the authenticated principal bound to the session by the
// upstream gateway.
type Identity struct {
	UserID   int64  `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Role     Role   `json:"role"`
}

// Session carries identity and cart for one request. It is not safe for
// concurrent use.
type Session struct {
	identity *Identity
	cart     *cart.Cart

	raw *sessions.Session
	r   *http.Request
	w   http.ResponseWriter
}

func (s *Session) Identity() *Identity { return s.identity }

// Cart returns nil when the session never held a cart.
func (s *Session) Cart() *cart.Cart { return s.cart }

// CustomerID reports the bound customer, if any.
func (s *Session) CustomerID() (int64, bool) {
	if s.identity == nil || s.identity.Role != RoleCustomer || s.identity.UserID == 0 {
		return 0, false
	}
	return s.identity.UserID, true
}

// Email reports the email of the bound principal, if any.
func (s *Session) Email() (string, bool) {
	if s.identity == nil || s.identity.Email == "" {
		return "", false
	}
	return s.identity.Email, true
}

// SaveCart persists c as the session cart. On failure the previously stored
// cart is kept.
func (s *Session) SaveCart(ctx context.Context, c *cart.Cart) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	prev, hadPrev := s.raw.Values[keyCart]
	s.raw.Values[keyCart] = body
	if err := s.raw.Save(s.r, s.w); err != nil {
		if hadPrev {
			s.raw.Values[keyCart] = prev
		} else {
			delete(s.raw.Values, keyCart)
		}
		return fmt.Errorf("save session: %w", err)
	}
	s.cart = c
	return nil
}

// Bind stores id as the session principal.
func (s *Session) Bind(ctx context.Context, id Identity) error {
	body, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	s.raw.Values[keyUser] = body
	if err := s.raw.Save(s.r, s.w); err != nil {
		delete(s.raw.Values, keyUser)
		return fmt.Errorf("save session: %w", err)
	}
	s.identity = &id
	return nil
}

// Destroy clears everything held by the session and expires the cookie.
func (s *Session) Destroy(ctx context.Context) error {
	for k := range s.raw.Values {
		delete(s.raw.Values, k)
	}
	s.raw.Options.MaxAge = -1
	if err := s.raw.Save(s.r, s.w); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	s.identity = nil
	s.cart = nil
	return nil
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
