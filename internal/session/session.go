// Package session reads and persists the backend-issued session identity.
//
// Token issuance and verification belong to the backend; this package only
// stores the bearer token and its session kind, and derives the explicit
// AuthState value that the cart subsystem threads through its operations
// instead of re-reading ambient storage at every call site.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mercaly/storefront/internal/storage"
)

const (
	tokenKey = "session.token"
	kindKey  = "session.kind"
)

// Kind discriminates the two mutually exclusive session identities.
// User and admin sessions never share cart state.
type Kind string

const (
	KindUser  Kind = "user"
	KindAdmin Kind = "admin"
)

// AuthState is the authentication signal for the cart subsystem: a bearer
// token plus its session kind. The zero value is an anonymous session.
type AuthState struct {
	Token string
	Kind  Kind
}

// IsUser reports whether the state carries a usable user-scoped token.
// Opaque tokens count by presence alone; JWTs with an exp claim must be
// unexpired.
func (s AuthState) IsUser() bool {
	return s.Kind == KindUser && s.Token != "" && !expired(s.Token)
}

// expired inspects the token's exp claim without verifying the signature.
// Verification is the backend's job; the client only avoids presenting a
// token it can already see is dead.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// Store persists the token/kind pair in durable storage.
type Store struct {
	kv storage.Store
}

// NewStore creates a session store over the given durable key-value store.
func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// Save persists a newly issued token and its kind.
func (s *Store) Save(ctx context.Context, token string, kind Kind) error {
	if err := s.kv.Set(ctx, tokenKey, []byte(token)); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	if err := s.kv.Set(ctx, kindKey, []byte(kind)); err != nil {
		return fmt.Errorf("failed to save session kind: %w", err)
	}
	return nil
}

// Load reads the stored identity. A missing token or kind yields the zero
// (anonymous) AuthState with no error.
func (s *Store) Load(ctx context.Context) (AuthState, error) {
	token, err := s.kv.Get(ctx, tokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		return AuthState{}, nil
	}
	if err != nil {
		return AuthState{}, fmt.Errorf("failed to load session token: %w", err)
	}

	kind, err := s.kv.Get(ctx, kindKey)
	if errors.Is(err, storage.ErrNotFound) {
		return AuthState{}, nil
	}
	if err != nil {
		return AuthState{}, fmt.Errorf("failed to load session kind: %w", err)
	}

	return AuthState{Token: string(token), Kind: Kind(kind)}, nil
}

// Clear removes the stored identity (logout).
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, tokenKey); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	if err := s.kv.Delete(ctx, kindKey); err != nil {
		return fmt.Errorf("failed to clear session kind: %w", err)
	}
	return nil
}
