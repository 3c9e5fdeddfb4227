// Package cart holds the client-side cart state: the guest cart persisted in
// durable storage, the state manager that routes operations between the guest
// and remote carts, and the one-shot merge that runs at login.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mercaly/storefront/internal/models"
	"github.com/mercaly/storefront/internal/storage"
)

const guestCartKey = "cart.guest"

// GuestStore persists the anonymous cart as a JSON array under a single
// durable key. It owns guest cart state until login hands it to the merge.
type GuestStore struct {
	kv storage.Store
}

// NewGuestStore creates a guest cart store over the given durable store.
func NewGuestStore(kv storage.Store) *GuestStore {
	return &GuestStore{kv: kv}
}

// Load returns the saved guest lines. A missing key, unreadable store, or
// undecodable value yields an empty cart: corrupt state self-heals instead of
// blocking the UI. The underlying failure stays visible in the log.
func (g *GuestStore) Load(ctx context.Context) []models.CartItem {
	items, err := g.load(ctx)
	if err != nil {
		slog.Warn("guest cart unreadable, treating as empty", "error", err)
		return nil
	}
	return items
}

// load is the strict variant of Load; it keeps decode failures visible for
// logging and tests while the public contract collapses them to empty.
func (g *GuestStore) load(ctx context.Context) ([]models.CartItem, error) {
	raw, err := g.kv.Get(ctx, guestCartKey)
	if err == storage.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}

	var items []models.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode guest cart: %w", err)
	}
	return items, nil
}

// Save overwrites the guest cart with the given lines.
func (g *GuestStore) Save(ctx context.Context, items []models.CartItem) error {
	encoded, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}
	if err := g.kv.Set(ctx, guestCartKey, encoded); err != nil {
		return fmt.Errorf("failed to save guest cart: %w", err)
	}
	return nil
}

// Clear deletes the guest cart key.
func (g *GuestStore) Clear(ctx context.Context) error {
	if err := g.kv.Delete(ctx, guestCartKey); err != nil {
		return fmt.Errorf("failed to clear guest cart: %w", err)
	}
	return nil
}
