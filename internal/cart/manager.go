package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mercaly/storefront/internal/metrics"
	"github.com/mercaly/storefront/internal/models"
	"github.com/mercaly/storefront/internal/remote"
	"github.com/mercaly/storefront/internal/session"
)

// Snapshot is the manager's reactive view of the active cart, handed to
// subscribers after every change.
type Snapshot struct {
	Items         []models.CartItem
	Loading       bool
	Authenticated bool
}

// Remote is the subset of the backend cart API the manager needs.
// Every call returns the server's cart, which the manager adopts verbatim.
type Remote interface {
	Get(ctx context.Context) ([]models.CartItem, error)
	Add(ctx context.Context, productID string, quantity int) ([]models.CartItem, error)
	Update(ctx context.Context, productID string, quantity int) ([]models.CartItem, error)
	Remove(ctx context.Context, productID string) ([]models.CartItem, error)
	Merge(ctx context.Context, items []remote.MergeItem) ([]models.CartItem, error)
}

// Manager routes cart operations to the guest store or the remote cart based
// on an explicit AuthState, and caches the latest snapshot for rendering.
// It never owns cart data: the guest store owns it before login, the backend
// after.
//
// At most one of the two sources is live at a time. Switching from guest to
// authenticated goes through SetAuthState, which runs the merge protocol so
// guest lines are never silently discarded.
type Manager struct {
	mu       sync.Mutex
	guest    *GuestStore
	remote   Remote
	auth     session.AuthState
	snapshot Snapshot
	subs     map[int]func(Snapshot)
	nextSub  int
}

// NewManager creates a manager for the given sources and initial auth state.
// Call Refresh afterwards to populate the snapshot.
func NewManager(guest *GuestStore, backend Remote, auth session.AuthState) *Manager {
	return &Manager{
		guest:  guest,
		remote: backend,
		auth:   auth,
		subs:   make(map[int]func(Snapshot)),
		snapshot: Snapshot{
			Authenticated: auth.IsUser(),
		},
	}
}

// Subscribe registers fn to receive every snapshot change. fn runs
// synchronously on the mutating goroutine and must not call back into the
// manager. The returned function cancels the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Snapshot returns the latest cached view of the cart.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// publish updates the snapshot and notifies subscribers. Callers must hold mu.
func (m *Manager) publish(s Snapshot) {
	m.snapshot = s
	for _, fn := range m.subs {
		fn(s)
	}
}

// setItems replaces the snapshot's items, clearing the loading flag.
// Callers must hold mu.
func (m *Manager) setItems(items []models.CartItem) {
	m.publish(Snapshot{
		Items:         items,
		Loading:       false,
		Authenticated: m.auth.IsUser(),
	})
}

// AddToCart adds a line, coalescing with an existing line that shares its
// identity key. The line's snapshot fields (price, product, attributes) are
// kept for guest rendering; on the authenticated path the server's response
// replaces them.
func (m *Manager) AddToCart(ctx context.Context, line models.CartItem) error {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.auth.IsUser() {
		err = m.remoteAdd(ctx, line)
	} else {
		err = m.guestAdd(ctx, line)
	}
	metrics.CartOperations.WithLabelValues("add", metrics.Outcome(err)).Inc()
	return err
}

func (m *Manager) remoteAdd(ctx context.Context, line models.CartItem) error {
	items, err := m.remote.Add(ctx, line.ProductID, line.Quantity)
	if err != nil {
		slog.Error("remote cart add failed", "product_id", line.ProductID, "error", err)
		return err
	}
	m.setItems(items)
	return nil
}

func (m *Manager) guestAdd(ctx context.Context, line models.CartItem) error {
	items := m.guest.Load(ctx)

	found := false
	for i := range items {
		if items[i].Key() == line.Key() {
			items[i].Quantity += line.Quantity
			found = true
			break
		}
	}
	if !found {
		items = append(items, line)
	}

	if err := m.guest.Save(ctx, items); err != nil {
		slog.Error("guest cart save failed", "product_id", line.ProductID, "error", err)
		return err
	}
	m.setItems(items)
	return nil
}

// UpdateQuantity sets a line's quantity. On the guest path a computed
// quantity <= 0 removes the line; on the authenticated path the raw value is
// forwarded and the server's resolution is adopted.
func (m *Manager) UpdateQuantity(ctx context.Context, productID string, quantity int, variationName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.auth.IsUser() {
		var items []models.CartItem
		items, err = m.remote.Update(ctx, productID, quantity)
		if err != nil {
			slog.Error("remote cart update failed", "product_id", productID, "error", err)
		} else {
			m.setItems(items)
		}
	} else {
		err = m.guestSetQuantity(ctx, productID, variationName, quantity)
	}
	metrics.CartOperations.WithLabelValues("update", metrics.Outcome(err)).Inc()
	return err
}

func (m *Manager) guestSetQuantity(ctx context.Context, productID, variationName string, quantity int) error {
	items := m.guest.Load(ctx)
	key := models.LineKey(productID, variationName)

	next := items[:0]
	for _, it := range items {
		if it.Key() == key {
			if quantity <= 0 {
				continue
			}
			it.Quantity = quantity
		}
		next = append(next, it)
	}

	if err := m.guest.Save(ctx, next); err != nil {
		slog.Error("guest cart save failed", "product_id", productID, "error", err)
		return err
	}
	m.setItems(next)
	return nil
}

// RemoveFromCart removes a line by identity key. When the backend rejects a
// removal the snapshot is emptied rather than left stale: a removed item whose
// fate is unknown must not appear still purchasable.
func (m *Manager) RemoveFromCart(ctx context.Context, productID string, variationName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.auth.IsUser() {
		var items []models.CartItem
		items, err = m.remote.Remove(ctx, productID)
		if err != nil {
			slog.Error("remote cart remove failed, emptying cart", "product_id", productID, "error", err)
			m.setItems(nil)
		} else {
			m.setItems(items)
		}
	} else {
		err = m.guestSetQuantity(ctx, productID, variationName, 0)
	}
	metrics.CartOperations.WithLabelValues("remove", metrics.Outcome(err)).Inc()
	return err
}

// Refresh re-derives the cart from the current source of truth. Call it on
// startup and after every auth state change.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.refreshLocked(ctx)
	metrics.CartOperations.WithLabelValues("refresh", metrics.Outcome(err)).Inc()
	return err
}

func (m *Manager) refreshLocked(ctx context.Context) error {
	m.publish(Snapshot{
		Items:         m.snapshot.Items,
		Loading:       true,
		Authenticated: m.auth.IsUser(),
	})

	if !m.auth.IsUser() {
		m.setItems(m.guest.Load(ctx))
		return nil
	}

	items, err := m.remote.Get(ctx)
	if err != nil {
		slog.Error("remote cart refresh failed", "error", err)
		m.setItems(nil)
		return err
	}
	m.setItems(items)
	return nil
}

// SetAuthState switches the active cart source. A transition from anonymous
// to an authenticated user runs the merge protocol so the guest cart is
// drained, never dropped; every other transition just refreshes from the new
// source of truth.
func (m *Manager) SetAuthState(ctx context.Context, auth session.AuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	wasUser := m.auth.IsUser()
	m.auth = auth

	if !wasUser && auth.IsUser() {
		return m.mergeLocked(ctx)
	}
	return m.refreshLocked(ctx)
}
