package cart

import (
	"context"
	"testing"

	"github.com/mercaly/storefront/internal/models"
	"github.com/mercaly/storefront/internal/session"
	"github.com/mercaly/storefront/internal/storage/memory"
)

func TestMergeSubmitsGuestLinesAndClears(t *testing.T) {
	ctx := context.Background()
	guest := NewGuestStore(memory.New())
	guest.Save(ctx, []models.CartItem{{ProductID: "p1", Quantity: 2}})

	// Server already holds p1 qty 1; its policy sums quantities.
	backend := &fakeRemote{items: []models.CartItem{{ProductID: "p1", Quantity: 1}}}
	m := NewManager(guest, backend, userState())

	if err := m.MergeGuestCart(ctx); err != nil {
		t.Fatalf("MergeGuestCart failed: %v", err)
	}

	if len(backend.mergeCalls) != 1 {
		t.Fatalf("merge called %d times, want 1", len(backend.mergeCalls))
	}
	call := backend.mergeCalls[0]
	if len(call) != 1 || call[0].ProductID != "p1" || call[0].Quantity != 2 {
		t.Errorf("merge submitted %+v, want [{p1 2}]", call)
	}

	if items := guest.Load(ctx); len(items) != 0 {
		t.Errorf("guest cart = %+v, want cleared after merge", items)
	}

	// Refresh adopted the server's resolved quantity.
	snap := m.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].Quantity != 3 {
		t.Errorf("cart = %+v, want server-resolved p1 qty 3", snap.Items)
	}
}

func TestMergeClearsGuestCartEvenOnFailure(t *testing.T) {
	ctx := context.Background()
	guest := NewGuestStore(memory.New())
	guest.Save(ctx, []models.CartItem{{ProductID: "p1", Quantity: 2}})

	backend := &fakeRemote{failMerge: true}
	m := NewManager(guest, backend, userState())

	if err := m.MergeGuestCart(ctx); err == nil {
		t.Fatal("expected merge error")
	}

	// At-most-once: the guest key is gone, so a retry cannot double-submit.
	if items := guest.Load(ctx); len(items) != 0 {
		t.Errorf("guest cart = %+v, want cleared despite failure", items)
	}
}

func TestMergeWithEmptyGuestCartIsNoOp(t *testing.T) {
	ctx := context.Background()
	guest := NewGuestStore(memory.New())
	backend := &fakeRemote{items: []models.CartItem{{ProductID: "p2", Quantity: 1}}}
	m := NewManager(guest, backend, userState())

	if err := m.MergeGuestCart(ctx); err != nil {
		t.Fatalf("MergeGuestCart failed: %v", err)
	}
	if len(backend.mergeCalls) != 0 {
		t.Errorf("merge called %d times, want 0 for empty guest cart", len(backend.mergeCalls))
	}

	// Still refreshes from the remote source of truth.
	snap := m.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].ProductID != "p2" {
		t.Errorf("cart = %+v, want remote cart after no-op merge", snap.Items)
	}
}

func TestMergeRunsOnceThenSecondRunIsNoOp(t *testing.T) {
	ctx := context.Background()
	guest := NewGuestStore(memory.New())
	guest.Save(ctx, []models.CartItem{{ProductID: "p1", Quantity: 2}})

	backend := &fakeRemote{}
	m := NewManager(guest, backend, userState())

	if err := m.MergeGuestCart(ctx); err != nil {
		t.Fatalf("first merge failed: %v", err)
	}
	if err := m.MergeGuestCart(ctx); err != nil {
		t.Fatalf("second merge errored: %v", err)
	}
	if len(backend.mergeCalls) != 1 {
		t.Errorf("merge called %d times, want 1 (second run sees empty guest cart)", len(backend.mergeCalls))
	}
}

func TestLoginTransitionRunsMerge(t *testing.T) {
	ctx := context.Background()
	guest := NewGuestStore(memory.New())
	backend := &fakeRemote{}
	m := NewManager(guest, backend, session.AuthState{})

	m.AddToCart(ctx, models.CartItem{ProductID: "p1", Quantity: 2})

	if err := m.SetAuthState(ctx, userState()); err != nil {
		t.Fatalf("SetAuthState failed: %v", err)
	}

	if len(backend.mergeCalls) != 1 {
		t.Fatalf("merge called %d times on login, want 1", len(backend.mergeCalls))
	}
	if items := guest.Load(ctx); len(items) != 0 {
		t.Errorf("guest cart = %+v, want cleared after login", items)
	}
	snap := m.Snapshot()
	if !snap.Authenticated {
		t.Error("snapshot should be authenticated after login")
	}
	if len(snap.Items) != 1 || snap.Items[0].Quantity != 2 {
		t.Errorf("cart = %+v, want merged line from server", snap.Items)
	}
}

func TestLogoutTransitionRefreshesGuestCart(t *testing.T) {
	ctx := context.Background()
	guest := NewGuestStore(memory.New())
	backend := &fakeRemote{items: []models.CartItem{{ProductID: "p1", Quantity: 1}}}
	m := NewManager(guest, backend, userState())
	m.Refresh(ctx)

	if err := m.SetAuthState(ctx, session.AuthState{}); err != nil {
		t.Fatalf("SetAuthState failed: %v", err)
	}

	snap := m.Snapshot()
	if snap.Authenticated {
		t.Error("snapshot should be anonymous after logout")
	}
	if len(snap.Items) != 0 {
		t.Errorf("cart = %+v, want empty guest cart after logout", snap.Items)
	}
	if len(backend.mergeCalls) != 0 {
		t.Error("logout must never trigger a merge")
	}
}
