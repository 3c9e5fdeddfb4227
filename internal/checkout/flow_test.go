package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/mercaly/storefront/internal/models"
	"github.com/mercaly/storefront/internal/remote"
	"github.com/mercaly/storefront/internal/storage"
	"github.com/mercaly/storefront/internal/storage/memory"
)

// fakeGateway records placement and address calls.
type fakeGateway struct {
	placeCalls   []remote.OrderRequest
	addressCalls []models.Address

	orderID    string
	placeErr   error
	addressErr error
}

func (f *fakeGateway) PlaceOrder(ctx context.Context, order remote.OrderRequest) (string, error) {
	f.placeCalls = append(f.placeCalls, order)
	return f.orderID, f.placeErr
}

func (f *fakeGateway) SaveAddress(ctx context.Context, addr models.Address) error {
	f.addressCalls = append(f.addressCalls, addr)
	return f.addressErr
}

func completeAddress() models.Address {
	return models.Address{
		FullName:   "Asha Rao",
		Phone:      "+91 98x",
		Street:     "12 MG Road",
		City:       "Bengaluru",
		PostalCode: "560001",
		Country:    "IN",
	}
}

func newFlowWithPending(t *testing.T, gateway *fakeGateway, pending models.PendingOrder) (*Flow, *memory.Store) {
	t.Helper()
	store := memory.New()
	flow := NewFlow(store, gateway)
	if err := flow.SavePending(context.Background(), pending); err != nil {
		t.Fatalf("SavePending failed: %v", err)
	}
	return flow, store
}

func pendingDeleted(t *testing.T, store storage.Store) bool {
	t.Helper()
	_, err := store.Get(context.Background(), pendingOrderKey)
	return errors.Is(err, storage.ErrNotFound)
}

func TestConfirmHappyPath(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{orderID: "o1"}
	flow, store := newFlowWithPending(t, gateway, models.PendingOrder{
		ShippingAddress: completeAddress(),
		PaymentMethod:   "cashfree",
	})

	result := flow.Confirm(ctx, "https://shop.example/checkout/return?order_id=cf_123")

	if result.State != StateSuccess {
		t.Fatalf("state = %v (%q), want success", result.State, result.Message)
	}
	if result.OrderID != "o1" {
		t.Errorf("order ID = %q, want o1", result.OrderID)
	}
	if len(gateway.placeCalls) != 1 {
		t.Fatalf("placement called %d times, want 1", len(gateway.placeCalls))
	}
	if gateway.placeCalls[0].CashfreeOrderID != "cf_123" {
		t.Errorf("cashfreeOrderId = %q, want gateway reference attached", gateway.placeCalls[0].CashfreeOrderID)
	}
	if gateway.placeCalls[0].PaymentReference != "" {
		t.Error("generic reference field should be empty for cashfree")
	}
	if !pendingDeleted(t, store) {
		t.Error("pending payload should be deleted after placement")
	}
}

func TestConfirmPlacementErrorShownVerbatim(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{placeErr: errors.New("payment not captured")}
	flow, store := newFlowWithPending(t, gateway, models.PendingOrder{PaymentMethod: "cashfree"})

	result := flow.Confirm(ctx, "https://shop.example/return?order_id=cf_123")

	if result.State != StateError {
		t.Fatalf("state = %v, want error", result.State)
	}
	if result.Message != "payment not captured" {
		t.Errorf("message = %q, want backend error verbatim", result.Message)
	}
	if !pendingDeleted(t, store) {
		t.Error("pending payload should be deleted even when placement fails")
	}
}

func TestConfirmMissingReference(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{orderID: "o1"}
	flow, store := newFlowWithPending(t, gateway, models.PendingOrder{})

	result := flow.Confirm(ctx, "https://shop.example/return")

	if result.State != StateError {
		t.Fatalf("state = %v, want error", result.State)
	}
	if result.Message != msgMissingReference {
		t.Errorf("message = %q, want %q", result.Message, msgMissingReference)
	}
	if len(gateway.placeCalls) != 0 {
		t.Error("no placement attempt without a gateway reference")
	}
	// The payload is untouched: the reference, not the payload, is what's
	// unrecoverable here.
	if pendingDeleted(t, store) {
		t.Error("pending payload should survive a missing-reference error")
	}
}

func TestConfirmMissingPayload(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{orderID: "o1"}
	flow := NewFlow(memory.New(), gateway)

	result := flow.Confirm(ctx, "https://shop.example/return?order_id=cf_123")

	if result.State != StateError {
		t.Fatalf("state = %v, want error", result.State)
	}
	if result.Message != msgSessionExpired {
		t.Errorf("message = %q, want %q", result.Message, msgSessionExpired)
	}
	if len(gateway.placeCalls) != 0 {
		t.Error("no placement attempt without a payload")
	}
}

func TestConfirmAtMostOncePerPayload(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{orderID: "o1"}
	flow, _ := newFlowWithPending(t, gateway, models.PendingOrder{PaymentMethod: "cashfree"})

	first := flow.Confirm(ctx, "https://shop.example/return?order_id=cf_123")
	if first.State != StateSuccess {
		t.Fatalf("first confirm = %v, want success", first.State)
	}

	// Reload with the same return URL: the payload is gone, so no second
	// placement happens.
	second := flow.Confirm(ctx, "https://shop.example/return?order_id=cf_123")
	if second.State != StateError || second.Message != msgSessionExpired {
		t.Errorf("second confirm = %+v, want session-expired error", second)
	}
	if len(gateway.placeCalls) != 1 {
		t.Errorf("placement called %d times across reloads, want 1", len(gateway.placeCalls))
	}
}

func TestConfirmMalformedSuccess(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{orderID: ""}
	flow, store := newFlowWithPending(t, gateway, models.PendingOrder{PaymentMethod: "cashfree"})

	result := flow.Confirm(ctx, "https://shop.example/return?order_id=cf_123")

	if result.State != StateError || result.Message != msgMalformedOrder {
		t.Errorf("result = %+v, want malformed-order error", result)
	}
	if !pendingDeleted(t, store) {
		t.Error("pending payload should be deleted")
	}
}

func TestConfirmSavesAddressBestEffort(t *testing.T) {
	ctx := context.Background()

	t.Run("complete address saved on request", func(t *testing.T) {
		gateway := &fakeGateway{orderID: "o1"}
		flow, _ := newFlowWithPending(t, gateway, models.PendingOrder{
			ShippingAddress: completeAddress(),
			PaymentMethod:   "card",
			SaveAddress:     true,
		})

		result := flow.Confirm(ctx, "https://shop.example/return?reference=ref_9")
		if result.State != StateSuccess {
			t.Fatalf("state = %v, want success", result.State)
		}
		if len(gateway.addressCalls) != 1 {
			t.Errorf("address saved %d times, want 1", len(gateway.addressCalls))
		}
		if gateway.placeCalls[0].PaymentReference != "ref_9" {
			t.Errorf("paymentReference = %q, want generic field for non-cashfree method", gateway.placeCalls[0].PaymentReference)
		}
	})

	t.Run("save failure never downgrades success", func(t *testing.T) {
		gateway := &fakeGateway{orderID: "o1", addressErr: errors.New("address book full")}
		flow, _ := newFlowWithPending(t, gateway, models.PendingOrder{
			ShippingAddress: completeAddress(),
			PaymentMethod:   "card",
			SaveAddress:     true,
		})

		result := flow.Confirm(ctx, "https://shop.example/return?reference=ref_9")
		if result.State != StateSuccess {
			t.Errorf("state = %v, want success despite address save failure", result.State)
		}
	})

	t.Run("incomplete address skipped", func(t *testing.T) {
		gateway := &fakeGateway{orderID: "o1"}
		flow, _ := newFlowWithPending(t, gateway, models.PendingOrder{
			ShippingAddress: models.Address{City: "Bengaluru"},
			PaymentMethod:   "card",
			SaveAddress:     true,
		})

		result := flow.Confirm(ctx, "https://shop.example/return?reference=ref_9")
		if result.State != StateSuccess {
			t.Fatalf("state = %v, want success", result.State)
		}
		if len(gateway.addressCalls) != 0 {
			t.Error("incomplete address should not be saved")
		}
	})
}

func TestSavePendingStampsAttemptID(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	flow := NewFlow(store, &fakeGateway{})

	if err := flow.SavePending(ctx, models.PendingOrder{PaymentMethod: "card"}); err != nil {
		t.Fatalf("SavePending failed: %v", err)
	}
	pending, ok := flow.readPending(ctx)
	if !ok {
		t.Fatal("pending payload missing after save")
	}
	if pending.AttemptID == "" {
		t.Error("attempt ID should be stamped")
	}
}

func TestStateString(t *testing.T) {
	if StateLoading.String() != "loading" || StateSuccess.String() != "success" || StateError.String() != "error" {
		t.Error("State strings out of sync")
	}
}
