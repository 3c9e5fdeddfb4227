// Package checkout drives the page that finalizes an order after a
// third-party payment gateway redirects the shopper back.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/mercaly/storefront/internal/metrics"
	"github.com/mercaly/storefront/internal/models"
	"github.com/mercaly/storefront/internal/remote"
	"github.com/mercaly/storefront/internal/storage"
)

const pendingOrderKey = "checkout.pending"

// Fixed user-facing messages for context the client cannot reconstruct.
const (
	msgMissingReference = "payment reference missing; please restart checkout"
	msgSessionExpired   = "checkout session expired; please restart checkout"
	msgMalformedOrder   = "order could not be completed"
)

// State is the confirmation page's terminal-or-pending state.
type State int

const (
	StateLoading State = iota
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Result is the outcome of one confirmation attempt. Message carries the
// backend's error verbatim, or one of the fixed messages above.
type Result struct {
	State   State
	OrderID string
	Message string
}

// Gateway is the backend surface the flow needs.
type Gateway interface {
	PlaceOrder(ctx context.Context, order remote.OrderRequest) (string, error)
	SaveAddress(ctx context.Context, addr models.Address) error
}

// Flow finalizes an order after the gateway redirect. The pending payload
// lives in session-scoped storage and is deleted immediately after the single
// placement attempt, success or failure, so a reload or back-navigation can
// never place the order twice. A genuinely new attempt requires restarting
// checkout, which writes a new payload and earns a new gateway reference.
type Flow struct {
	session storage.Store
	backend Gateway
}

// NewFlow creates a confirmation flow over the given session-scoped store.
func NewFlow(sessionStore storage.Store, backend Gateway) *Flow {
	return &Flow{session: sessionStore, backend: backend}
}

// SavePending persists the draft order before navigating to the payment
// gateway. An attempt ID is stamped for log correlation.
func (f *Flow) SavePending(ctx context.Context, order models.PendingOrder) error {
	if order.AttemptID == "" {
		order.AttemptID = uuid.New().String()
	}
	encoded, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode pending order: %w", err)
	}
	if err := f.session.Set(ctx, pendingOrderKey, encoded); err != nil {
		return fmt.Errorf("failed to save pending order: %w", err)
	}
	slog.Info("pending order saved", "attempt_id", order.AttemptID, "payment_method", order.PaymentMethod)
	return nil
}

// Confirm runs the post-redirect confirmation exactly once for the given
// return URL and resolves to a terminal Result.
func (f *Flow) Confirm(ctx context.Context, returnURL string) Result {
	reference := gatewayReference(returnURL)
	if reference == "" {
		slog.Warn("gateway redirect missing payment reference", "url", returnURL)
		return errorResult(msgMissingReference)
	}

	pending, ok := f.readPending(ctx)
	if !ok {
		slog.Warn("no pending order for gateway return", "reference", reference)
		return errorResult(msgSessionExpired)
	}

	orderID, err := f.backend.PlaceOrder(ctx, buildOrderRequest(pending, reference))

	// One placement attempt per payload, whatever the outcome: the key is
	// gone before the result is even inspected.
	if delErr := f.session.Delete(ctx, pendingOrderKey); delErr != nil {
		slog.Error("failed to delete pending order", "attempt_id", pending.AttemptID, "error", delErr)
	}

	metrics.OrderPlacements.WithLabelValues(metrics.Outcome(err)).Inc()

	if err != nil {
		slog.Error("order placement failed", "attempt_id", pending.AttemptID, "error", err)
		return errorResult(err.Error())
	}
	if orderID == "" {
		slog.Error("order placement returned no order ID", "attempt_id", pending.AttemptID)
		return errorResult(msgMalformedOrder)
	}

	slog.Info("order placed", "attempt_id", pending.AttemptID, "order_id", orderID)

	if pending.SaveAddress && pending.ShippingAddress.Complete() {
		if saveErr := f.backend.SaveAddress(ctx, pending.ShippingAddress); saveErr != nil {
			// Best effort: a failed address save never downgrades the order.
			slog.Warn("address save failed after successful order", "attempt_id", pending.AttemptID, "error", saveErr)
		}
	}

	return Result{State: StateSuccess, OrderID: orderID}
}

// readPending loads the pending payload without consuming it; deletion is
// tied to the placement attempt, not the read.
func (f *Flow) readPending(ctx context.Context) (models.PendingOrder, bool) {
	raw, err := f.session.Get(ctx, pendingOrderKey)
	if err != nil {
		return models.PendingOrder{}, false
	}
	var pending models.PendingOrder
	if err := json.Unmarshal(raw, &pending); err != nil {
		slog.Error("pending order undecodable", "error", err)
		return models.PendingOrder{}, false
	}
	return pending, true
}

// buildOrderRequest attaches the gateway reference to the field matching the
// payload's payment method.
func buildOrderRequest(pending models.PendingOrder, reference string) remote.OrderRequest {
	req := remote.OrderRequest{
		ShippingAddress:  pending.ShippingAddress,
		PaymentMethod:    pending.PaymentMethod,
		CouponCode:       pending.CouponCode,
		ShippingMethodID: pending.ShippingMethodID,
		ShippingAmount:   pending.ShippingAmount,
	}
	switch pending.PaymentMethod {
	case "cashfree":
		req.CashfreeOrderID = reference
	default:
		req.PaymentReference = reference
	}
	return req
}

// gatewayReference extracts the gateway-assigned reference from the return
// URL. Param names differ per gateway: cashfree sends order_id, others a
// generic reference.
func gatewayReference(returnURL string) string {
	u, err := url.Parse(returnURL)
	if err != nil {
		return ""
	}
	query := u.Query()
	if ref := query.Get("order_id"); ref != "" {
		return ref
	}
	return query.Get("reference")
}

func errorResult(message string) Result {
	return Result{State: StateError, Message: message}
}
