// Package remote is the REST client for the storefront backend's cart, order
// and address endpoints. It is a thin pass-through: backend error messages are
// surfaced verbatim and cart responses are adopted as-is by the caller.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mercaly/storefront/internal/models"
)

// MergeItem is one guest cart line submitted to the merge endpoint.
// Conflict resolution for lines already in the remote cart is the backend's
// policy, not the client's.
type MergeItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderRequest is the order placement payload. Exactly one of the
// gateway-specific reference fields is set, chosen by payment method.
type OrderRequest struct {
	ShippingAddress models.Address `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`

	CouponCode       string  `json:"couponCode,omitempty"`
	ShippingMethodID string  `json:"shippingMethodId,omitempty"`
	ShippingAmount   float64 `json:"shippingAmount,omitempty"`

	CashfreeOrderID  string `json:"cashfreeOrderId,omitempty"`
	PaymentReference string `json:"paymentReference,omitempty"`
}

// Client calls the backend REST API. All cart, order and address calls
// require an authenticated session token; callers gate on authentication
// state before invoking them.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      func() string
}

// NewClient creates a backend client. tokenSource returns the current bearer
// token and is consulted on every request, so a login that lands mid-session
// takes effect without rebuilding the client.
func NewClient(baseURL string, tokenSource func() string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      tokenSource,
	}
}

type cartEnvelope struct {
	Data struct {
		Items []models.CartItem `json:"items"`
	} `json:"data"`
}

type orderEnvelope struct {
	Data struct {
		ID string `json:"_id"`
	} `json:"data"`
}

// Get fetches the authenticated user's cart.
func (c *Client) Get(ctx context.Context) ([]models.CartItem, error) {
	return c.cartCall(ctx, http.MethodGet, "/api/cart", nil)
}

// Add adds quantity of a product to the cart and returns the updated cart.
func (c *Client) Add(ctx context.Context, productID string, quantity int) ([]models.CartItem, error) {
	body := map[string]any{"productId": productID, "quantity": quantity}
	return c.cartCall(ctx, http.MethodPost, "/api/cart", body)
}

// Update sets a line's quantity. The raw value is forwarded; the server
// removes the line when quantity <= 0.
func (c *Client) Update(ctx context.Context, productID string, quantity int) ([]models.CartItem, error) {
	body := map[string]any{"productId": productID, "quantity": quantity}
	return c.cartCall(ctx, http.MethodPut, "/api/cart", body)
}

// Remove deletes a line from the cart and returns the updated cart.
func (c *Client) Remove(ctx context.Context, productID string) ([]models.CartItem, error) {
	return c.cartCall(ctx, http.MethodDelete, "/api/cart/"+url.PathEscape(productID), nil)
}

// Merge submits guest cart lines into the remote cart in one call and
// returns the merged cart.
func (c *Client) Merge(ctx context.Context, items []MergeItem) ([]models.CartItem, error) {
	body := map[string]any{"items": items}
	return c.cartCall(ctx, http.MethodPost, "/api/cart/merge", body)
}

// PlaceOrder submits a draft order and returns the placed order's ID.
// An empty ID with a nil error means the backend returned a malformed
// success; callers treat that as failure.
func (c *Client) PlaceOrder(ctx context.Context, order OrderRequest) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/orders", order)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%s", errorMessage(resp))
	}

	var env orderEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("failed to decode order response: %w", err)
	}
	return env.Data.ID, nil
}

// SaveAddress stores a reusable address book entry.
func (c *Client) SaveAddress(ctx context.Context, addr models.Address) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/addresses", addr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s", errorMessage(resp))
	}
	return nil
}

func (c *Client) cartCall(ctx context.Context, method, path string, body any) ([]models.CartItem, error) {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s", errorMessage(resp))
	}

	var env cartEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode cart response: %w", err)
	}
	return env.Data.Items, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

// errorMessage extracts the backend's error string from a non-2xx response.
// The backend reports either {"message": "..."} or {"error": "..."}; when
// neither decodes, the raw body (or status) stands in.
func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(resp.Body)

	var decoded struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &decoded); err == nil {
		if decoded.Message != "" {
			return decoded.Message
		}
		if decoded.Error != "" {
			return decoded.Error
		}
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return fmt.Sprintf("request failed with status %d", resp.StatusCode)
}
