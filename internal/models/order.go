package models

// Address is a shipping address. It is part of the pending order payload and,
// when the shopper opts in, saved to their address book after a successful
// order.
type Address struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Complete reports whether every field required for a reusable address book
// entry is present. State is optional in some countries.
func (a Address) Complete() bool {
	return a.FullName != "" &&
		a.Phone != "" &&
		a.Street != "" &&
		a.City != "" &&
		a.PostalCode != "" &&
		a.Country != ""
}

// PendingOrder is the serialized draft of an order awaiting gateway
// confirmation. It is written to session-scoped storage at checkout
// submission, read back exactly once on return from the payment gateway,
// and deleted regardless of outcome.
type PendingOrder struct {
	// AttemptID correlates one checkout attempt across logs and metrics.
	AttemptID string `json:"attemptId"`

	ShippingAddress Address `json:"shippingAddress"`

	// PaymentMethod selects which gateway-specific field the payment
	// reference is attached to at confirmation time.
	PaymentMethod string `json:"paymentMethod"`

	CouponCode       string  `json:"couponCode,omitempty"`
	ShippingMethodID string  `json:"shippingMethodId,omitempty"`
	ShippingAmount   float64 `json:"shippingAmount,omitempty"`

	// SaveAddress requests a best-effort address book save after a
	// successful placement.
	SaveAddress bool `json:"saveAddress,omitempty"`
}
