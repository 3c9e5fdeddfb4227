package models

// TaxType discriminates the two supported tax override kinds.
type TaxType string

const (
	// TaxPercentage charges value percent of the line amount.
	TaxPercentage TaxType = "percentage"

	// TaxFlat charges value per unit, independent of price.
	TaxFlat TaxType = "flat"
)

// TaxRule is an optional per-product tax override.
// A nil rule, or one with Value <= 0, means "use the store default percentage".
type TaxRule struct {
	// Type is the override kind ("percentage" or "flat").
	Type TaxType `json:"taxType"`

	// Value is the percentage or per-unit amount, depending on Type.
	Value float64 `json:"value"`
}

// ProductSnapshot is denormalized product data captured when a line is added
// to a guest cart, so the cart page renders without a catalog lookup.
// For authenticated carts the remote response is authoritative and any
// snapshot it carries replaces this one.
type ProductSnapshot struct {
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Image    string   `json:"image,omitempty"`
	IsActive bool     `json:"isActive"`
	Stock    int      `json:"stock"`
	Tax      *TaxRule `json:"tax,omitempty"`
}

// VariationAttribute is one descriptive name/value pair on a variation.
// Attributes never participate in line identity.
type VariationAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CartItem is one line in a cart.
type CartItem struct {
	// ProductID identifies the product. Required.
	ProductID string `json:"productId"`

	// VariationName, together with ProductID, forms the line's identity key.
	// Empty when the product has no variations.
	VariationName string `json:"variationName,omitempty"`

	// Quantity is always >= 1 in a stored cart; an update to <= 0 removes
	// the line.
	Quantity int `json:"quantity"`

	// VariationAttributes describe the chosen variation for display.
	VariationAttributes []VariationAttribute `json:"variationAttributes,omitempty"`

	// Price is the snapshot price locked at add time. When nil the line's
	// current catalog price applies (best-effort guest pricing).
	Price *float64 `json:"price,omitempty"`

	// Product is the optional denormalized snapshot for guest rendering.
	Product *ProductSnapshot `json:"product,omitempty"`
}

// Key returns the line's identity key.
func (i CartItem) Key() string {
	return LineKey(i.ProductID, i.VariationName)
}

// UnitPrice returns the effective per-unit price for display aggregates:
// the locked snapshot price when present, otherwise the product snapshot's
// catalog price, otherwise zero.
func (i CartItem) UnitPrice() float64 {
	if i.Price != nil {
		return *i.Price
	}
	if i.Product != nil {
		return i.Product.Price
	}
	return 0
}

// LineKey builds the identity key for a (productId, variationName) pair.
func LineKey(productID, variationName string) string {
	return productID + "::" + variationName
}
