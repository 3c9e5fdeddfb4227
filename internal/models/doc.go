// Package models defines the core domain models for the storefront cart and
// checkout subsystem.
//
// # Models
//
//   - CartItem: one line in a cart, unique by its identity key
//   - ProductSnapshot: denormalized product data carried on guest cart lines
//   - TaxRule: optional per-product tax override
//   - Address: shipping address, reusable when saved to the address book
//   - PendingOrder: the draft order persisted across a payment gateway redirect
//
// # Design Principles
//
//  1. **Client-side snapshot, server-side truth**: guest carts carry product
//     snapshots so the UI can render without a catalog lookup; authenticated
//     carts adopt the backend's response verbatim.
//  2. **Identity by key**: two cart lines are the same line if and only if
//     their (productId, variationName) keys match. Variation attributes are
//     descriptive only.
//  3. **JSON shapes match the backend**: field tags mirror the REST API so the
//     same types serialize to storage and to the wire.
package models
