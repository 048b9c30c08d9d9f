package types

import "github.com/google/uuid"

// StoredCartLine is the dehydrated form of a cart line: the minimal reference
// persisted to the device store or the remote user store. Display data is
// re-attached from the catalog on hydration.
type StoredCartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

// StoredCart is the durable cart representation.
type StoredCart []StoredCartLine

// StoredWishlist is the durable wishlist representation, set semantics.
type StoredWishlist []uuid.UUID

// Contains reports set membership.
func (w StoredWishlist) Contains(productID uuid.UUID) bool {
	for _, id := range w {
		if id == productID {
			return true
		}
	}
	return false
}

// RemoteSnapshot is the per-user document held by the remote store.
type RemoteSnapshot struct {
	Cart     StoredCart     `json:"cart"`
	Wishlist StoredWishlist `json:"wishlist"`
}
