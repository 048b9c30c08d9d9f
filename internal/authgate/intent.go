package authgate

import "github.com/google/uuid"

// Kind distinguishes the pending intent slots.
type Kind string

const (
	KindCart     Kind = "cart"
	KindWishlist Kind = "wishlist"
)

// Intent is a deferred action captured while the shopper was a guest and the
// action required an account. Implementations are the only two intent shapes
// the gate accepts.
type Intent interface {
	Kind() Kind
	sealed()
}

// CartAdd is a deferred add-to-cart.
type CartAdd struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int
}

func (CartAdd) Kind() Kind { return KindCart }
func (CartAdd) sealed()    {}

// WishlistAdd is a deferred wishlist save.
type WishlistAdd struct {
	ProductID uuid.UUID
}

func (WishlistAdd) Kind() Kind { return KindWishlist }
func (WishlistAdd) sealed()    {}
