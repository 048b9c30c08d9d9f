package remotestore

import (
	"context"

	"github.com/lumina-commerce/storefront-backend/pkg/types"
)

// Store is the account-scoped backend for carts and wishlists. Reads for a
// user with no saved documents return an empty snapshot, not an error.
type Store interface {
	Read(ctx context.Context, userID string) (types.RemoteSnapshot, error)
	WriteCart(ctx context.Context, userID string, cart types.StoredCart) error
	WriteWishlist(ctx context.Context, userID string, wishlist types.StoredWishlist) error
}
