package remotestore

import (
	"context"
	"sync"

	"github.com/lumina-commerce/storefront-backend/pkg/types"
)

// Memory is an in-memory Store for tests. It counts writes so tests can
// assert how often the sync layer flushed.
type Memory struct {
	mu        sync.Mutex
	carts     map[string]types.StoredCart
	wishlists map[string]types.StoredWishlist

	cartWrites     map[string]int
	wishlistWrites map[string]int

	// Err, when set, is returned by every operation.
	Err error
}

func NewMemory() *Memory {
	return &Memory{
		carts:          make(map[string]types.StoredCart),
		wishlists:      make(map[string]types.StoredWishlist),
		cartWrites:     make(map[string]int),
		wishlistWrites: make(map[string]int),
	}
}

func (m *Memory) Read(_ context.Context, userID string) (types.RemoteSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return types.RemoteSnapshot{}, m.Err
	}
	return types.RemoteSnapshot{
		Cart:     append(types.StoredCart(nil), m.carts[userID]...),
		Wishlist: append(types.StoredWishlist(nil), m.wishlists[userID]...),
	}, nil
}

func (m *Memory) WriteCart(_ context.Context, userID string, cart types.StoredCart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.carts[userID] = append(types.StoredCart(nil), cart...)
	m.cartWrites[userID]++
	return nil
}

func (m *Memory) WriteWishlist(_ context.Context, userID string, wishlist types.StoredWishlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.wishlists[userID] = append(types.StoredWishlist(nil), wishlist...)
	m.wishlistWrites[userID]++
	return nil
}

// Seed installs a snapshot for a user without counting a write.
func (m *Memory) Seed(userID string, snap types.RemoteSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[userID] = append(types.StoredCart(nil), snap.Cart...)
	m.wishlists[userID] = append(types.StoredWishlist(nil), snap.Wishlist...)
}

// CartWrites reports how many times WriteCart ran for a user.
func (m *Memory) CartWrites(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cartWrites[userID]
}

// WishlistWrites reports how many times WriteWishlist ran for a user.
func (m *Memory) WishlistWrites(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wishlistWrites[userID]
}

// Cart returns the stored cart for a user.
func (m *Memory) Cart(userID string) types.StoredCart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(types.StoredCart(nil), m.carts[userID]...)
}

// Wishlist returns the stored wishlist for a user.
func (m *Memory) Wishlist(userID string) types.StoredWishlist {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(types.StoredWishlist(nil), m.wishlists[userID]...)
}
