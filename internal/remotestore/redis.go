package remotestore

import (
	"context"
	"encoding/json"
	"errors"

	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/redis"
	"github.com/lumina-commerce/storefront-backend/pkg/types"
)

const (
	collectionCart     = "cart"
	collectionWishlist = "wishlist"
)

// Redis persists per-user cart and wishlist documents as JSON values keyed
// by user id. Documents have no TTL; saved carts live until overwritten.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) (*Redis, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "remote store requires a redis client")
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Read(ctx context.Context, userID string) (types.RemoteSnapshot, error) {
	var snap types.RemoteSnapshot

	raw, err := r.client.Get(ctx, r.client.UserDocKey(userID, collectionCart))
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return snap, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read remote cart")
	default:
		if err := json.Unmarshal([]byte(raw), &snap.Cart); err != nil {
			return snap, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode remote cart")
		}
	}

	raw, err = r.client.Get(ctx, r.client.UserDocKey(userID, collectionWishlist))
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return snap, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read remote wishlist")
	default:
		if err := json.Unmarshal([]byte(raw), &snap.Wishlist); err != nil {
			return snap, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode remote wishlist")
		}
	}

	return snap, nil
}

func (r *Redis) WriteCart(ctx context.Context, userID string, cart types.StoredCart) error {
	return r.write(ctx, userID, collectionCart, cart)
}

func (r *Redis) WriteWishlist(ctx context.Context, userID string, wishlist types.StoredWishlist) error {
	return r.write(ctx, userID, collectionWishlist, wishlist)
}

func (r *Redis) write(ctx context.Context, userID, collection string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode remote "+collection)
	}
	if err := r.client.Set(ctx, r.client.UserDocKey(userID, collection), payload, 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write remote "+collection)
	}
	return nil
}
