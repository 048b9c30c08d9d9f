package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumina-commerce/storefront-backend/api/responses"
	"github.com/lumina-commerce/storefront-backend/api/validators"
	"github.com/lumina-commerce/storefront-backend/internal/shopper"
	"github.com/lumina-commerce/storefront-backend/internal/wishlist"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
)

type addWishlistItemPayload struct {
	ProductID string `json:"productId" validate:"required,uuid4"`
}

type wishlistView struct {
	Entries   []wishlist.Entry `json:"entries"`
	GateState string           `json:"gateState"`
}

func viewWishlist(sess *shopper.Session) wishlistView {
	return wishlistView{
		Entries:   sess.Wishlist.Entries(),
		GateState: string(sess.Gate.State()),
	}
}

// WishlistFetch returns the in-memory wishlist for the device session.
func WishlistFetch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionOrError(w, r, logg)
		if sess == nil {
			return
		}
		responses.WriteSuccess(w, viewWishlist(sess))
	}
}

// WishlistAddItem saves a product. Guests get the intent parked on the auth
// gate instead of a wishlist change, same as the cart path.
func WishlistAddItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := sessionOrError(w, r, logg)
		if sess == nil {
			return
		}

		var payload addWishlistItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		if err := sess.Wishlist.Add(ctx, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, viewWishlist(sess))
	}
}

// WishlistRemoveItem drops a product from the wishlist. Removing an absent
// product is a no-op.
func WishlistRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := sessionOrError(w, r, logg)
		if sess == nil {
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		sess.Wishlist.Remove(ctx, productID)
		responses.WriteSuccess(w, viewWishlist(sess))
	}
}
