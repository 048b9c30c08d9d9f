package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumina-commerce/storefront-backend/api/middleware"
	"github.com/lumina-commerce/storefront-backend/api/responses"
	"github.com/lumina-commerce/storefront-backend/api/validators"
	"github.com/lumina-commerce/storefront-backend/internal/cart"
	"github.com/lumina-commerce/storefront-backend/internal/shopper"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
)

type addCartItemPayload struct {
	ProductID string `json:"productId" validate:"required,uuid4"`
	VariantID string `json:"variantId" validate:"required,uuid4"`
	Quantity  int    `json:"quantity"`
}

type setCartQuantityPayload struct {
	Quantity int `json:"quantity"`
}

type cartView struct {
	Lines      []cart.Line `json:"lines"`
	Count      int         `json:"count"`
	TotalCents int         `json:"totalCents"`
	GateState  string      `json:"gateState"`
}

func viewCart(sess *shopper.Session) cartView {
	return cartView{
		Lines:      sess.Cart.Lines(),
		Count:      sess.Cart.Count(),
		TotalCents: sess.Cart.TotalCents(),
		GateState:  string(sess.Gate.State()),
	}
}

func sessionOrError(w http.ResponseWriter, r *http.Request, logg *logger.Logger) *shopper.Session {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		err := pkgerrors.New(pkgerrors.CodeInternal, "shopper session missing")
		responses.WriteError(r.Context(), logg, w, err)
	}
	return sess
}

// CartFetch returns the in-memory cart for the device session.
func CartFetch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionOrError(w, r, logg)
		if sess == nil {
			return
		}
		responses.WriteSuccess(w, viewCart(sess))
	}
}

// CartAddItem adds a variant to the cart. For a guest the intent is parked
// on the auth gate and the cart itself does not change; the returned gate
// state tells the client a sign-in prompt is active.
func CartAddItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := sessionOrError(w, r, logg)
		if sess == nil {
			return
		}

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		variantID, err := uuid.Parse(payload.VariantID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}

		if err := sess.Cart.Add(ctx, productID, variantID, payload.Quantity); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, viewCart(sess))
	}
}

// CartSetQuantity replaces a line's quantity. Zero or below removes the line.
func CartSetQuantity(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := sessionOrError(w, r, logg)
		if sess == nil {
			return
		}

		variantID, err := uuid.Parse(chi.URLParam(r, "variantId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}

		var payload setCartQuantityPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sess.Cart.SetQuantity(ctx, variantID, payload.Quantity)
		responses.WriteSuccess(w, viewCart(sess))
	}
}

// CartRemoveItem deletes a line regardless of quantity.
func CartRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := sessionOrError(w, r, logg)
		if sess == nil {
			return
		}

		variantID, err := uuid.Parse(chi.URLParam(r, "variantId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}

		sess.Cart.Remove(ctx, variantID)
		responses.WriteSuccess(w, viewCart(sess))
	}
}

// CartClear empties the cart and persists the empty state immediately.
func CartClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := sessionOrError(w, r, logg)
		if sess == nil {
			return
		}

		sess.Cart.Clear(ctx)
		responses.WriteSuccess(w, viewCart(sess))
	}
}
