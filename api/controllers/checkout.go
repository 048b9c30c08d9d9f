package controllers

import (
	"net/http"

	"github.com/lumina-commerce/storefront-backend/api/middleware"
	"github.com/lumina-commerce/storefront-backend/api/responses"
	"github.com/lumina-commerce/storefront-backend/api/validators"
	"github.com/lumina-commerce/storefront-backend/internal/checkout"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
	"github.com/lumina-commerce/storefront-backend/pkg/types"
)

type checkoutPayload struct {
	CardNumber      string        `json:"cardNumber" validate:"required"`
	ShippingAddress types.Address `json:"shippingAddress"`
}

// Checkout charges the session's cart and records the order. It runs behind
// the auth middleware, so a guest never reaches this handler.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sess := sessionOrError(w, r, logg)
		if sess == nil {
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out"))
			return
		}

		var payload checkoutPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Checkout(ctx, userID, sess.Cart, checkout.Input{
			CardNumber:      payload.CardNumber,
			ShippingAddress: payload.ShippingAddress,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
