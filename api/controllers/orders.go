package controllers

import (
	"net/http"

	"github.com/lumina-commerce/storefront-backend/api/middleware"
	"github.com/lumina-commerce/storefront-backend/api/responses"
	"github.com/lumina-commerce/storefront-backend/api/validators"
	"github.com/lumina-commerce/storefront-backend/internal/orders"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
)

// OrdersList returns the signed-in shopper's orders, newest first.
func OrdersList(repo *orders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view orders"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := repo.ListByUser(ctx, userID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
