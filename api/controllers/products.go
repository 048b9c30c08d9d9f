package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumina-commerce/storefront-backend/api/responses"
	"github.com/lumina-commerce/storefront-backend/internal/catalog"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
)

type variantView struct {
	ID             uuid.UUID `json:"id"`
	Label          string    `json:"label"`
	UnitPriceCents int       `json:"unitPriceCents"`
}

type productView struct {
	ID       uuid.UUID     `json:"id"`
	Title    string        `json:"title"`
	ImageURL string        `json:"imageUrl"`
	Variants []variantView `json:"variants"`
}

// ProductDetail returns a live product with its purchasable variants.
func ProductDetail(cat catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if cat == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, found, err := cat.FindProduct(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !found {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}

		view := productView{
			ID:       product.ID,
			Title:    product.Title,
			ImageURL: product.ImageURL,
			Variants: make([]variantView, 0, len(product.Variants)),
		}
		for _, variant := range product.Variants {
			view.Variants = append(view.Variants, variantView{
				ID:             variant.ID,
				Label:          variant.Label,
				UnitPriceCents: variant.UnitPriceCents,
			})
		}

		responses.WriteSuccess(w, view)
	}
}
