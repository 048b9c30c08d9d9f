package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Product is the read-side view of a sellable product.
type Product struct {
	ID       uuid.UUID
	Title    string
	ImageURL string
	Active   bool
	Variants []Variant
}

// Variant is a purchasable variation of a product.
type Variant struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	Label          string
	UnitPriceCents int
}

// Catalog resolves product and variant references against the live listing set.
// Lookups for inactive or missing entries return found=false rather than an error.
type Catalog interface {
	FindProduct(ctx context.Context, productID uuid.UUID) (*Product, bool, error)
	FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*Product, *Variant, bool, error)
}
