package catalog

import (
	"context"
	"errors"

	"github.com/lumina-commerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads the catalog from the relational store.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindProduct(ctx context.Context, productID uuid.UUID) (*Product, bool, error) {
	var row models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ? AND active = ?", productID, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	p := fromModel(&row)
	return p, true, nil
}

func (r *Repository) FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*Product, *Variant, bool, error) {
	p, ok, err := r.FindProduct(ctx, productID)
	if err != nil || !ok {
		return nil, nil, false, err
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return p, &p.Variants[i], true, nil
		}
	}
	return nil, nil, false, nil
}

// Seed inserts products with their variants, generating IDs where unset.
// Used by fixtures and the dev bootstrap path.
func (r *Repository) Seed(ctx context.Context, products ...*models.Product) error {
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		for i := range p.Variants {
			if p.Variants[i].ID == uuid.Nil {
				p.Variants[i].ID = uuid.New()
			}
			p.Variants[i].ProductID = p.ID
		}
		if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed product")
		}
	}
	return nil
}

func fromModel(row *models.Product) *Product {
	p := &Product{
		ID:       row.ID,
		Title:    row.Title,
		ImageURL: row.ImageURL,
		Active:   row.Active,
		Variants: make([]Variant, 0, len(row.Variants)),
	}
	for _, v := range row.Variants {
		p.Variants = append(p.Variants, Variant{
			ID:             v.ID,
			ProductID:      v.ProductID,
			Label:          v.Label,
			UnitPriceCents: v.UnitPriceCents,
		})
	}
	return p
}
