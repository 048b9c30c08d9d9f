package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog product row. IDs are generated in Go so the schema
// works on both postgres and sqlite.
type Product struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey"`
	Title     string    `gorm:"column:title;not null"`
	ImageURL  string    `gorm:"column:image_url"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	Variants  []ProductVariant
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is a purchasable variation of a product (size, colour).
type ProductVariant struct {
	ID             uuid.UUID `gorm:"column:id;primaryKey"`
	ProductID      uuid.UUID `gorm:"column:product_id;not null;index:product_variants_product_id_idx"`
	Label          string    `gorm:"column:label;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
