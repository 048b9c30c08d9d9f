package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumina-commerce/storefront-backend/pkg/types"
)

// Order is a completed checkout. Line items are stored as a JSON snapshot;
// order history presentation reads them back verbatim.
type Order struct {
	ID              uuid.UUID     `gorm:"column:id;primaryKey"`
	UserID          string        `gorm:"column:user_id;not null;index:orders_user_id_idx"`
	Status          string        `gorm:"column:status;not null"`
	SubtotalCents   int           `gorm:"column:subtotal_cents;not null"`
	TaxCents        int           `gorm:"column:tax_cents;not null"`
	TotalCents      int           `gorm:"column:total_cents;not null"`
	Currency        string        `gorm:"column:currency;not null"`
	TransactionID   string        `gorm:"column:transaction_id"`
	ShippingAddress types.Address `gorm:"column:shipping_address;serializer:json"`
	Items           []OrderItem   `gorm:"column:items;serializer:json"`
	CreatedAt       time.Time     `gorm:"column:created_at;autoCreateTime"`
}

// OrderItem is the denormalized line snapshot embedded in an order.
type OrderItem struct {
	ProductID      uuid.UUID `json:"product_id"`
	VariantID      uuid.UUID `json:"variant_id"`
	Title          string    `json:"title"`
	VariantLabel   string    `json:"variant_label"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
}
