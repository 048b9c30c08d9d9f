package checkout

import (
	"context"

	"github.com/lumina-commerce/storefront-backend/internal/cart"
	"github.com/lumina-commerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
	"github.com/lumina-commerce/storefront-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// CartSource is the slice of the cart engine checkout needs: read the lines
// for totalling, clear them once the order is paid.
type CartSource interface {
	Lines() []cart.Line
	Clear(ctx context.Context)
}

type orderWriter interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
}

// Input is the validated checkout payload.
type Input struct {
	CardNumber      string
	ShippingAddress types.Address
}

// Service exposes the checkout operation.
type Service interface {
	Checkout(ctx context.Context, userID string, source CartSource, input Input) (*models.Order, error)
}

type service struct {
	gateway Gateway
	orders  orderWriter
	logg    *logger.Logger

	currency string
	taxRate  decimal.Decimal
}

// Params collects the service dependencies.
type Params struct {
	Gateway Gateway
	Orders  orderWriter
	Logger  *logger.Logger

	Currency string
	TaxRate  string
}

// NewService builds a checkout service backed by the provided stack.
func NewService(params Params) (Service, error) {
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order writer required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "checkout"})
	}
	if params.Currency == "" {
		params.Currency = "USD"
	}
	rate, err := decimal.NewFromString(params.TaxRate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse tax rate")
	}
	if rate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tax rate must be non-negative")
	}
	return &service{
		gateway:  params.Gateway,
		orders:   params.Orders,
		logg:     params.Logger,
		currency: params.Currency,
		taxRate:  rate,
	}, nil
}

// Checkout charges the cart total plus tax and records the order. The cart
// is cleared only after the order row is written; a declined payment leaves
// the cart untouched.
func (s *service) Checkout(ctx context.Context, userID string, source CartSource, input Input) (*models.Order, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "checkout requires a signed-in shopper")
	}
	if source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart source required")
	}
	if input.CardNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card number is required")
	}
	if err := input.ShippingAddress.Validate(); err != nil {
		return nil, err
	}

	lines := source.Lines()
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	subtotal := 0
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		subtotal += l.UnitPriceCents * l.Quantity
		items = append(items, models.OrderItem{
			ProductID:      l.ProductID,
			VariantID:      l.VariantID,
			Title:          l.Title,
			VariantLabel:   l.VariantLabel,
			UnitPriceCents: l.UnitPriceCents,
			Quantity:       l.Quantity,
		})
	}

	tax := decimal.NewFromInt(int64(subtotal)).Mul(s.taxRate).Round(0)
	taxCents := int(tax.IntPart())
	total := subtotal + taxCents

	result, err := s.gateway.Process(ctx, Request{
		UserID:      userID,
		AmountCents: int64(total),
		Currency:    s.currency,
		CardNumber:  input.CardNumber,
	})
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		Status:          "paid",
		SubtotalCents:   subtotal,
		TaxCents:        taxCents,
		TotalCents:      total,
		Currency:        s.currency,
		TransactionID:   result.TransactionID,
		ShippingAddress: input.ShippingAddress,
		Items:           items,
	}
	created, err := s.orders.Create(ctx, order)
	if err != nil {
		// The charge went through but the order row did not. Keep the
		// transaction id in the log for manual reconciliation.
		s.logg.Error(s.logg.WithField(ctx, "transaction_id", result.TransactionID), "order write failed after charge", err)
		return nil, err
	}

	source.Clear(ctx)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":    created.ID.String(),
		"total_cents": total,
	}), "checkout complete")
	return created, nil
}
