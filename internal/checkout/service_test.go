package checkout

import (
	"context"
	"testing"

	"github.com/lumina-commerce/storefront-backend/internal/cart"
	"github.com/lumina-commerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

type stubCart struct {
	lines   []cart.Line
	cleared bool
}

func (s *stubCart) Lines() []cart.Line      { return s.lines }
func (s *stubCart) Clear(_ context.Context) { s.cleared = true }

type stubOrders struct {
	created *models.Order
	err     error
}

func (s *stubOrders) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	order.ID = uuid.New()
	s.created = order
	return order, nil
}

func validAddress() types.Address {
	return types.Address{
		Line1:      "500 Elm St",
		City:       "Austin",
		State:      "TX",
		PostalCode: "78701",
		Country:    "US",
	}
}

func twoLineCart() *stubCart {
	return &stubCart{lines: []cart.Line{
		{ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 2, Title: "Canvas Tote", UnitPriceCents: 2400},
		{ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 1, Title: "Wool Beanie", UnitPriceCents: 1800},
	}}
}

func newTestService(t *testing.T, orders *stubOrders) Service {
	t.Helper()
	svc, err := NewService(Params{
		Gateway:  NewSimulator(1_000_000),
		Orders:   orders,
		Currency: "USD",
		TaxRate:  "0.0825",
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestCheckoutHappyPath(t *testing.T) {
	orders := &stubOrders{}
	svc := newTestService(t, orders)
	source := twoLineCart()

	order, err := svc.Checkout(context.Background(), "user-1", source, Input{
		CardNumber:      "4242424242424242",
		ShippingAddress: validAddress(),
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// subtotal 2*2400 + 1800 = 6600; tax at 8.25% = 544.5, rounded half
	// away from zero to 545.
	wantSubtotal := 6600
	wantTax := 545
	if order.SubtotalCents != wantSubtotal {
		t.Fatalf("subtotal: got %d want %d", order.SubtotalCents, wantSubtotal)
	}
	if order.TaxCents != wantTax {
		t.Fatalf("tax: got %d want %d", order.TaxCents, wantTax)
	}
	if order.TotalCents != wantSubtotal+wantTax {
		t.Fatalf("total: got %d", order.TotalCents)
	}
	if order.TransactionID == "" {
		t.Fatal("expected transaction id")
	}
	if order.Status != "paid" {
		t.Fatalf("unexpected status %q", order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 item snapshots, got %d", len(order.Items))
	}
	if !source.cleared {
		t.Fatal("expected cart to be cleared after checkout")
	}
}

func TestCheckoutDeclinedCardLeavesCart(t *testing.T) {
	orders := &stubOrders{}
	svc := newTestService(t, orders)
	source := twoLineCart()

	_, err := svc.Checkout(context.Background(), "user-1", source, Input{
		CardNumber:      DeclineCard,
		ShippingAddress: validAddress(),
	})
	if err == nil {
		t.Fatal("expected decline")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodePayment {
		t.Fatalf("expected payment error code, got %v", err)
	}
	if source.cleared {
		t.Fatal("declined payment must not clear the cart")
	}
	if orders.created != nil {
		t.Fatal("declined payment must not create an order")
	}
}

func TestCheckoutOverLimitDeclined(t *testing.T) {
	orders := &stubOrders{}
	svc, err := NewService(Params{
		Gateway:  NewSimulator(1000),
		Orders:   orders,
		Currency: "USD",
		TaxRate:  "0",
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Checkout(context.Background(), "user-1", twoLineCart(), Input{
		CardNumber:      "4242424242424242",
		ShippingAddress: validAddress(),
	})
	if err == nil {
		t.Fatal("expected over-limit decline")
	}
}

func TestCheckoutValidation(t *testing.T) {
	svc := newTestService(t, &stubOrders{})
	ctx := context.Background()

	noCity := validAddress()
	noCity.City = ""
	noCountry := validAddress()
	noCountry.Country = ""

	cases := []struct {
		name     string
		userID   string
		source   CartSource
		input    Input
		wantCode pkgerrors.Code
	}{
		{
			name:     "guest",
			userID:   "",
			source:   twoLineCart(),
			input:    Input{CardNumber: "4242424242424242", ShippingAddress: validAddress()},
			wantCode: pkgerrors.CodeUnauthorized,
		},
		{
			name:     "empty cart",
			userID:   "user-1",
			source:   &stubCart{},
			input:    Input{CardNumber: "4242424242424242", ShippingAddress: validAddress()},
			wantCode: pkgerrors.CodeValidation,
		},
		{
			name:     "missing card",
			userID:   "user-1",
			source:   twoLineCart(),
			input:    Input{ShippingAddress: validAddress()},
			wantCode: pkgerrors.CodeValidation,
		},
		{
			name:     "missing address",
			userID:   "user-1",
			source:   twoLineCart(),
			input:    Input{CardNumber: "4242424242424242"},
			wantCode: pkgerrors.CodeValidation,
		},
		{
			name:     "missing city",
			userID:   "user-1",
			source:   twoLineCart(),
			input:    Input{CardNumber: "4242424242424242", ShippingAddress: noCity},
			wantCode: pkgerrors.CodeValidation,
		},
		{
			name:     "missing country",
			userID:   "user-1",
			source:   twoLineCart(),
			input:    Input{CardNumber: "4242424242424242", ShippingAddress: noCountry},
			wantCode: pkgerrors.CodeValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Checkout(ctx, tc.userID, tc.source, tc.input)
			if err == nil {
				t.Fatal("expected validation failure")
			}
			if coded := pkgerrors.As(err); coded == nil || coded.Code() != tc.wantCode {
				t.Fatalf("expected code %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestCheckoutOrderWriteFailureSurfaces(t *testing.T) {
	orders := &stubOrders{err: pkgerrors.New(pkgerrors.CodeDependency, "db down")}
	svc := newTestService(t, orders)
	source := twoLineCart()

	_, err := svc.Checkout(context.Background(), "user-1", source, Input{
		CardNumber:      "4242424242424242",
		ShippingAddress: validAddress(),
	})
	if err == nil {
		t.Fatal("expected order write failure to surface")
	}
	if source.cleared {
		t.Fatal("cart must survive a failed order write")
	}
}
