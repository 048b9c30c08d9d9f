package checkout

import (
	"context"
	"strings"

	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

// DeclineCard is the test card number the simulator always declines.
const DeclineCard = "4000000000000002"

// Request is the charge handed to the payment gateway.
type Request struct {
	UserID      string
	AmountCents int64
	Currency    string
	CardNumber  string
}

// Result is a successful charge.
type Result struct {
	TransactionID string
}

// Gateway processes payments. The storefront treats it as opaque: success
// yields a transaction id, failure yields an error and nothing else.
type Gateway interface {
	Process(ctx context.Context, req Request) (Result, error)
}

// Simulator is a deterministic Gateway for development and tests. It
// declines the designated decline card and any charge over the limit;
// everything else succeeds.
type Simulator struct {
	MaxAmountCents int64
}

func NewSimulator(maxAmountCents int64) *Simulator {
	return &Simulator{MaxAmountCents: maxAmountCents}
}

func (s *Simulator) Process(_ context.Context, req Request) (Result, error) {
	card := strings.ReplaceAll(req.CardNumber, " ", "")
	if card == DeclineCard {
		return Result{}, pkgerrors.New(pkgerrors.CodePayment, "card declined")
	}
	if s.MaxAmountCents > 0 && req.AmountCents > s.MaxAmountCents {
		return Result{}, pkgerrors.New(pkgerrors.CodePayment, "amount exceeds processing limit")
	}
	return Result{TransactionID: "sim_" + uuid.NewString()}, nil
}
