package types

import (
	"strings"

	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
)

// Address is the shipping address captured at checkout.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// Validate checks the required fields. Failures carry the validation code
// so they surface to the client as a 400, not an internal error.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Line1) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address: missing city")
	}
	if strings.TrimSpace(a.State) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address: missing state")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address: missing postal_code")
	}
	if strings.TrimSpace(a.Country) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address: missing country")
	}
	return nil
}
