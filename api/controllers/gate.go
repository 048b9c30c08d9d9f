package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lumina-commerce/storefront-backend/api/responses"
	"github.com/lumina-commerce/storefront-backend/internal/authgate"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
)

type pendingIntentView struct {
	Kind      string    `json:"kind"`
	ProductID uuid.UUID `json:"productId"`
	VariantID uuid.UUID `json:"variantId,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
}

type gateView struct {
	State   string              `json:"state"`
	Pending []pendingIntentView `json:"pending"`
}

func viewGate(gate *authgate.Gate) gateView {
	view := gateView{
		State:   string(gate.State()),
		Pending: []pendingIntentView{},
	}
	for _, intent := range gate.Pending() {
		switch i := intent.(type) {
		case authgate.CartAdd:
			view.Pending = append(view.Pending, pendingIntentView{
				Kind:      string(i.Kind()),
				ProductID: i.ProductID,
				VariantID: i.VariantID,
				Quantity:  i.Quantity,
			})
		case authgate.WishlistAdd:
			view.Pending = append(view.Pending, pendingIntentView{
				Kind:      string(i.Kind()),
				ProductID: i.ProductID,
			})
		}
	}
	return view
}

// GateStatus reports whether a sign-in prompt is active and which intents
// are parked behind it.
func GateStatus(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionOrError(w, r, logg)
		if sess == nil {
			return
		}
		responses.WriteSuccess(w, viewGate(sess.Gate))
	}
}

// GateDecline is the "continue as guest" choice: parked intents apply to the
// device-backed guest state instead of waiting for a sign-in.
func GateDecline(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := sessionOrError(w, r, logg)
		if sess == nil {
			return
		}
		sess.Gate.Decline(ctx)
		responses.WriteSuccess(w, viewGate(sess.Gate))
	}
}

// GateCancel dismisses the prompt and discards whatever was parked.
func GateCancel(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := sessionOrError(w, r, logg)
		if sess == nil {
			return
		}
		sess.Gate.Cancel(ctx)
		responses.WriteSuccess(w, viewGate(sess.Gate))
	}
}
