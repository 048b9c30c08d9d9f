package authgate

import (
	"context"
	"sync"

	"github.com/lumina-commerce/storefront-backend/pkg/logger"
	"github.com/lumina-commerce/storefront-backend/pkg/metrics"
)

// State is the gate's lifecycle phase.
type State string

const (
	// StateIdle means no sign-in prompt is active and no intents are held.
	StateIdle State = "idle"
	// StateAwaitingIdentity means at least one intent is parked and the
	// shopper has been asked to sign in.
	StateAwaitingIdentity State = "awaiting_identity"
)

const (
	outcomeSubmitted = "submitted"
	outcomeReplaced  = "replaced"
	outcomeReplayed  = "replayed"
	outcomeDeclined  = "declined"
	outcomeDismissed = "dismissed"
)

// Surface is the sign-in prompt shown when a guest action needs an account.
type Surface interface {
	PromptSignIn(ctx context.Context)
}

// CartTarget is the slice of the cart engine the gate drives. ReplayAdd runs
// after sign-in with identity present; GuestAdd is the "continue as guest"
// path that upserts straight into the device-backed cart.
type CartTarget interface {
	ReplayAdd(ctx context.Context, intent CartAdd) error
	GuestAdd(ctx context.Context, intent CartAdd) error
}

// WishlistTarget mirrors CartTarget for the wishlist engine.
type WishlistTarget interface {
	ReplayAdd(ctx context.Context, intent WishlistAdd) error
	GuestAdd(ctx context.Context, intent WishlistAdd) error
}

// Params collects the gate's dependencies.
type Params struct {
	Surface Surface
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics
}

// Gate parks guest actions that require an account and resolves them once
// the shopper picks a path: sign in (replay with identity), continue as
// guest (apply through the guest-direct engine paths), or dismiss (drop).
// Each intent kind has a single slot; a newer intent of the same kind
// overwrites the older one. A failed sign-in attempt does not touch the
// gate, so parked intents survive for a retry.
type Gate struct {
	mu       sync.Mutex
	state    State
	cart     *CartAdd
	wishlist *WishlistAdd

	cartTarget     CartTarget
	wishlistTarget WishlistTarget

	surface Surface
	logg    *logger.Logger
	met     *metrics.SyncMetrics
}

func NewGate(params Params) (*Gate, error) {
	if params.Surface == nil {
		params.Surface = noopSurface{}
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "authgate"})
	}
	return &Gate{
		state:   StateIdle,
		surface: params.Surface,
		logg:    params.Logger,
		met:     params.Metrics,
	}, nil
}

// BindEngines wires the engines the gate resolves intents against. Called
// once at session assembly; the gate and the engines reference each other,
// so binding happens after both exist.
func (g *Gate) BindEngines(cart CartTarget, wishlist WishlistTarget) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cartTarget = cart
	g.wishlistTarget = wishlist
}

// Submit parks an intent and prompts for sign-in. The prompt is raised on
// every submit so the surface can refresh its copy for the newest action.
func (g *Gate) Submit(ctx context.Context, intent Intent) {
	g.mu.Lock()
	outcome := outcomeSubmitted
	switch v := intent.(type) {
	case CartAdd:
		if g.cart != nil {
			outcome = outcomeReplaced
		}
		g.cart = &v
	case WishlistAdd:
		if g.wishlist != nil {
			outcome = outcomeReplaced
		}
		g.wishlist = &v
	default:
		g.mu.Unlock()
		return
	}
	g.state = StateAwaitingIdentity
	g.mu.Unlock()

	g.met.IncIntent(string(intent.Kind()), outcome)
	g.logg.Debug(g.logg.WithField(ctx, "intent_kind", string(intent.Kind())), "intent parked, awaiting identity")
	g.surface.PromptSignIn(ctx)
}

// OnIdentityAcquired replays parked intents against the bound engines.
// The wishlist intent replays before the cart intent so a checkout-bound
// cart add lands last. Replay failures are logged and dropped; the intent
// is consumed either way.
func (g *Gate) OnIdentityAcquired(ctx context.Context) {
	cart, wishlist, cartTarget, wishlistTarget := g.take()

	if wishlist != nil && wishlistTarget != nil {
		if err := wishlistTarget.ReplayAdd(ctx, *wishlist); err != nil {
			g.logg.Error(ctx, "replay wishlist intent", err)
		} else {
			g.met.IncIntent(string(KindWishlist), outcomeReplayed)
		}
	}
	if cart != nil && cartTarget != nil {
		if err := cartTarget.ReplayAdd(ctx, *cart); err != nil {
			g.logg.Error(ctx, "replay cart intent", err)
		} else {
			g.met.IncIntent(string(KindCart), outcomeReplayed)
		}
	}
}

// Decline is the "continue as guest" choice. Parked intents are applied
// through the engines' guest-direct paths so the shopper keeps the item on
// this device; the remote store is never contacted.
func (g *Gate) Decline(ctx context.Context) {
	cart, wishlist, cartTarget, wishlistTarget := g.take()

	if wishlist != nil && wishlistTarget != nil {
		if err := wishlistTarget.GuestAdd(ctx, *wishlist); err != nil {
			g.logg.Error(ctx, "guest-apply wishlist intent", err)
		} else {
			g.met.IncIntent(string(KindWishlist), outcomeDeclined)
		}
	}
	if cart != nil && cartTarget != nil {
		if err := cartTarget.GuestAdd(ctx, *cart); err != nil {
			g.logg.Error(ctx, "guest-apply cart intent", err)
		} else {
			g.met.IncIntent(string(KindCart), outcomeDeclined)
		}
	}
}

// Cancel drops parked intents with no side effect. Used when the prompt is
// dismissed without choosing either path.
func (g *Gate) Cancel(ctx context.Context) {
	cart, wishlist, _, _ := g.take()

	if cart != nil {
		g.met.IncIntent(string(KindCart), outcomeDismissed)
	}
	if wishlist != nil {
		g.met.IncIntent(string(KindWishlist), outcomeDismissed)
	}
	if cart != nil || wishlist != nil {
		g.logg.Debug(ctx, "parked intents discarded")
	}
}

// take consumes the slots and resets the gate to idle.
func (g *Gate) take() (*CartAdd, *WishlistAdd, CartTarget, WishlistTarget) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cart, wishlist := g.cart, g.wishlist
	g.cart, g.wishlist = nil, nil
	g.state = StateIdle
	return cart, wishlist, g.cartTarget, g.wishlistTarget
}

// State reports the current phase.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Pending returns copies of the parked intents, wishlist first.
func (g *Gate) Pending() []Intent {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Intent
	if g.wishlist != nil {
		out = append(out, *g.wishlist)
	}
	if g.cart != nil {
		out = append(out, *g.cart)
	}
	return out
}

type noopSurface struct{}

func (noopSurface) PromptSignIn(context.Context) {}
