package shopper

import (
	"context"
	"sync"
	"time"

	"github.com/lumina-commerce/storefront-backend/internal/authgate"
	"github.com/lumina-commerce/storefront-backend/internal/cart"
	"github.com/lumina-commerce/storefront-backend/internal/catalog"
	"github.com/lumina-commerce/storefront-backend/internal/devicestore"
	"github.com/lumina-commerce/storefront-backend/internal/identity"
	"github.com/lumina-commerce/storefront-backend/internal/remotestore"
	"github.com/lumina-commerce/storefront-backend/internal/wishlist"
	"github.com/lumina-commerce/storefront-backend/pkg/debounce"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
	"github.com/lumina-commerce/storefront-backend/pkg/metrics"
)

// Params collects everything a session needs. Device, Remote and Catalog
// are shared across sessions; the rest is built per session.
type Params struct {
	SessionID string
	Device    devicestore.Store
	Remote    remotestore.Store
	Catalog   catalog.Catalog
	Surface   authgate.Surface
	Logger    *logger.Logger
	Metrics   *metrics.SyncMetrics

	// QuietPeriod is the debounce window for remote writes.
	QuietPeriod time.Duration
	// WriteTimeout bounds remote writes fired off the debounce timer.
	WriteTimeout time.Duration
}

// Session is the per-device unit of state: one cart engine, one wishlist
// engine, one auth gate and one identity, wired so that a sign-in runs the
// guest merges first and the gate replay last (the replayed intents must
// land on already-merged state).
//
// Identity transitions go through SignIn and SignOut, which hold the write
// side of the state lock shared with both engines. Mutations arriving while
// a transition runs block on the read side until the reconciliation is
// done, so nothing accepted is ever discarded by the merge.
type Session struct {
	ID       string
	Cart     *cart.Engine
	Wishlist *wishlist.Engine
	Gate     *authgate.Gate
	Identity *identity.Broadcaster

	stateMu   *sync.RWMutex
	debouncer *debounce.Debouncer
	logg      *logger.Logger
}

// NewSession assembles and hydrates a session.
func NewSession(ctx context.Context, params Params) (*Session, error) {
	if params.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session id required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "shopper"})
	}
	if params.QuietPeriod <= 0 {
		params.QuietPeriod = 1500 * time.Millisecond
	}

	ident := identity.NewBroadcaster()
	debouncer := debounce.New(params.QuietPeriod)
	stateMu := &sync.RWMutex{}

	gate, err := authgate.NewGate(authgate.Params{
		Surface: params.Surface,
		Logger:  params.Logger,
		Metrics: params.Metrics,
	})
	if err != nil {
		return nil, err
	}

	cartEngine, err := cart.NewEngine(cart.Params{
		Identity:     ident,
		Device:       params.Device,
		Remote:       params.Remote,
		Catalog:      params.Catalog,
		Gate:         gate,
		Debouncer:    debouncer,
		Logger:       params.Logger,
		Metrics:      params.Metrics,
		DeviceKey:    "cart:" + params.SessionID,
		WriteTimeout: params.WriteTimeout,
		StateLock:    stateMu,
	})
	if err != nil {
		return nil, err
	}

	wishlistEngine, err := wishlist.NewEngine(wishlist.Params{
		Identity:     ident,
		Device:       params.Device,
		Remote:       params.Remote,
		Catalog:      params.Catalog,
		Gate:         gate,
		Debouncer:    debouncer,
		Logger:       params.Logger,
		Metrics:      params.Metrics,
		DeviceKey:    "wishlist:" + params.SessionID,
		WriteTimeout: params.WriteTimeout,
		StateLock:    stateMu,
	})
	if err != nil {
		return nil, err
	}

	gate.BindEngines(cartEngine, wishlistEngine)

	s := &Session{
		ID:        params.SessionID,
		Cart:      cartEngine,
		Wishlist:  wishlistEngine,
		Gate:      gate,
		Identity:  ident,
		stateMu:   stateMu,
		debouncer: debouncer,
		logg:      params.Logger,
	}

	ident.OnChange(s.onIdentityChange)

	hydrateCtx := s.logg.WithSessionID(ctx, s.ID)
	s.Cart.Load(hydrateCtx)
	s.Wishlist.Load(hydrateCtx)
	return s, nil
}

// SignIn binds the session to a user. The merge and gate replay run on this
// goroutine under the state lock's write side, so by the time SignIn
// returns the session holds the reconciled state and no mutation was lost.
func (s *Session) SignIn(userID string) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.Identity.SignIn(userID)
}

// SignOut returns the session to guest, flushing pending writes for the old
// user and re-hydrating the guest state before returning.
func (s *Session) SignOut() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.Identity.SignOut()
}

// onIdentityChange runs the one-time reconciliation on sign-in and the
// flush-and-reload on sign-out. It executes on the caller's goroutine, so
// by the time SignIn returns the merge is complete.
func (s *Session) onIdentityChange(previousUserID, userID string) {
	ctx := s.logg.WithSessionID(context.Background(), s.ID)

	// Writes queued for the previous user must land before the session
	// changes hands.
	if previousUserID != "" {
		s.debouncer.FlushAll()
	}

	if userID == "" {
		// Back to guest: re-hydrate from the device store. The guest
		// entries were drained at sign-in, so this normally empties the
		// engines rather than leaking the signed-out user's data.
		s.Cart.Load(ctx)
		s.Wishlist.Load(ctx)
		return
	}

	ctx = s.logg.WithUserID(ctx, userID)
	s.Cart.OnIdentityAcquired(ctx, userID)
	s.Wishlist.OnIdentityAcquired(ctx, userID)
	s.Gate.OnIdentityAcquired(ctx)
	s.logg.Info(ctx, "identity acquired, session reconciled")
}

// Flush forces any pending debounced writes out now.
func (s *Session) Flush() {
	s.debouncer.FlushAll()
}

// Close drains pending writes and shuts the session's debouncer down.
func (s *Session) Close() error {
	s.debouncer.FlushAll()
	s.debouncer.Stop()
	return nil
}
