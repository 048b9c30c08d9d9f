package wishlist

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/lumina-commerce/storefront-backend/internal/authgate"
	"github.com/lumina-commerce/storefront-backend/internal/catalog"
	"github.com/lumina-commerce/storefront-backend/internal/devicestore"
	"github.com/lumina-commerce/storefront-backend/internal/identity"
	"github.com/lumina-commerce/storefront-backend/internal/remotestore"
	"github.com/lumina-commerce/storefront-backend/pkg/debounce"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
	"github.com/lumina-commerce/storefront-backend/pkg/metrics"
	"github.com/lumina-commerce/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

const collection = "wishlist"

// Entry is a hydrated wishlist member.
type Entry struct {
	ProductID uuid.UUID `json:"productId"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
}

type gateSubmitter interface {
	Submit(ctx context.Context, intent authgate.Intent)
}

// Params collects the engine's dependencies.
type Params struct {
	Identity  identity.Source
	Device    devicestore.Store
	Remote    remotestore.Store
	Catalog   catalog.Catalog
	Gate      gateSubmitter
	Debouncer *debounce.Debouncer
	Logger    *logger.Logger
	Metrics   *metrics.SyncMetrics

	DeviceKey    string
	WriteTimeout time.Duration

	// StateLock serializes mutations against the sign-in reconciliation.
	// Shared by every engine in a session; a standalone engine gets its own.
	StateLock *sync.RWMutex
}

// Engine owns a session's wishlist: an ordered set of product ids with the
// same persistence split as the cart. Guest saves go through the auth gate;
// signed-in saves land in memory and debounce out to the remote store.
type Engine struct {
	mu      sync.Mutex
	stateMu *sync.RWMutex
	entries []Entry

	ident     identity.Source
	device    devicestore.Store
	remote    remotestore.Store
	cat       catalog.Catalog
	gate      gateSubmitter
	debouncer *debounce.Debouncer
	logg      *logger.Logger
	met       *metrics.SyncMetrics

	deviceKey    string
	writeTimeout time.Duration
}

func NewEngine(params Params) (*Engine, error) {
	if params.Identity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "identity source required")
	}
	if params.Device == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "device store required")
	}
	if params.Remote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "remote store required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog required")
	}
	if params.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth gate required")
	}
	if params.Debouncer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "debouncer required")
	}
	if params.DeviceKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "device key required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: collection})
	}
	if params.WriteTimeout <= 0 {
		params.WriteTimeout = 3 * time.Second
	}
	if params.StateLock == nil {
		params.StateLock = &sync.RWMutex{}
	}
	return &Engine{
		stateMu:      params.StateLock,
		ident:        params.Identity,
		device:       params.Device,
		remote:       params.Remote,
		cat:          params.Catalog,
		gate:         params.Gate,
		debouncer:    params.Debouncer,
		logg:         params.Logger,
		met:          params.Metrics,
		deviceKey:    params.DeviceKey,
		writeTimeout: params.WriteTimeout,
	}, nil
}

// Entries returns a copy of the wishlist.
func (e *Engine) Entries() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Entry(nil), e.entries...)
}

// ProductIDs returns the member ids in insertion order.
func (e *Engine) ProductIDs() []uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(e.entries))
	for _, entry := range e.entries {
		ids = append(ids, entry.ProductID)
	}
	return ids
}

// Contains reports membership.
func (e *Engine) Contains(productID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.contains(productID)
}

// Add saves a product. Guests get the sign-in gate; signed-in shoppers get
// an in-memory set add (idempotent) and a debounced remote write. A save
// arriving while a sign-in reconciliation is running blocks until the
// merged state is in place, then lands on it.
func (e *Engine) Add(ctx context.Context, productID uuid.UUID) error {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	userID, ok := e.ident.Current()
	if !ok {
		e.gate.Submit(ctx, authgate.WishlistAdd{ProductID: productID})
		return nil
	}

	entry, err := e.hydrateEntry(ctx, productID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	added := e.insert(entry)
	e.mu.Unlock()
	if !added {
		return nil
	}

	e.scheduleRemoteWrite(ctx, userID)
	return nil
}

// ReplayAdd applies a parked save after sign-in. It runs inside the
// identity transition, which already holds the state lock's write side,
// so it must not take the read side itself.
func (e *Engine) ReplayAdd(ctx context.Context, intent authgate.WishlistAdd) error {
	userID, ok := e.ident.Current()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "replay requires identity")
	}
	entry, err := e.hydrateEntry(ctx, intent.ProductID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	added := e.insert(entry)
	e.mu.Unlock()
	if added {
		e.scheduleRemoteWrite(ctx, userID)
	}
	return nil
}

// GuestAdd implements the "continue as guest" path.
func (e *Engine) GuestAdd(ctx context.Context, intent authgate.WishlistAdd) error {
	return e.GuestDirectAdd(ctx, intent.ProductID)
}

// GuestDirectAdd saves a product into memory and the device store,
// skipping the identity check.
func (e *Engine) GuestDirectAdd(ctx context.Context, productID uuid.UUID) error {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	entry, err := e.hydrateEntry(ctx, productID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	added := e.insert(entry)
	e.mu.Unlock()
	if !added {
		return nil
	}
	e.persistDevice(ctx)
	return nil
}

// Remove drops a product if present.
func (e *Engine) Remove(ctx context.Context, productID uuid.UUID) {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	e.mu.Lock()
	removed := false
	for i := range e.entries {
		if e.entries[i].ProductID == productID {
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
			removed = true
			break
		}
	}
	e.mu.Unlock()
	if !removed {
		return
	}

	if userID, ok := e.ident.Current(); ok {
		e.scheduleRemoteWrite(ctx, userID)
		return
	}
	e.persistDevice(ctx)
}

// Load hydrates the initial wishlist for the session. Store failures are
// transient and never block the shopper; the wishlist starts empty and the
// next write repopulates the store.
func (e *Engine) Load(ctx context.Context) {
	var stored types.StoredWishlist
	if userID, ok := e.ident.Current(); ok {
		snap, err := e.remote.Read(ctx, userID)
		if err != nil {
			e.logg.Error(ctx, "load remote wishlist", err)
		} else {
			stored = snap.Wishlist
		}
	} else {
		raw, found, err := e.device.Read(ctx, e.deviceKey)
		if err != nil {
			e.logg.Error(ctx, "load device wishlist", err)
		} else if found {
			if err := json.Unmarshal(raw, &stored); err != nil {
				e.logg.Error(ctx, "decode device wishlist", err)
				stored = nil
			}
		}
	}

	entries := e.hydrate(ctx, stored)
	e.mu.Lock()
	e.entries = entries
	e.mu.Unlock()
}

// OnIdentityAcquired merges the guest wishlist into the user's remote one.
// The merge is a plain set union; there is no quantity to conflict over.
// The result is written back immediately when the guest contributed
// anything new. It runs inside the identity transition, which holds the
// state lock's write side for the whole sequence.
func (e *Engine) OnIdentityAcquired(ctx context.Context, userID string) {
	guest := e.drainDeviceWishlist(ctx)

	var remote types.StoredWishlist
	snap, err := e.remote.Read(ctx, userID)
	if err != nil {
		e.logg.Error(ctx, "read remote wishlist for merge", err)
	} else {
		remote = snap.Wishlist
	}

	merged := append(types.StoredWishlist(nil), remote...)
	addedAny := false
	for _, id := range guest {
		if !merged.Contains(id) {
			merged = append(merged, id)
			addedAny = true
		}
	}

	entries := e.hydrate(ctx, merged)
	e.mu.Lock()
	e.entries = entries
	stored := dehydrate(e.entries)
	e.mu.Unlock()

	e.met.IncMerge(collection)

	if len(guest) > 0 && addedAny {
		e.writeRemote(ctx, userID, stored)
	}
}

func (e *Engine) drainDeviceWishlist(ctx context.Context) types.StoredWishlist {
	raw, found, err := e.device.Read(ctx, e.deviceKey)
	if err != nil {
		e.logg.Error(ctx, "read device wishlist for merge", err)
		return nil
	}
	if !found {
		return nil
	}
	if err := e.device.Clear(ctx, e.deviceKey); err != nil {
		e.logg.Error(ctx, "clear device wishlist after merge read", err)
	}
	var stored types.StoredWishlist
	if err := json.Unmarshal(raw, &stored); err != nil {
		e.logg.Error(ctx, "decode device wishlist for merge", err)
		return nil
	}
	return stored
}

func (e *Engine) hydrateEntry(ctx context.Context, productID uuid.UUID) (Entry, error) {
	product, ok, err := e.cat.FindProduct(ctx, productID)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
	}
	return Entry{ProductID: product.ID, Title: product.Title, ImageURL: product.ImageURL}, nil
}

func (e *Engine) hydrate(ctx context.Context, stored types.StoredWishlist) []Entry {
	var entries []Entry
	seen := map[uuid.UUID]struct{}{}
	for _, id := range stored {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		product, ok, err := e.cat.FindProduct(ctx, id)
		if err != nil {
			e.logg.Error(ctx, "hydrate wishlist entry", err)
			continue
		}
		if !ok {
			e.logg.Debug(e.logg.WithField(ctx, "product_id", id.String()), "dropping stale wishlist entry")
			continue
		}
		entries = append(entries, Entry{ProductID: product.ID, Title: product.Title, ImageURL: product.ImageURL})
	}
	return entries
}

// insert adds an entry if absent. Caller holds the lock.
func (e *Engine) insert(entry Entry) bool {
	if e.contains(entry.ProductID) {
		return false
	}
	e.entries = append(e.entries, entry)
	return true
}

func (e *Engine) contains(productID uuid.UUID) bool {
	for _, entry := range e.entries {
		if entry.ProductID == productID {
			return true
		}
	}
	return false
}

func (e *Engine) persistDevice(ctx context.Context) {
	e.mu.Lock()
	stored := dehydrate(e.entries)
	e.mu.Unlock()

	payload, err := json.Marshal(stored)
	if err != nil {
		e.logg.Error(ctx, "encode device wishlist", err)
		e.met.IncPersistFailure(collection)
		return
	}
	if err := e.device.Write(ctx, e.deviceKey, payload); err != nil {
		e.logg.Error(ctx, "persist device wishlist", err)
		e.met.IncPersistFailure(collection)
		return
	}
	e.met.IncPersistSuccess(collection)
}

func (e *Engine) scheduleRemoteWrite(ctx context.Context, userID string) {
	e.mu.Lock()
	stored := dehydrate(e.entries)
	e.mu.Unlock()

	logCtx := e.logg.WithUserID(context.WithoutCancel(ctx), userID)
	e.debouncer.Trigger(collection+":"+userID, func() {
		writeCtx, cancel := context.WithTimeout(logCtx, e.writeTimeout)
		defer cancel()
		e.writeRemote(writeCtx, userID, stored)
	})
}

func (e *Engine) writeRemote(ctx context.Context, userID string, stored types.StoredWishlist) {
	if err := e.remote.WriteWishlist(ctx, userID, stored); err != nil {
		e.logg.Error(ctx, "persist remote wishlist", err)
		e.met.IncPersistFailure(collection)
		return
	}
	e.met.IncPersistSuccess(collection)
}

func dehydrate(entries []Entry) types.StoredWishlist {
	stored := make(types.StoredWishlist, 0, len(entries))
	for _, entry := range entries {
		stored = append(stored, entry.ProductID)
	}
	return stored
}
