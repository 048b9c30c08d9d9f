package cart

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

const collection = "cart"

// Line is a fully hydrated cart entry. One line per variant; quantity is
// always at least 1.
type Line struct {
	ProductID      uuid.UUID `json:"productId"`
	VariantID      uuid.UUID `json:"variantId"`
	Quantity       int       `json:"quantity"`
	Title          string    `json:"title"`
	VariantLabel   string    `json:"variantLabel"`
	UnitPriceCents int       `json:"unitPriceCents"`
	ImageURL       string    `json:"imageUrl"`
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

	// DeviceKey is the device store key for this session's guest cart.
	DeviceKey string
	// WriteTimeout bounds remote writes that fire off the debounce timer.
	WriteTimeout time.Duration

	// StateLock serializes mutations against the sign-in reconciliation.
	// Mutators hold the read side; the session holds the write side across
	// the whole identity transition. Shared by every engine in a session;
	// a standalone engine gets its own.
	StateLock *sync.RWMutex
}

// Engine owns a session's in-memory cart and reconciles it with the device
// store (guest) or the remote store (signed in). Mutations update memory
// synchronously; persistence is best effort and never blocks the caller.
type Engine struct {
	mu      sync.Mutex
	stateMu *sync.RWMutex
	lines   []Line

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

// NewEngine builds a cart engine backed by the provided stack.
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

// Lines returns a copy of the current cart.
func (e *Engine) Lines() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Line(nil), e.lines...)
}

// Count is the total quantity across all lines.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, l := range e.lines {
		total += l.Quantity
	}
	return total
}

// TotalCents is the cart subtotal.
func (e *Engine) TotalCents() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, l := range e.lines {
		total += l.UnitPriceCents * l.Quantity
	}
	return total
}

// Add puts a variant in the cart. Guests do not mutate the cart here: the
// add is parked on the auth gate and the sign-in surface is raised. Signed
// in shoppers get a synchronous in-memory upsert and a debounced remote
// write. Quantities below 1 are normalized to 1. An add arriving while a
// sign-in reconciliation is running blocks until the merged state is in
// place, then lands on it.
func (e *Engine) Add(ctx context.Context, productID, variantID uuid.UUID, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	userID, ok := e.ident.Current()
	if !ok {
		e.gate.Submit(ctx, authgate.CartAdd{ProductID: productID, VariantID: variantID, Quantity: quantity})
		return nil
	}

	line, err := e.hydrateLine(ctx, productID, variantID, quantity)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.upsert(line)
	e.mu.Unlock()

	e.scheduleRemoteWrite(ctx, userID)
	return nil
}

// ReplayAdd applies a parked add after sign-in. It runs inside the identity
// transition, which already holds the state lock's write side, so it must
// not take the read side itself.
func (e *Engine) ReplayAdd(ctx context.Context, intent authgate.CartAdd) error {
	userID, ok := e.ident.Current()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "replay requires identity")
	}
	line, err := e.hydrateLine(ctx, intent.ProductID, intent.VariantID, intent.Quantity)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.upsert(line)
	e.mu.Unlock()

	e.scheduleRemoteWrite(ctx, userID)
	return nil
}

// GuestAdd implements the "continue as guest" path: the upsert lands in
// memory and the device store, skipping the identity check entirely.
func (e *Engine) GuestAdd(ctx context.Context, intent authgate.CartAdd) error {
	return e.GuestDirectAdd(ctx, intent.ProductID, intent.VariantID, intent.Quantity)
}

// GuestDirectAdd upserts a line and writes the cart to the device store
// synchronously, regardless of identity.
func (e *Engine) GuestDirectAdd(ctx context.Context, productID, variantID uuid.UUID, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	line, err := e.hydrateLine(ctx, productID, variantID, quantity)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.upsert(line)
	e.mu.Unlock()

	e.persistDevice(ctx)
	return nil
}

// Remove drops the line for a variant. Unknown variants are a no-op.
func (e *Engine) Remove(ctx context.Context, variantID uuid.UUID) {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	e.mu.Lock()
	changed := e.remove(variantID)
	e.mu.Unlock()
	if !changed {
		return
	}
	e.persist(ctx)
}

// SetQuantity replaces a line's quantity. Zero or negative behaves as Remove.
func (e *Engine) SetQuantity(ctx context.Context, variantID uuid.UUID, quantity int) {
	if quantity <= 0 {
		e.Remove(ctx, variantID)
		return
	}

	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	e.mu.Lock()
	changed := false
	for i := range e.lines {
		if e.lines[i].VariantID == variantID {
			e.lines[i].Quantity = quantity
			changed = true
			break
		}
	}
	e.mu.Unlock()
	if !changed {
		return
	}
	e.persist(ctx)
}

// Clear empties the cart. The empty collection is persisted immediately so
// a stale debounce timer cannot resurrect cleared lines.
func (e *Engine) Clear(ctx context.Context) {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	e.mu.Lock()
	e.lines = nil
	e.mu.Unlock()

	if userID, ok := e.ident.Current(); ok {
		e.debouncer.Cancel(e.debounceKey(userID))
		e.writeRemote(ctx, userID, types.StoredCart{})
		return
	}
	e.persistDevice(ctx)
}

// Load hydrates the initial cart for the session: the remote store when
// signed in, the device store otherwise. Stale catalog references are
// dropped silently. Store failures are transient and never block the
// shopper; the cart starts empty and the next write repopulates the store.
func (e *Engine) Load(ctx context.Context) {
	var stored types.StoredCart
	if userID, ok := e.ident.Current(); ok {
		snap, err := e.remote.Read(ctx, userID)
		if err != nil {
			e.logg.Error(ctx, "load remote cart", err)
		} else {
			stored = snap.Cart
		}
	} else {
		raw, found, err := e.device.Read(ctx, e.deviceKey)
		if err != nil {
			e.logg.Error(ctx, "load device cart", err)
		} else if found {
			if err := json.Unmarshal(raw, &stored); err != nil {
				e.logg.Error(ctx, "decode device cart", err)
				stored = nil
			}
		}
	}

	lines := e.hydrate(ctx, stored)
	e.mu.Lock()
	e.lines = lines
	e.mu.Unlock()
}

// OnIdentityAcquired runs the one-time guest-to-user merge: drain the guest
// cart from the device store, union it into the remote cart with guest
// quantities winning conflicts, hydrate, and adopt the result. The merged
// cart is written back immediately when the guest contributed anything.
// It runs inside the identity transition, which holds the state lock's
// write side for the whole sequence; mutations wait until the merged state
// is in place.
func (e *Engine) OnIdentityAcquired(ctx context.Context, userID string) {
	guest := e.drainDeviceCart(ctx)

	var remote types.StoredCart
	snap, err := e.remote.Read(ctx, userID)
	if err != nil {
		e.logg.Error(ctx, "read remote cart for merge", err)
	} else {
		remote = snap.Cart
	}

	merged := mergeCarts(remote, guest)
	lines := e.hydrate(ctx, merged)

	e.mu.Lock()
	e.lines = lines
	stored := dehydrate(e.lines)
	e.mu.Unlock()

	e.met.IncMerge(collection)

	if len(guest) > 0 {
		e.writeRemote(ctx, userID, stored)
	}
}

// mergeCarts starts from the remote collection and folds in guest lines.
// A guest line for a variant already present overwrites the remote
// quantity; guest activity is treated as more recent.
func mergeCarts(remote, guest types.StoredCart) types.StoredCart {
	merged := append(types.StoredCart(nil), remote...)
	for _, g := range guest {
		replaced := false
		for i := range merged {
			if merged[i].VariantID == g.VariantID {
				merged[i].Quantity = g.Quantity
				merged[i].ProductID = g.ProductID
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, g)
		}
	}
	return merged
}

func (e *Engine) drainDeviceCart(ctx context.Context) types.StoredCart {
	raw, found, err := e.device.Read(ctx, e.deviceKey)
	if err != nil {
		e.logg.Error(ctx, "read device cart for merge", err)
		return nil
	}
	if !found {
		return nil
	}
	if err := e.device.Clear(ctx, e.deviceKey); err != nil {
		e.logg.Error(ctx, "clear device cart after merge read", err)
	}
	var stored types.StoredCart
	if err := json.Unmarshal(raw, &stored); err != nil {
		e.logg.Error(ctx, "decode device cart for merge", err)
		return nil
	}
	return stored
}

// hydrateLine resolves a single catalog reference for an add.
func (e *Engine) hydrateLine(ctx context.Context, productID, variantID uuid.UUID, quantity int) (Line, error) {
	product, variant, ok, err := e.cat.FindVariant(ctx, productID, variantID)
	if err != nil {
		return Line{}, err
	}
	if !ok {
		return Line{}, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not available")
	}
	return Line{
		ProductID:      product.ID,
		VariantID:      variant.ID,
		Quantity:       quantity,
		Title:          product.Title,
		VariantLabel:   variant.Label,
		UnitPriceCents: variant.UnitPriceCents,
		ImageURL:       product.ImageURL,
	}, nil
}

// hydrate resolves a stored cart against the catalog, dropping lines whose
// product or variant is gone or delisted.
func (e *Engine) hydrate(ctx context.Context, stored types.StoredCart) []Line {
	var lines []Line
	for _, s := range stored {
		if s.Quantity < 1 {
			continue
		}
		product, variant, ok, err := e.cat.FindVariant(ctx, s.ProductID, s.VariantID)
		if err != nil {
			e.logg.Error(ctx, "hydrate cart line", err)
			continue
		}
		if !ok {
			e.logg.Debug(e.logg.WithField(ctx, "variant_id", s.VariantID.String()), "dropping stale cart line")
			continue
		}
		lines = append(lines, Line{
			ProductID:      product.ID,
			VariantID:      variant.ID,
			Quantity:       s.Quantity,
			Title:          product.Title,
			VariantLabel:   variant.Label,
			UnitPriceCents: variant.UnitPriceCents,
			ImageURL:       product.ImageURL,
		})
	}
	return lines
}

// upsert merges a hydrated line into the cart. Caller holds the lock.
func (e *Engine) upsert(line Line) {
	for i := range e.lines {
		if e.lines[i].VariantID == line.VariantID {
			e.lines[i].Quantity += line.Quantity
			return
		}
	}
	e.lines = append(e.lines, line)
}

// remove drops a line. Caller holds the lock.
func (e *Engine) remove(variantID uuid.UUID) bool {
	for i := range e.lines {
		if e.lines[i].VariantID == variantID {
			e.lines = append(e.lines[:i], e.lines[i+1:]...)
			return true
		}
	}
	return false
}

// persist routes a mutation to the store matching the current identity:
// synchronous device write for guests, debounced remote write otherwise.
func (e *Engine) persist(ctx context.Context) {
	if userID, ok := e.ident.Current(); ok {
		e.scheduleRemoteWrite(ctx, userID)
		return
	}
	e.persistDevice(ctx)
}

func (e *Engine) persistDevice(ctx context.Context) {
	e.mu.Lock()
	stored := dehydrate(e.lines)
	e.mu.Unlock()

	payload, err := json.Marshal(stored)
	if err != nil {
		e.logg.Error(ctx, "encode device cart", err)
		e.met.IncPersistFailure(collection)
		return
	}
	if err := e.device.Write(ctx, e.deviceKey, payload); err != nil {
		e.logg.Error(ctx, "persist device cart", err)
		e.met.IncPersistFailure(collection)
		return
	}
	e.met.IncPersistSuccess(collection)
}

// scheduleRemoteWrite captures the cart snapshot and the user id now, then
// arms the trailing-edge debounce. Rapid mutations coalesce into one write
// carrying the final state; a sign-out before the timer fires still writes
// to the user the mutations belonged to.
func (e *Engine) scheduleRemoteWrite(ctx context.Context, userID string) {
	e.mu.Lock()
	stored := dehydrate(e.lines)
	e.mu.Unlock()

	logCtx := e.logg.WithUserID(context.WithoutCancel(ctx), userID)
	e.debouncer.Trigger(e.debounceKey(userID), func() {
		writeCtx, cancel := context.WithTimeout(logCtx, e.writeTimeout)
		defer cancel()
		e.writeRemote(writeCtx, userID, stored)
	})
}

func (e *Engine) writeRemote(ctx context.Context, userID string, stored types.StoredCart) {
	if err := e.remote.WriteCart(ctx, userID, stored); err != nil {
		e.logg.Error(ctx, "persist remote cart", err)
		e.met.IncPersistFailure(collection)
		return
	}
	e.met.IncPersistSuccess(collection)
}

func (e *Engine) debounceKey(userID string) string {
	return collection + ":" + userID
}

func dehydrate(lines []Line) types.StoredCart {
	stored := make(types.StoredCart, 0, len(lines))
	for _, l := range lines {
		stored = append(stored, types.StoredCartLine{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
		})
	}
	return stored
}
