package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/lumina-commerce/storefront-backend/internal/authgate"
	"github.com/lumina-commerce/storefront-backend/internal/catalog"
	"github.com/lumina-commerce/storefront-backend/internal/devicestore"
	"github.com/lumina-commerce/storefront-backend/internal/identity"
	"github.com/lumina-commerce/storefront-backend/internal/remotestore"
	"github.com/lumina-commerce/storefront-backend/pkg/debounce"
	"github.com/lumina-commerce/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

const testDeviceKey = "wishlist:test-session"

type gateRecorder struct {
	intents []authgate.Intent
}

func (g *gateRecorder) Submit(_ context.Context, intent authgate.Intent) {
	g.intents = append(g.intents, intent)
}

type engineFixture struct {
	engine   *Engine
	ident    *identity.Broadcaster
	device   *devicestore.Memory
	remote   *remotestore.Memory
	catalog  *catalog.Memory
	gate     *gateRecorder
	debounce *debounce.Debouncer

	products []*catalog.Product
}

func newFixture(t *testing.T, quiet time.Duration) *engineFixture {
	t.Helper()

	products := []*catalog.Product{
		{Title: "Canvas Tote", Active: true},
		{Title: "Wool Beanie", Active: true},
		{Title: "Enamel Mug", Active: true},
	}
	cat := catalog.NewMemory(products...)

	f := &engineFixture{
		ident:    identity.NewBroadcaster(),
		device:   devicestore.NewMemory(),
		remote:   remotestore.NewMemory(),
		catalog:  cat,
		gate:     &gateRecorder{},
		debounce: debounce.New(quiet),
		products: products,
	}
	t.Cleanup(f.debounce.Stop)

	engine, err := NewEngine(Params{
		Identity:  f.ident,
		Device:    f.device,
		Remote:    f.remote,
		Catalog:   f.catalog,
		Gate:      f.gate,
		Debouncer: f.debounce,
		DeviceKey: testDeviceKey,
	})
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	f.engine = engine
	return f
}

func TestEngineGuestAddParksIntent(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	if err := f.engine.Add(ctx, f.products[0].ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	if len(f.engine.Entries()) != 0 {
		t.Fatal("guest add must not touch the wishlist")
	}
	if len(f.gate.intents) != 1 {
		t.Fatalf("expected 1 parked intent, got %d", len(f.gate.intents))
	}
	if _, ok := f.gate.intents[0].(authgate.WishlistAdd); !ok {
		t.Fatalf("unexpected intent %+v", f.gate.intents[0])
	}
}

func TestEngineAuthenticatedAddIsIdempotent(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.ident.SignIn("user-1")
	ctx := context.Background()

	if err := f.engine.Add(ctx, f.products[0].ID); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := f.engine.Add(ctx, f.products[0].ID); err != nil {
		t.Fatalf("repeat add: %v", err)
	}

	if got := len(f.engine.Entries()); got != 1 {
		t.Fatalf("expected set semantics, got %d entries", got)
	}
	if !f.engine.Contains(f.products[0].ID) {
		t.Fatal("expected membership after add")
	}
}

func TestEngineRemove(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.ident.SignIn("user-1")
	ctx := context.Background()

	if err := f.engine.Add(ctx, f.products[0].ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	f.engine.Remove(ctx, f.products[0].ID)
	if f.engine.Contains(f.products[0].ID) {
		t.Fatal("expected removal")
	}

	// Removing an absent id is a no-op.
	f.engine.Remove(ctx, uuid.New())
}

func TestEngineDebounceCoalescesRemoteWrites(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	f.ident.SignIn("user-1")
	ctx := context.Background()

	for _, p := range f.products {
		if err := f.engine.Add(ctx, p.ID); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.remote.WishlistWrites("user-1") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if got := f.remote.WishlistWrites("user-1"); got != 1 {
		t.Fatalf("expected rapid adds to coalesce into 1 write, got %d", got)
	}
	if got := len(f.remote.Wishlist("user-1")); got != 3 {
		t.Fatalf("expected final state with 3 ids, got %d", got)
	}
}

func TestEngineGuestDirectAddWritesDeviceStore(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	if err := f.engine.GuestDirectAdd(ctx, f.products[0].ID); err != nil {
		t.Fatalf("guest direct add: %v", err)
	}

	if !f.engine.Contains(f.products[0].ID) {
		t.Fatal("expected membership")
	}
	if _, found, _ := f.device.Read(ctx, testDeviceKey); !found {
		t.Fatal("expected device entry")
	}
	if f.remote.WishlistWrites("user-1") != 0 {
		t.Fatal("guest path must never reach the remote store")
	}
}

func TestEngineMergeIsSetUnion(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	f.remote.Seed("user-1", types.RemoteSnapshot{Wishlist: types.StoredWishlist{
		f.products[0].ID, f.products[1].ID,
	}})

	// Guest saved products[1] (overlap) and products[2] (new).
	if err := f.engine.GuestDirectAdd(ctx, f.products[1].ID); err != nil {
		t.Fatalf("guest add: %v", err)
	}
	if err := f.engine.GuestDirectAdd(ctx, f.products[2].ID); err != nil {
		t.Fatalf("guest add: %v", err)
	}

	f.ident.SignIn("user-1")
	f.engine.OnIdentityAcquired(ctx, "user-1")

	ids := f.engine.ProductIDs()
	if len(ids) != 3 {
		t.Fatalf("expected de-duplicated union of 3, got %d", len(ids))
	}
	for _, p := range f.products {
		if !f.engine.Contains(p.ID) {
			t.Fatalf("expected %s in merged wishlist", p.Title)
		}
	}

	if got := f.remote.WishlistWrites("user-1"); got != 1 {
		t.Fatalf("expected 1 immediate merge write, got %d", got)
	}
	if _, found, _ := f.device.Read(ctx, testDeviceKey); found {
		t.Fatal("expected device wishlist to be cleared by the merge")
	}
}

func TestEngineMergeOverlapOnlySkipsWriteback(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	f.remote.Seed("user-1", types.RemoteSnapshot{Wishlist: types.StoredWishlist{
		f.products[0].ID,
	}})
	if err := f.engine.GuestDirectAdd(ctx, f.products[0].ID); err != nil {
		t.Fatalf("guest add: %v", err)
	}

	f.ident.SignIn("user-1")
	f.engine.OnIdentityAcquired(ctx, "user-1")

	// The guest contributed nothing new, so no write is owed.
	if got := f.remote.WishlistWrites("user-1"); got != 0 {
		t.Fatalf("expected no merge write, got %d", got)
	}
	if got := len(f.engine.ProductIDs()); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
}

func TestEngineLoadDropsStaleEntries(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	f.remote.Seed("user-1", types.RemoteSnapshot{Wishlist: types.StoredWishlist{
		f.products[0].ID, uuid.New(),
	}})

	f.ident.SignIn("user-1")
	f.engine.Load(ctx)

	entries := f.engine.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected stale entry to drop, got %d", len(entries))
	}
	if entries[0].Title != "Canvas Tote" {
		t.Fatalf("unexpected surviving entry %+v", entries[0])
	}
}
