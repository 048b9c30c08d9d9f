package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTriggerCoalescesBursts(t *testing.T) {
	t.Parallel()

	d := New(30 * time.Millisecond)
	defer d.Stop()

	var fired int32
	var last int32
	for i := 1; i <= 3; i++ {
		n := int32(i)
		d.Trigger("cart:u1", func() {
			atomic.AddInt32(&fired, 1)
			atomic.StoreInt32(&last, n)
		})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("expected exactly one firing, got %d", got)
	}
	if got := atomic.LoadInt32(&last); got != 3 {
		t.Fatalf("expected the last effect to win, got %d", got)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	t.Parallel()

	d := New(20 * time.Millisecond)
	defer d.Stop()

	var cart, wishlist int32
	d.Trigger("cart:u1", func() { atomic.AddInt32(&cart, 1) })
	d.Trigger("wishlist:u1", func() { atomic.AddInt32(&wishlist, 1) })

	time.Sleep(80 * time.Millisecond)

	if atomic.LoadInt32(&cart) != 1 || atomic.LoadInt32(&wishlist) != 1 {
		t.Fatalf("expected both keys to fire once, got cart=%d wishlist=%d", cart, wishlist)
	}
}

func TestFlushRunsImmediately(t *testing.T) {
	t.Parallel()

	d := New(time.Hour)
	defer d.Stop()

	var fired int32
	d.Trigger("cart:u1", func() { atomic.AddInt32(&fired, 1) })
	d.Flush("cart:u1")

	if atomic.LoadInt32(&fired) != 1 {
		t.Fatal("expected flush to run the pending effect synchronously")
	}

	// Flushing again is a no-op.
	d.Flush("cart:u1")
	if atomic.LoadInt32(&fired) != 1 {
		t.Fatal("expected second flush to be a no-op")
	}
}

func TestCancelDropsPendingEffect(t *testing.T) {
	t.Parallel()

	d := New(20 * time.Millisecond)
	defer d.Stop()

	var fired int32
	d.Trigger("cart:u1", func() { atomic.AddInt32(&fired, 1) })
	d.Cancel("cart:u1")

	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Fatal("expected cancelled effect never to run")
	}
}

func TestStopRejectsFurtherTriggers(t *testing.T) {
	t.Parallel()

	d := New(10 * time.Millisecond)

	var fired int32
	d.Trigger("cart:u1", func() { atomic.AddInt32(&fired, 1) })
	d.Stop()
	d.Trigger("cart:u1", func() { atomic.AddInt32(&fired, 1) })

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Fatal("expected no effects after Stop")
	}
}
