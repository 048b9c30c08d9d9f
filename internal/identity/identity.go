package identity

import "sync"

// Source reports the identity currently bound to a shopper session.
type Source interface {
	// Current returns the signed-in user id, or ok=false for a guest.
	Current() (userID string, ok bool)
}

// ChangeFunc observes identity transitions. Either id may be empty: guest to
// user on sign-in, user to guest on sign-out.
type ChangeFunc func(previousUserID, userID string)

// Broadcaster tracks the session's identity and fans out transitions to
// subscribers in registration order. Callbacks run outside the lock so they
// may call back into the broadcaster.
type Broadcaster struct {
	mu     sync.Mutex
	userID string
	subs   []ChangeFunc
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

func (b *Broadcaster) Current() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.userID, b.userID != ""
}

// OnChange registers a subscriber for future transitions.
func (b *Broadcaster) OnChange(fn ChangeFunc) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// SignIn binds the session to a user. A repeat sign-in with the same id is
// a no-op; a different id is broadcast as a direct user-to-user switch.
func (b *Broadcaster) SignIn(userID string) {
	if userID == "" {
		return
	}
	b.set(userID)
}

// SignOut returns the session to guest.
func (b *Broadcaster) SignOut() {
	b.set("")
}

func (b *Broadcaster) set(userID string) {
	b.mu.Lock()
	previous := b.userID
	if previous == userID {
		b.mu.Unlock()
		return
	}
	b.userID = userID
	subs := append([]ChangeFunc(nil), b.subs...)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(previous, userID)
	}
}
