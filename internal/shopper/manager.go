package shopper

import (
	"context"
	"sync"
	"time"

	"github.com/lumina-commerce/storefront-backend/internal/authgate"
	"github.com/lumina-commerce/storefront-backend/internal/catalog"
	"github.com/lumina-commerce/storefront-backend/internal/devicestore"
	"github.com/lumina-commerce/storefront-backend/internal/remotestore"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
	"github.com/lumina-commerce/storefront-backend/pkg/metrics"
	"go.uber.org/multierr"
)

// ManagerParams holds the shared dependencies handed to every session.
type ManagerParams struct {
	Device  devicestore.Store
	Remote  remotestore.Store
	Catalog catalog.Catalog
	Surface authgate.Surface
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics

	QuietPeriod  time.Duration
	WriteTimeout time.Duration
}

// Manager is the registry of live shopper sessions, keyed by session id.
// Sessions are created lazily on first sight of an id.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	params   ManagerParams
	closed   bool
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Device == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "device store required")
	}
	if params.Remote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "remote store required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "shopper"})
	}
	return &Manager{
		sessions: make(map[string]*Session),
		params:   params,
	}, nil
}

// GetOrCreate returns the session for an id, building and hydrating it on
// first use.
func (m *Manager) GetOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session manager is closed")
	}
	if s, ok := m.sessions[sessionID]; ok {
		return s, nil
	}

	s, err := NewSession(ctx, Params{
		SessionID:    sessionID,
		Device:       m.params.Device,
		Remote:       m.params.Remote,
		Catalog:      m.params.Catalog,
		Surface:      m.params.Surface,
		Logger:       m.params.Logger,
		Metrics:      m.params.Metrics,
		QuietPeriod:  m.params.QuietPeriod,
		WriteTimeout: m.params.WriteTimeout,
	})
	if err != nil {
		return nil, err
	}
	m.sessions[sessionID] = s
	return s, nil
}

// Get returns an existing session without creating one.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close drains and shuts every session down, aggregating failures.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	var err error
	for _, s := range sessions {
		err = multierr.Append(err, s.Close())
	}
	return err
}
