package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tappay/wallet-api/internal/domain"
	"github.com/tappay/wallet-api/internal/flows"
	"github.com/tappay/wallet-api/internal/ledger"
	"github.com/tappay/wallet-api/internal/models"
	"github.com/tappay/wallet-api/internal/observability"
	"go.uber.org/zap"
)

// Archiver receives the transaction history of a session when it ends.
// Archival is best-effort and write-only; the in-memory ledger stays
// authoritative while the session lives.
type Archiver interface {
	ArchiveSession(ctx context.Context, sessionID, identifier string, txs []models.Transaction) error
}

// Manager owns all live sessions. Sessions are created at login, looked up
// per request, and removed by logout or idle expiry.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl         time.Duration
	seedBalance int64
	flowCfg     flows.Config
	archiver    Archiver
	now         func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithIdleTTL sets the idle window after which a session is swept.
func WithIdleTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithSeedBalance overrides the opening balance of new sessions.
func WithSeedBalance(balance int64) Option {
	return func(m *Manager) { m.seedBalance = balance }
}

// WithFlowConfig sets the settlement knobs applied to all flows.
func WithFlowConfig(cfg flows.Config) Option {
	return func(m *Manager) { m.flowCfg = cfg }
}

// WithArchiver attaches a transaction archive sink.
func WithArchiver(a Archiver) Option {
	return func(m *Manager) { m.archiver = a }
}

// WithClock replaces the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates an empty session registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		ttl:         30 * time.Minute,
		seedBalance: 125_400,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create registers a fresh session for identifier, seeded with the demo
// profile and history.
func (m *Manager) Create(identifier string) *Session {
	now := m.now().UTC()
	s := &Session{
		ID:         uuid.NewString(),
		Identifier: identifier,
		Ledger:     ledger.New(m.seedProfile(identifier, now), seedTransactions(now)),
		CreatedAt:  now,
		flows:      make(map[string]*flows.Instance),
		alerts:     seedAlerts(now),
		lastSeen:   now,
		flowCfg:    m.flowCfg,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	observability.SetActiveSessions(n)
	zap.L().Info("session created", zap.String("session_id", s.ID))
	return s
}

// Get returns a live session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.touch(m.now().UTC())
	return s, true
}

// End removes a session, cancelling its pending flows and archiving its
// history.
func (m *Manager) End(ctx context.Context, id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return false
	}

	s.cancelFlows()
	m.archive(ctx, s)
	observability.SetActiveSessions(n)
	zap.L().Info("session ended", zap.String("session_id", id))
	return true
}

// Sweep removes sessions idle beyond the TTL and returns how many were
// removed.
func (m *Manager) Sweep(ctx context.Context) int {
	cutoff := m.now().UTC().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.seenBefore(cutoff) {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		s.cancelFlows()
		m.archive(ctx, s)
		zap.L().Info("session expired", zap.String("session_id", s.ID))
	}
	if len(expired) > 0 {
		observability.SetActiveSessions(n)
	}
	return len(expired)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// All returns a snapshot of the live sessions.
func (m *Manager) All() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) archive(ctx context.Context, s *Session) {
	if m.archiver == nil {
		return
	}
	if err := m.archiver.ArchiveSession(ctx, s.ID, s.Identifier, s.Ledger.Transactions()); err != nil {
		zap.L().Warn("session archive failed", zap.String("session_id", s.ID), zap.Error(err))
	}
}

func (m *Manager) seedProfile(identifier string, now time.Time) models.UserProfile {
	return models.UserProfile{
		ID:                  "u1",
		Name:                "TAPPAY User",
		Email:               identifier,
		Balance:             m.seedBalance,
		Role:                domain.RoleConsumer,
		KYCStatus:           domain.KYCUnverified,
		IsBiometricsEnabled: true,
		PINCreated:          true,
		CreatedAt:           now,
	}
}

// seedTransactions is the canned history every session starts with, newest
// first.
func seedTransactions(now time.Time) []models.Transaction {
	return []models.Transaction{
		{
			ID:          "tx_82193",
			Type:        domain.TxTypePayment,
			Amount:      1500,
			Currency:    domain.DefaultCurrency,
			Status:      domain.TxStatusSuccess,
			Timestamp:   now.Add(-2 * time.Hour),
			Description: "Starbucks Coffee",
			Category:    domain.CategoryFood,
		},
		{
			ID:          "tx_91283",
			Type:        domain.TxTypeTopUp,
			Amount:      50_000,
			Currency:    domain.DefaultCurrency,
			Status:      domain.TxStatusSuccess,
			Timestamp:   now.Add(-26 * time.Hour),
			Description: "Paystack Funding",
			Category:    domain.CategoryOther,
		},
	}
}

func seedAlerts(now time.Time) []models.Alert {
	return []models.Alert{
		{
			ID:        "al_1",
			Title:     "New device sign-in",
			Message:   "Your account was accessed from a new device.",
			Type:      "INFO",
			Timestamp: now.Add(-30 * time.Minute),
		},
		{
			ID:        "al_2",
			Title:     "Large top-up received",
			Message:   "A top-up above your usual amount was credited.",
			Type:      "WARNING",
			Timestamp: now.Add(-26 * time.Hour),
		},
	}
}
