// Package session tracks authenticated sessions. Each session owns its own
// ledger seeded with the demo profile and history, plus the money-movement
// flow instances started during it. All session state is discarded at
// logout; nothing persists across sessions.
package session

import (
	"sync"
	"time"

	"github.com/tappay/wallet-api/internal/flows"
	"github.com/tappay/wallet-api/internal/ledger"
	"github.com/tappay/wallet-api/internal/models"
)

// Session is the server-side state for one signed-in device.
type Session struct {
	ID         string
	Identifier string
	Ledger     *ledger.Ledger
	CreatedAt  time.Time

	mu       sync.Mutex
	flows    map[string]*flows.Instance
	alerts   []models.Alert
	lastSeen time.Time
	flowCfg  flows.Config
}

// StartFlow creates and launches a money-movement flow owned by this
// session.
func (s *Session) StartFlow(kind flows.Kind, p flows.Params) (*flows.Instance, error) {
	inst, err := flows.New(s.flowCfg, kind, p, s.Ledger)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.flows[inst.ID()] = inst
	s.mu.Unlock()
	return inst, nil
}

// Flows returns a snapshot of all flow instances started in this session.
func (s *Session) Flows() []*flows.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*flows.Instance, 0, len(s.flows))
	for _, inst := range s.flows {
		out = append(out, inst)
	}
	return out
}

// Flow looks up a flow instance by id.
func (s *Session) Flow(id string) (*flows.Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.flows[id]
	return inst, ok
}

// Alerts returns the security notices for this session, newest first.
func (s *Session) Alerts() []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// cancelFlows abandons all pending flows. Called when the session ends so a
// settlement timer cannot fire into a dead ledger.
func (s *Session) cancelFlows() {
	s.mu.Lock()
	pending := make([]*flows.Instance, 0, len(s.flows))
	for _, inst := range s.flows {
		pending = append(pending, inst)
	}
	s.mu.Unlock()
	for _, inst := range pending {
		inst.Cancel()
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) seenBefore(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}
