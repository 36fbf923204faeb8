// Package session keeps per-user pending-payment state in memory.
// State is transient and lost on restart; nothing here is persisted.
package session

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies which pending-payment variant a marker belongs to.
type Kind int

const (
	// KindNone means the session holds no pending payment of the queried sort.
	KindNone Kind = iota
	// KindStars marks a pending platform-native Stars invoice.
	KindStars
	// KindCrypto marks a pending external crypto invoice.
	KindCrypto
)

// StarsPending records an issued Stars invoice awaiting completion.
type StarsPending struct {
	UserID    int64
	Payload   string
	CreatedAt time.Time
}

// CryptoPending records a created crypto invoice awaiting manual verification.
// ExpiresAt is advisory only; no checker enforces it.
type CryptoPending struct {
	UserID      int64
	InvoiceID   string
	OrderID     string
	PayAddress  string
	Amount      decimal.Decimal
	PayCurrency string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// state holds at most one pending marker of each kind for a single user.
type state struct {
	stars  *StarsPending
	crypto *CryptoPending
}

// Manager owns all user sessions. Safe for concurrent use; correctness of the
// payment flow itself relies on the bot runtime serializing updates per user.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*state
}

// NewManager constructs an empty in-memory session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*state)}
}

func (m *Manager) get(userID int64) *state {
	s, ok := m.sessions[userID]
	if !ok {
		s = &state{}
		m.sessions[userID] = s
	}
	return s
}

// SetStars records a pending Stars invoice, replacing any previous one.
func (m *Manager) SetStars(userID int64, p StarsPending) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(userID).stars = &p
}

// Stars returns the pending Stars marker for the user, if present.
func (m *Manager) Stars(userID int64) (StarsPending, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok && s.stars != nil {
		return *s.stars, true
	}
	return StarsPending{}, false
}

// ClearStars removes the pending Stars marker and reports whether one existed.
func (m *Manager) ClearStars(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok || s.stars == nil {
		return false
	}
	s.stars = nil
	return true
}

// SetCrypto records a pending crypto invoice, replacing any previous one.
func (m *Manager) SetCrypto(userID int64, p CryptoPending) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(userID).crypto = &p
}

// Crypto returns the pending crypto marker for the user, if present.
func (m *Manager) Crypto(userID int64) (CryptoPending, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok && s.crypto != nil {
		return *s.crypto, true
	}
	return CryptoPending{}, false
}

// ClearCrypto removes the pending crypto marker and reports whether one existed.
func (m *Manager) ClearCrypto(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok || s.crypto == nil {
		return false
	}
	s.crypto = nil
	return true
}

// Pending reports which marker kinds the user currently holds.
func (m *Manager) Pending(userID int64) []Kind {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil
	}
	var kinds []Kind
	if s.stars != nil {
		kinds = append(kinds, KindStars)
	}
	if s.crypto != nil {
		kinds = append(kinds, KindCrypto)
	}
	return kinds
}

// Clear drops the entire session for a user.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
