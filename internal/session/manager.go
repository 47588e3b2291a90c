package session

import (
	"sync"
	"time"
)

// Manager caches one Store per active browser session, keyed by bearer
// token. Stores idle past the TTL are closed and dropped by a background
// janitor so abandoned sessions do not pile up.
type Manager struct {
	ttl     time.Duration
	factory func(token string) *Store

	mu      sync.Mutex
	entries map[string]*entry

	done      chan struct{}
	closeOnce sync.Once
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

// NewManager starts a manager whose janitor evicts stores idle longer than
// ttl. The factory builds the store for a token on first sight.
func NewManager(ttl time.Duration, factory func(token string) *Store) *Manager {
	m := &Manager{
		ttl:     ttl,
		factory: factory,
		entries: make(map[string]*entry),
		done:    make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Get returns the session store for the token, creating one on first sight
// and marking it live either way.
func (m *Manager) Get(token string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[token]
	if !ok {
		e = &entry{store: m.factory(token)}
		m.entries[token] = e
	}
	e.lastSeen = time.Now()
	return e.store
}

// Remove closes and forgets the session store for the token, if present.
func (m *Manager) Remove(token string) {
	m.mu.Lock()
	e, ok := m.entries[token]
	delete(m.entries, token)
	m.mu.Unlock()
	if ok {
		e.store.Close()
	}
}

// Close stops the janitor and closes every live store.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })

	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range entries {
		e.store.Close()
	}
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(m.sweepInterval())
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.evictIdle(now)
		}
	}
}

func (m *Manager) sweepInterval() time.Duration {
	interval := m.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	return interval
}

// evictIdle closes and drops every store not touched since the TTL window
// and reports how many it evicted.
func (m *Manager) evictIdle(now time.Time) int {
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	var expired []*Store
	for token, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.store)
			delete(m.entries, token)
		}
	}
	m.mu.Unlock()

	for _, st := range expired {
		st.Close()
	}
	return len(expired)
}
