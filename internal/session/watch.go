package session

import (
	"time"

	"learninghouse/console/internal/models"
)

// Subscribe returns a channel that receives the current session state
// immediately and every change afterwards. Slow readers only ever see the
// latest state. The returned func unsubscribes and closes the channel.
func (m *Manager) Subscribe() (<-chan models.SessionState, func()) {
	ch := make(chan models.SessionState, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = ch
	ch <- m.state
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (m *Manager) setStateLocked(role models.Role, refreshExpiry *time.Time) {
	if !role.Valid() {
		refreshExpiry = nil
	}
	next := models.SessionState{Role: role, RefreshExpiry: refreshExpiry}
	if sameState(m.state, next) {
		return
	}
	m.state = next

	for _, ch := range m.subscribers {
		select {
		case ch <- next:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- next
		}
	}
}

func sameState(a, b models.SessionState) bool {
	if a.Role != b.Role {
		return false
	}
	if a.RefreshExpiry == nil || b.RefreshExpiry == nil {
		return a.RefreshExpiry == b.RefreshExpiry
	}
	return a.RefreshExpiry.Equal(*b.RefreshExpiry)
}

// RemainingSession is the time left until the refresh token expires, used
// by the session timer. It is zero for non-admin sessions.
func (m *Manager) RemainingSession() time.Duration {
	state := m.State()
	if state.RefreshExpiry == nil {
		return 0
	}
	remaining := state.RefreshExpiry.Sub(m.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
