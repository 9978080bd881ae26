package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Session is one live subscriber for a user. Connection implements it; tests
// substitute fakes.
type Session interface {
	Send(payload []byte) error
}

// Hub is the in-process delivery registry, keyed by user id. A user may hold
// several sessions at once (multiple tabs/devices); publishing to a user with
// no session is a no-op.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uint]map[string]Session
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[uint]map[string]Session)}
}

// Attach registers a session under the user id and returns its handle for
// Detach.
func (h *Hub) Attach(userID uint, s Session) string {
	id := uuid.NewString()
	h.mu.Lock()
	byID := h.sessions[userID]
	if byID == nil {
		byID = make(map[string]Session)
		h.sessions[userID] = byID
	}
	byID[id] = s
	h.mu.Unlock()
	return id
}

// Detach removes a session if it is still tracked.
func (h *Hub) Detach(userID uint, sessionID string) {
	h.mu.Lock()
	if byID, ok := h.sessions[userID]; ok {
		delete(byID, sessionID)
		if len(byID) == 0 {
			delete(h.sessions, userID)
		}
	}
	h.mu.Unlock()
}

// PublishUser delivers payload to every live session of the user. Failed
// sessions are skipped; delivery is at-least-once per reachable session and
// zero sessions is not an error.
func (h *Hub) PublishUser(ctx context.Context, userID uint, payload []byte) error {
	h.mu.RLock()
	byID := h.sessions[userID]
	targets := make([]Session, 0, len(byID))
	for _, s := range byID {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		_ = s.Send(payload)
	}
	return nil
}

// SessionCount reports live sessions for a user.
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}
