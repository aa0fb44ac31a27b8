package websocket

import (
	"sync"
	"time"
)

// parkedSession holds what the hub remembers about an abnormally dropped
// connection while it is eligible for resumption: who it was, what room it
// was in, and every room broadcast it missed.
type parkedSession struct {
	username string
	room     string
	pending  [][]byte
	expires  time.Time
}

// recoveryTracker implements connection-state recovery. A connection that
// drops without a close handshake is parked for a window; a reconnect
// presenting the old connection id within the window is treated as a resumed
// continuation and has the buffered frames replayed, so the chat layer can
// skip its own catch-up for it.
type recoveryTracker struct {
	window time.Duration
	parked map[string]*parkedSession
	mu     sync.Mutex
}

func newRecoveryTracker(window time.Duration) *recoveryTracker {
	return &recoveryTracker{
		window: window,
		parked: make(map[string]*parkedSession),
	}
}

// park remembers a dropped connection until the recovery window elapses.
func (t *recoveryTracker) park(connID, username, room string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweep(time.Now())
	t.parked[connID] = &parkedSession{
		username: username,
		room:     room,
		expires:  time.Now().Add(t.window),
	}
}

// buffer records a room broadcast for every parked session that was in room.
func (t *recoveryTracker) buffer(room string, frame []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bufferLocked(room, frame)
}

// bufferLocked is buffer for callers that already hold the lock.
func (t *recoveryTracker) bufferLocked(room string, frame []byte) {
	if room == "" {
		return
	}

	now := time.Now()
	t.sweep(now)
	for _, p := range t.parked {
		if p.room == room {
			p.pending = append(p.pending, frame)
		}
	}
}

// claim consumes the parked state for connID, if it exists and has not
// expired. A session can be claimed at most once.
func (t *recoveryTracker) claim(connID string) (*parkedSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.claimLocked(connID)
}

// claimLocked is claim for callers that already hold the lock.
func (t *recoveryTracker) claimLocked(connID string) (*parkedSession, bool) {
	p, ok := t.parked[connID]
	if !ok {
		return nil, false
	}
	delete(t.parked, connID)
	if time.Now().After(p.expires) {
		return nil, false
	}
	return p, true
}

// sweep drops expired sessions. Caller must hold the lock.
func (t *recoveryTracker) sweep(now time.Time) {
	for id, p := range t.parked {
		if now.After(p.expires) {
			delete(t.parked, id)
		}
	}
}
