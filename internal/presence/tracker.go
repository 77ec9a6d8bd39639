// Package presence tracks which users hold a live push channel and fans
// events out to them. State is per process.
package presence

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"talks/internal/domain"
	"talks/internal/events"
	"talks/internal/observability/metrics"
)

// Channel is one live push connection.
type Channel interface {
	// Send queues a frame without blocking; false means it was dropped.
	Send(frame []byte) bool
	Close()
}

type LastSeenStore interface {
	TouchLastSeen(ctx context.Context, id domain.UserID, at time.Time) error
}

type Tracker struct {
	mu     sync.Mutex
	byUser map[domain.UserID]Channel
	// every open channel, including ones superseded by a newer connection
	live map[Channel]struct{}

	store LastSeenStore
	now   func() time.Time
}

func NewTracker(store LastSeenStore) *Tracker {
	return &Tracker{
		byUser: make(map[domain.UserID]Channel),
		live:   make(map[Channel]struct{}),
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Connect makes ch the user's channel, replacing any earlier one, and
// broadcasts the online list.
func (t *Tracker) Connect(userID domain.UserID, ch Channel) {
	t.mu.Lock()
	t.byUser[userID] = ch
	t.live[ch] = struct{}{}
	online := len(t.byUser)
	t.mu.Unlock()

	metrics.OnlineUsers.Set(float64(online))
	slog.Debug("presence connect", "user_id", userID)
	t.broadcastOnline()
}

// Disconnect is called once ch has closed.
func (t *Tracker) Disconnect(ctx context.Context, userID domain.UserID, ch Channel) {
	t.mu.Lock()
	delete(t.live, ch)
	t.mu.Unlock()

	t.cleanup(ctx, userID, ch)
}

// Logout handles an explicit user_logout; ch stays open until the client
// drops it.
func (t *Tracker) Logout(ctx context.Context, userID domain.UserID, ch Channel) {
	t.cleanup(ctx, userID, ch)
}

func (t *Tracker) cleanup(ctx context.Context, userID domain.UserID, ch Channel) {
	if err := t.store.TouchLastSeen(ctx, userID, t.now()); err != nil {
		slog.Warn("presence lastSeen update failed", "user_id", userID, "error", err)
	}

	t.mu.Lock()
	// a newer connection may already own the entry
	if cur, ok := t.byUser[userID]; ok && cur == ch {
		delete(t.byUser, userID)
	}
	online := len(t.byUser)
	t.mu.Unlock()

	metrics.OnlineUsers.Set(float64(online))
	t.broadcastOnline()
}

func (t *Tracker) Lookup(userID domain.UserID) (Channel, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.byUser[userID]
	return ch, ok
}

// Online lists the ids of users with a registered channel, sorted.
func (t *Tracker) Online() []string {
	t.mu.Lock()
	ids := make([]string, 0, len(t.byUser))
	for id := range t.byUser {
		ids = append(ids, id.String())
	}
	t.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// Notify sends an event to userID's current channel. It reports false when
// the user is offline or the frame was dropped.
func (t *Tracker) Notify(userID domain.UserID, event string, data any) bool {
	ch, ok := t.Lookup(userID)
	if !ok {
		return false
	}
	frame, err := events.Encode(event, data)
	if err != nil {
		slog.Error("encode push frame", "event", event, "error", err)
		return false
	}
	return t.deliver(ch, event, frame)
}

// Broadcast sends an event to every open channel.
func (t *Tracker) Broadcast(event string, data any) {
	frame, err := events.Encode(event, data)
	if err != nil {
		slog.Error("encode push frame", "event", event, "error", err)
		return
	}

	t.mu.Lock()
	targets := make([]Channel, 0, len(t.live))
	for ch := range t.live {
		targets = append(targets, ch)
	}
	t.mu.Unlock()

	for _, ch := range targets {
		t.deliver(ch, event, frame)
	}
}

func (t *Tracker) broadcastOnline() {
	t.Broadcast(events.OnlineUsers, t.Online())
}

func (t *Tracker) deliver(ch Channel, event string, frame []byte) bool {
	if ch.Send(frame) {
		metrics.PushEventsTotal.WithLabelValues(event, "sent").Inc()
		return true
	}
	metrics.PushEventsTotal.WithLabelValues(event, "dropped").Inc()
	return false
}
