package presence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"talks/internal/domain"
	"talks/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	mu     sync.Mutex
	frames []events.Frame
	full   bool
	closed bool
}

func (f *fakeChannel) Send(frame []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full || f.closed {
		return false
	}
	var fr events.Frame
	if err := json.Unmarshal(frame, &fr); err != nil {
		panic(err)
	}
	f.frames = append(f.frames, fr)
	return true
}

func (f *fakeChannel) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeChannel) last(event string) (events.Frame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.frames) - 1; i >= 0; i-- {
		if f.frames[i].Event == event {
			return f.frames[i], true
		}
	}
	return events.Frame{}, false
}

func (f *fakeChannel) lastOnline(t *testing.T) []string {
	t.Helper()
	fr, ok := f.last(events.OnlineUsers)
	require.True(t, ok, "no getOnlineUsers frame")
	var ids []string
	require.NoError(t, json.Unmarshal(fr.Data, &ids))
	return ids
}

type fakeLastSeen struct {
	mu    sync.Mutex
	calls map[domain.UserID]int
	err   error
}

func newFakeLastSeen() *fakeLastSeen { return &fakeLastSeen{calls: map[domain.UserID]int{}} }

func (f *fakeLastSeen) TouchLastSeen(_ context.Context, id domain.UserID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	return f.err
}

func TestConnectRegistersAndBroadcasts(t *testing.T) {
	tr := NewTracker(newFakeLastSeen())
	a, b := uuid.New(), uuid.New()
	chA, chB := &fakeChannel{}, &fakeChannel{}

	tr.Connect(a, chA)
	tr.Connect(b, chB)

	got, ok := tr.Lookup(a)
	require.True(t, ok)
	assert.Same(t, chA, got)

	want := tr.Online()
	assert.Len(t, want, 2)
	assert.Equal(t, want, chA.lastOnline(t))
	assert.Equal(t, want, chB.lastOnline(t))
}

func TestReconnectKeepsOneEntryPerUser(t *testing.T) {
	tr := NewTracker(newFakeLastSeen())
	a := uuid.New()
	first, second := &fakeChannel{}, &fakeChannel{}

	tr.Connect(a, first)
	tr.Connect(a, second)

	got, _ := tr.Lookup(a)
	assert.Same(t, second, got)
	assert.Equal(t, []string{a.String()}, tr.Online())

	// superseded channel still hears broadcasts until it closes
	tr.Broadcast(events.NewMessage, map[string]string{"x": "y"})
	_, ok := first.last(events.NewMessage)
	assert.True(t, ok)
}

func TestStaleDisconnectDoesNotEvictNewConnection(t *testing.T) {
	store := newFakeLastSeen()
	tr := NewTracker(store)
	a := uuid.New()
	stale, fresh := &fakeChannel{}, &fakeChannel{}

	tr.Connect(a, stale)
	tr.Connect(a, fresh)
	tr.Disconnect(context.Background(), a, stale)

	got, ok := tr.Lookup(a)
	require.True(t, ok)
	assert.Same(t, fresh, got)
	assert.Equal(t, []string{a.String()}, fresh.lastOnline(t))
	assert.Equal(t, 1, store.calls[a])
}

func TestDisconnectRemovesAndPersists(t *testing.T) {
	store := newFakeLastSeen()
	tr := NewTracker(store)
	a, b := uuid.New(), uuid.New()
	chA, chB := &fakeChannel{}, &fakeChannel{}
	tr.Connect(a, chA)
	tr.Connect(b, chB)

	tr.Disconnect(context.Background(), a, chA)

	_, ok := tr.Lookup(a)
	assert.False(t, ok)
	assert.Equal(t, []string{b.String()}, chB.lastOnline(t))
	assert.Equal(t, 1, store.calls[a])
}

func TestPersistenceFailureStillCleansUp(t *testing.T) {
	store := newFakeLastSeen()
	store.err = errors.New("db down")
	tr := NewTracker(store)
	a, b := uuid.New(), uuid.New()
	chA, chB := &fakeChannel{}, &fakeChannel{}
	tr.Connect(a, chA)
	tr.Connect(b, chB)

	tr.Disconnect(context.Background(), a, chA)

	_, ok := tr.Lookup(a)
	assert.False(t, ok)
	assert.Equal(t, []string{b.String()}, chB.lastOnline(t))
}

func TestLogoutKeepsChannelOpen(t *testing.T) {
	tr := NewTracker(newFakeLastSeen())
	a, b := uuid.New(), uuid.New()
	chA, chB := &fakeChannel{}, &fakeChannel{}
	tr.Connect(a, chA)
	tr.Connect(b, chB)

	tr.Logout(context.Background(), a, chA)

	_, ok := tr.Lookup(a)
	assert.False(t, ok)
	// the logged-out socket is not closed and still receives the list
	assert.Equal(t, []string{b.String()}, chA.lastOnline(t))
}

func TestNotify(t *testing.T) {
	tr := NewTracker(newFakeLastSeen())
	a := uuid.New()
	assert.False(t, tr.Notify(a, events.NewMessage, "hi"))

	ch := &fakeChannel{}
	tr.Connect(a, ch)
	assert.True(t, tr.Notify(a, events.MessagesRead, events.MessagesReadPayload{ReaderID: "r", MessageCount: 2}))

	fr, ok := ch.last(events.MessagesRead)
	require.True(t, ok)
	assert.JSONEq(t, `{"readerId":"r","messageCount":2}`, string(fr.Data))

	ch.full = true
	assert.False(t, tr.Notify(a, events.NewMessage, "dropped"))
}

func TestOnlineIsSorted(t *testing.T) {
	tr := NewTracker(newFakeLastSeen())
	for i := 0; i < 20; i++ {
		tr.Connect(uuid.New(), &fakeChannel{})
	}
	ids := tr.Online()
	for i := 1; i < len(ids); i++ {
		require.Less(t, ids[i-1], ids[i])
	}
}

func TestConcurrentConnectDisconnect(t *testing.T) {
	tr := NewTracker(newFakeLastSeen())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uuid.New()
			ch := &fakeChannel{}
			tr.Connect(id, ch)
			tr.Notify(id, events.NewMessage, "x")
			tr.Disconnect(context.Background(), id, ch)
		}()
	}
	wg.Wait()
	assert.Empty(t, tr.Online())
}
