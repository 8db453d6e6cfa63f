package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTransport records everything the registry writes to it.
type fakeTransport struct {
	mu          sync.Mutex
	events      []Event
	failWrites  bool
	closed      bool
	closeReason string
}

func (t *fakeTransport) WriteJSON(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failWrites {
		return errors.New("transport is dead")
	}
	ev, ok := v.(Event)
	if !ok {
		return errors.New("unexpected payload type")
	}
	t.events = append(t.events, ev)
	return nil
}

func (t *fakeTransport) WritePing() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failWrites {
		return errors.New("transport is dead")
	}
	return nil
}

func (t *fakeTransport) Close(reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.closeReason = reason
	return nil
}

func (t *fakeTransport) eventsOfType(eventType string) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Event
	for _, ev := range t.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// waitForEvent blocks until the write pump has delivered an event of the
// given type, or fails the test after two seconds.
func (t *fakeTransport) waitForEvent(tb testing.TB, eventType string) Event {
	tb.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if evs := t.eventsOfType(eventType); len(evs) > 0 {
			return evs[len(evs)-1]
		}
		time.Sleep(5 * time.Millisecond)
	}
	tb.Fatalf("timed out waiting for %q event", eventType)
	return Event{}
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// fakeHandshaker hands a prepared transport to Connect.
type fakeHandshaker struct {
	transport *fakeTransport
	err       error
	accepted  bool
}

func (h *fakeHandshaker) Accept() (Transport, error) {
	if h.err != nil {
		return nil, h.err
	}
	h.accepted = true
	return h.transport, nil
}

type sinkRecord struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

func (s *sinkRecord) SaveMessage(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *sinkRecord) saved() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

type responderRecord struct {
	mu       sync.Mutex
	requests []AIRequest
	err      error
}

func (a *responderRecord) StreamResponse(_ context.Context, req AIRequest) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
	return a.err
}

func (a *responderRecord) calls() []AIRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]AIRequest(nil), a.requests...)
}

// fakeClock drives the registry's activity and rate-limit timestamps.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// mustConnect registers a fresh connection and returns its id and transport.
func mustConnect(t *testing.T, r *Registry, userID, tenantID, conversationID string) (string, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	id, err := r.Connect(&fakeHandshaker{transport: ft}, userID, tenantID, conversationID)
	require.NoError(t, err)
	ft.waitForEvent(t, EventConnectionEstablished)
	return id, ft
}

// assertIndexConsistency verifies the registry's structural invariants:
// every indexed id exists, every connection's scope matches bucket
// membership, no empty buckets remain, and no connection belongs to more
// than one conversation bucket.
func assertIndexConsistency(t *testing.T, r *Registry) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	indexes := map[string]map[string]map[string]*Connection{
		"tenant":       r.byTenant,
		"user":         r.byUser,
		"conversation": r.byConversation,
	}
	for name, index := range indexes {
		for key, bucket := range index {
			require.NotEmpty(t, bucket, "empty %s bucket %q leaked", name, key)
			for id := range bucket {
				require.Contains(t, r.connections, id, "%s bucket %q holds unknown connection %s", name, key, id)
			}
		}
	}

	for id, conn := range r.connections {
		require.Contains(t, r.byTenant[conn.TenantID], id)
		require.Contains(t, r.byUser[conn.UserID], id)

		memberships := 0
		for key, bucket := range r.byConversation {
			if _, ok := bucket[id]; ok {
				memberships++
				require.Equal(t, conn.conversationID, key)
			}
		}
		if conn.conversationID == "" {
			require.Zero(t, memberships)
		} else {
			require.Equal(t, 1, memberships, "connection %s in %d conversation buckets", id, memberships)
		}
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SweepInterval = 10 * time.Millisecond
	return cfg
}
