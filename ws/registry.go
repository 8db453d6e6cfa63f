package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aurios-ai/aurios/internal/slogging"
	"github.com/google/uuid"
)

// Config holds the registry's tuning knobs.
type Config struct {
	MaxConnectionsPerUser   int
	MaxConnectionsPerTenant int
	MessageRateLimit        int
	SweepInterval           time.Duration
	IdleTimeout             time.Duration
}

// DefaultConfig returns the registry defaults.
func DefaultConfig() Config {
	return Config{
		MaxConnectionsPerUser:   5,
		MaxConnectionsPerTenant: 100,
		MessageRateLimit:        60,
		SweepInterval:           60 * time.Second,
		IdleTimeout:             30 * time.Minute,
	}
}

// MessageSink persists chat messages produced over the realtime channel.
type MessageSink interface {
	SaveMessage(ctx context.Context, msg Message) error
}

// AIRequest carries one triggered AI turn to the streaming responder.
type AIRequest struct {
	ConnectionID   string
	ConversationID string
	TenantID       string
	UserID         string
	Content        string
}

// AIResponder streams an AI reply for an inbound chat message. Progress is
// delivered through the registry's broadcast methods, never through the
// return value; the error is reported to the originating connection only.
type AIResponder interface {
	StreamResponse(ctx context.Context, req AIRequest) error
}

// Registry tracks every live connection and its tenant/user/conversation
// index membership. A single mutex guards all maps, so every method body
// is one critical section and the indexes can never disagree with the
// connections map.
type Registry struct {
	cfg    Config
	logger *slogging.Logger

	mu             sync.Mutex
	connections    map[string]*Connection
	byTenant       map[string]map[string]*Connection
	byUser         map[string]map[string]*Connection
	byConversation map[string]map[string]*Connection
	limiter        *rateLimiter

	sink      MessageSink
	responder AIResponder

	now func() time.Time
}

// NewRegistry creates a connection registry. sink and responder may be nil
// when persistence or AI streaming is not wired (tests, degraded mode).
func NewRegistry(cfg Config, sink MessageSink, responder AIResponder) *Registry {
	if cfg.MaxConnectionsPerUser <= 0 {
		cfg.MaxConnectionsPerUser = 5
	}
	if cfg.MaxConnectionsPerTenant <= 0 {
		cfg.MaxConnectionsPerTenant = 100
	}
	if cfg.MessageRateLimit <= 0 {
		cfg.MessageRateLimit = 60
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 60 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}

	return &Registry{
		cfg:            cfg,
		logger:         slogging.Get(),
		connections:    make(map[string]*Connection),
		byTenant:       make(map[string]map[string]*Connection),
		byUser:         make(map[string]map[string]*Connection),
		byConversation: make(map[string]map[string]*Connection),
		limiter:        newRateLimiter(cfg.MessageRateLimit),
		sink:           sink,
		responder:      responder,
		now:            time.Now,
	}
}

// Connect admits a new connection. The limit checks, the transport
// handshake, and the index insertion all happen inside one critical
// section, so a concurrent flood cannot slip past the caps between check
// and insert. On success the new connection receives a
// connection_established event carrying its id and scope.
func (r *Registry) Connect(hs Handshaker, userID, tenantID, conversationID string) (string, error) {
	r.mu.Lock()

	if len(r.byUser[userID]) >= r.cfg.MaxConnectionsPerUser {
		r.mu.Unlock()
		metricConnectionsRejected.WithLabelValues("user").Inc()
		return "", fmt.Errorf("user %s: %w", userID, ErrUserConnectionLimit)
	}
	if len(r.byTenant[tenantID]) >= r.cfg.MaxConnectionsPerTenant {
		r.mu.Unlock()
		metricConnectionsRejected.WithLabelValues("tenant").Inc()
		return "", fmt.Errorf("tenant %s: %w", tenantID, ErrTenantConnectionLimit)
	}

	transport, err := hs.Accept()
	if err != nil {
		r.mu.Unlock()
		return "", fmt.Errorf("transport handshake failed: %w", err)
	}

	now := r.now().UTC()
	conn := &Connection{
		ID:             uuid.NewString(),
		UserID:         userID,
		TenantID:       tenantID,
		ConnectedAt:    now,
		conversationID: conversationID,
		lastActivity:   now,
		transport:      transport,
		send:           make(chan Event, sendBufferSize),
	}

	r.connections[conn.ID] = conn
	addBucket(r.byTenant, tenantID, conn)
	addBucket(r.byUser, userID, conn)
	if conversationID != "" {
		addBucket(r.byConversation, conversationID, conn)
	}

	established := newEvent(EventConnectionEstablished)
	established.ConnectionID = conn.ID
	established.UserID = userID
	established.TenantID = tenantID
	established.ConversationID = conversationID
	r.enqueueLocked(conn, established)

	r.mu.Unlock()

	go conn.writePump(r)

	metricConnects.Inc()
	metricActiveConnections.Set(float64(r.ConnectionCount()))
	r.logger.Info("websocket connected - connection_id: %s, user_id: %s, tenant_id: %s", conn.ID, userID, tenantID)

	return conn.ID, nil
}

// Disconnect removes a connection from every index and closes its
// transport. Idempotent: a second call for the same id is a no-op.
// Conversation peers are notified with user_disconnected.
func (r *Registry) Disconnect(connectionID, reason string) {
	r.mu.Lock()
	conn, ok := r.connections[connectionID]
	if !ok {
		r.mu.Unlock()
		return
	}

	if conn.conversationID != "" {
		ev := newEvent(EventUserDisconnected)
		ev.ConnectionID = conn.ID
		ev.UserID = conn.UserID
		ev.ConversationID = conn.conversationID
		ev.Reason = reason
		for _, peer := range r.byConversation[conn.conversationID] {
			if peer.ID != conn.ID {
				r.enqueueLocked(peer, ev)
			}
		}
	}

	r.removeLocked(conn)
	r.mu.Unlock()

	// Best effort: the transport may already be dead.
	_ = conn.transport.Close(reason)

	metricDisconnects.WithLabelValues(reason).Inc()
	metricActiveConnections.Set(float64(r.ConnectionCount()))
	r.logger.Info("websocket disconnected - connection_id: %s, reason: %s", conn.ID, reason)
}

// Send serializes msg to the connection's outbound queue. A full queue or
// unknown id reports false; the former also tears the connection down so
// broadcast callers shed dead peers without aborting the fan-out.
func (r *Registry) Send(connectionID string, ev Event) bool {
	r.mu.Lock()
	conn, ok := r.connections[connectionID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delivered := r.enqueueLocked(conn, ev)
	r.mu.Unlock()

	if !delivered {
		r.Disconnect(connectionID, "send queue full")
	}
	return delivered
}

// BroadcastToConversation fans an event out to every member of the
// conversation, skipping excludeID. Individual send failures are isolated.
func (r *Registry) BroadcastToConversation(conversationID string, ev Event, excludeID string) {
	for _, id := range r.snapshotBucket(r.byConversation, conversationID) {
		if id != excludeID {
			r.Send(id, ev)
		}
	}
}

// BroadcastToTenant fans an event out to every connection in the tenant,
// skipping excludeID.
func (r *Registry) BroadcastToTenant(tenantID string, ev Event, excludeID string) {
	for _, id := range r.snapshotBucket(r.byTenant, tenantID) {
		if id != excludeID {
			r.Send(id, ev)
		}
	}
}

// SendToUser delivers an event to every connection of the user that is
// scoped to the given tenant. The tenant filter prevents cross-tenant
// leakage if a user id were ever reused across tenants.
func (r *Registry) SendToUser(userID, tenantID string, ev Event, excludeID string) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.byUser[userID]))
	for id, conn := range r.byUser[userID] {
		if conn.TenantID == tenantID {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	for _, id := range ids {
		if id != excludeID {
			r.Send(id, ev)
		}
	}
}

// ConnectionCount returns the number of registered connections.
func (r *Registry) ConnectionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connections)
}

// Stats is a point-in-time summary of the registry.
type Stats struct {
	Connections   int `json:"connections"`
	Users         int `json:"users"`
	Tenants       int `json:"tenants"`
	Conversations int `json:"conversations"`
}

// GetStats returns a snapshot of registry occupancy.
func (r *Registry) GetStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Connections:   len(r.connections),
		Users:         len(r.byUser),
		Tenants:       len(r.byTenant),
		Conversations: len(r.byConversation),
	}
}

// enqueueLocked queues an event without blocking. Success bumps the
// connection's activity clock. Callers hold r.mu.
func (r *Registry) enqueueLocked(conn *Connection, ev Event) bool {
	select {
	case conn.send <- ev:
		conn.lastActivity = r.now().UTC()
		return true
	default:
		return false
	}
}

// removeLocked deletes the connection from the connections map and every
// index bucket, dropping buckets that become empty, and closes the send
// channel so the write pump exits. Callers hold r.mu.
func (r *Registry) removeLocked(conn *Connection) {
	delete(r.connections, conn.ID)
	removeBucket(r.byTenant, conn.TenantID, conn.ID)
	removeBucket(r.byUser, conn.UserID, conn.ID)
	if conn.conversationID != "" {
		removeBucket(r.byConversation, conn.conversationID, conn.ID)
		conn.conversationID = ""
	}
	close(conn.send)
}

func (r *Registry) snapshotBucket(index map[string]map[string]*Connection, key string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(index[key]))
	for id := range index[key] {
		ids = append(ids, id)
	}
	return ids
}

func addBucket(index map[string]map[string]*Connection, key string, conn *Connection) {
	bucket, ok := index[key]
	if !ok {
		bucket = make(map[string]*Connection)
		index[key] = bucket
	}
	bucket[conn.ID] = conn
}

func removeBucket(index map[string]map[string]*Connection, key, connectionID string) {
	if bucket, ok := index[key]; ok {
		delete(bucket, connectionID)
		if len(bucket) == 0 {
			delete(index, key)
		}
	}
}
