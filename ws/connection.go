package ws

import (
	"time"
)

const (
	// sendBufferSize is the per-connection outbound queue depth. A full
	// queue marks the connection dead rather than blocking the sender.
	sendBufferSize = 256

	pingInterval = 30 * time.Second
)

// Transport is one live bidirectional channel to a client. The registry
// only writes and closes; reading stays with the transport's owner so the
// same registry serves any wire protocol behind a thin adapter.
type Transport interface {
	WriteJSON(v any) error
	WritePing() error
	Close(reason string) error
}

// Handshaker finalizes a pending transport handshake. Connect invokes it
// inside its critical section, after the limit checks pass, so a rejected
// connection never completes the upgrade.
type Handshaker interface {
	Accept() (Transport, error)
}

// Connection is one registered channel, scoped to a single user and tenant
// for its whole lifetime. conversationID and lastActivity are guarded by
// the registry mutex.
type Connection struct {
	ID       string
	UserID   string
	TenantID string

	ConnectedAt time.Time

	conversationID string
	lastActivity   time.Time

	transport Transport
	send      chan Event
}

// writePump drains the outbound queue onto the transport, interleaving
// keepalive pings. A write or ping failure tears the connection down
// through the registry's normal disconnect path.
func (c *Connection) writePump(r *Registry) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.transport.WriteJSON(ev); err != nil {
				r.Disconnect(c.ID, "write error")
				return
			}
		case <-ticker.C:
			if err := c.transport.WritePing(); err != nil {
				r.Disconnect(c.ID, "ping failure")
				return
			}
		}
	}
}
