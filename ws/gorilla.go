package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	readWait       = 60 * time.Second
	maxMessageSize = 4096
)

// GorillaHandshaker upgrades an HTTP request to a gorilla websocket inside
// the registry's Connect critical section. After a successful Connect it
// owns the read side via RunReadLoop.
type GorillaHandshaker struct {
	Writer   http.ResponseWriter
	Request  *http.Request
	Upgrader *websocket.Upgrader

	conn *websocket.Conn
}

// Accept finalizes the websocket upgrade.
func (h *GorillaHandshaker) Accept() (Transport, error) {
	conn, err := h.Upgrader.Upgrade(h.Writer, h.Request, nil)
	if err != nil {
		return nil, err
	}
	h.conn = conn
	return &gorillaTransport{conn: conn}, nil
}

// RunReadLoop pumps inbound frames into the registry until the client
// goes away. It blocks; call it from the HTTP handler goroutine. Any read
// error tears the connection down.
func (h *GorillaHandshaker) RunReadLoop(r *Registry, connectionID string) {
	defer r.Disconnect(connectionID, "client closed")

	h.conn.SetReadLimit(maxMessageSize)
	_ = h.conn.SetReadDeadline(time.Now().Add(readWait))
	h.conn.SetPongHandler(func(string) error {
		return h.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, raw, err := h.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				r.logger.Debug("websocket read error - connection_id: %s: %v", connectionID, err)
			}
			return
		}
		// Inbound activity refreshes the read deadline alongside the
		// registry's own last_activity bookkeeping.
		_ = h.conn.SetReadDeadline(time.Now().Add(readWait))
		r.HandleMessage(connectionID, raw)
	}
}

// gorillaTransport adapts a gorilla connection to the registry's Transport.
type gorillaTransport struct {
	conn *websocket.Conn
}

func (t *gorillaTransport) WriteJSON(v any) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteJSON(v)
}

func (t *gorillaTransport) WritePing() error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.PingMessage, nil)
}

func (t *gorillaTransport) Close(reason string) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	return t.conn.Close()
}
