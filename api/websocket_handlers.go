package api

import (
	"errors"
	"net/http"

	"github.com/aurios-ai/aurios/auth"
	"github.com/aurios-ai/aurios/ws"
	"github.com/gin-gonic/gin"
)

// HandleWebSocket upgrades the request and parks it in the connection
// registry. Limit rejections happen before the upgrade so the client gets
// a plain HTTP status instead of a half-open socket.
func (s *Server) HandleWebSocket(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		unauthorized(c, "authentication required")
		return
	}

	conversationID := c.Query("conversation_id")
	if conversationID != "" {
		if _, err := s.conversations.Get(c.Request.Context(), principal.TenantID, conversationID); err != nil {
			storeError(c, err)
			return
		}
	}

	hs := &ws.GorillaHandshaker{
		Writer:   c.Writer,
		Request:  c.Request,
		Upgrader: &s.upgrader,
	}

	connectionID, err := s.registry.Connect(hs, principal.UserID, principal.TenantID, conversationID)
	if err != nil {
		switch {
		case errors.Is(err, ws.ErrUserConnectionLimit), errors.Is(err, ws.ErrTenantConnectionLimit):
			c.JSON(http.StatusTooManyRequests, Error{
				Error:   "connection_limit",
				Message: err.Error(),
			})
		default:
			// Upgrade failures already wrote the handshake response.
			s.logger.Error("websocket upgrade failed for user %s: %v", principal.UserID, err)
		}
		return
	}

	hs.RunReadLoop(s.registry, connectionID)
}
