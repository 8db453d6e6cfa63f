package ws

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// HandleMessage routes one inbound frame for the given connection. It
// reports false when the frame was rejected (unknown connection, rate
// limit, validation failure, unknown type); the connection itself stays
// open for everything except transport-level failures.
func (r *Registry) HandleMessage(connectionID string, raw []byte) bool {
	r.mu.Lock()
	conn, ok := r.connections[connectionID]
	if !ok {
		r.mu.Unlock()
		return false
	}

	now := r.now()
	if !r.limiter.allow(conn.UserID, now) {
		r.mu.Unlock()
		metricRateLimited.Inc()
		r.logger.Warn("rate limit exceeded - connection_id: %s, user_id: %s", connectionID, conn.UserID)
		r.Send(connectionID, errorEvent(CodeRateLimitExceeded, "message rate limit exceeded, slow down"))
		return false
	}
	conn.lastActivity = now.UTC()
	r.mu.Unlock()

	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.Send(connectionID, errorEvent(CodeInvalidMessage, "malformed message frame"))
		return false
	}

	metricMessages.WithLabelValues(env.Type).Inc()

	switch env.Type {
	case TypeChatMessage:
		return r.handleChatMessage(conn, env)
	case TypeTypingIndicator:
		return r.handleTypingIndicator(conn, env)
	case TypeJoinConversation:
		return r.handleJoinConversation(conn, env.ConversationID)
	case TypeLeaveConversation:
		return r.handleLeaveConversation(conn)
	case TypePing:
		return r.handlePing(conn)
	default:
		r.logger.Warn("unknown message type - connection_id: %s, type: %s", connectionID, env.Type)
		r.Send(connectionID, errorEvent(CodeUnknownMessageType, "unknown message type: "+env.Type))
		return false
	}
}

func (r *Registry) handleChatMessage(conn *Connection, env inboundEnvelope) bool {
	r.mu.Lock()
	conversationID := conn.conversationID
	r.mu.Unlock()

	if conversationID == "" {
		r.Send(conn.ID, errorEvent(CodeNotInConversation, "join a conversation before sending messages"))
		return false
	}

	content := strings.TrimSpace(env.Content)
	if content == "" {
		r.Send(conn.ID, errorEvent(CodeEmptyMessage, "message content must not be empty"))
		return false
	}

	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		UserID:         conn.UserID,
		TenantID:       conn.TenantID,
		Role:           "user",
		Content:        content,
		Timestamp:      r.now().UTC(),
		Metadata:       env.Metadata,
	}

	ev := newEvent(EventNewMessage)
	ev.ConversationID = conversationID
	ev.Message = &msg
	r.BroadcastToConversation(conversationID, ev, "")

	triggerAI := env.TriggerAI == nil || *env.TriggerAI

	// Persistence and AI streaming run decoupled from the read loop: a
	// slow sink or a hung model response must never block this handler
	// or any other connection.
	go r.dispatchChatEffects(conn.ID, msg, triggerAI)

	return true
}

// dispatchChatEffects persists the message and, when requested, invokes
// the AI responder. Responder errors are reported to the originating
// connection as ai_response_error and go no further.
func (r *Registry) dispatchChatEffects(connectionID string, msg Message, triggerAI bool) {
	ctx := context.Background()

	if r.sink != nil {
		if err := r.sink.SaveMessage(ctx, msg); err != nil {
			r.logger.Error("failed to persist chat message - conversation_id: %s: %v", msg.ConversationID, err)
		}
	}

	if !triggerAI || r.responder == nil {
		return
	}

	req := AIRequest{
		ConnectionID:   connectionID,
		ConversationID: msg.ConversationID,
		TenantID:       msg.TenantID,
		UserID:         msg.UserID,
		Content:        msg.Content,
	}
	if err := r.responder.StreamResponse(ctx, req); err != nil {
		r.logger.Error("ai response failed - conversation_id: %s: %v", msg.ConversationID, err)
		ev := newEvent(EventAIResponseError)
		ev.ConversationID = msg.ConversationID
		ev.Error = err.Error()
		r.Send(connectionID, ev)
	}
}

func (r *Registry) handleTypingIndicator(conn *Connection, env inboundEnvelope) bool {
	r.mu.Lock()
	conversationID := conn.conversationID
	r.mu.Unlock()

	if conversationID == "" {
		r.Send(conn.ID, errorEvent(CodeNotInConversation, "join a conversation before sending typing indicators"))
		return false
	}

	isTyping := env.IsTyping != nil && *env.IsTyping

	ev := newEvent(EventTypingIndicator)
	ev.UserID = conn.UserID
	ev.ConversationID = conversationID
	ev.IsTyping = &isTyping
	r.BroadcastToConversation(conversationID, ev, conn.ID)
	return true
}

func (r *Registry) handleJoinConversation(conn *Connection, conversationID string) bool {
	if conversationID == "" {
		r.Send(conn.ID, errorEvent(CodeInvalidMessage, "conversation_id is required"))
		return false
	}

	r.mu.Lock()
	if _, ok := r.connections[conn.ID]; !ok {
		r.mu.Unlock()
		return false
	}

	var leftPeers []string
	var leftConversation string
	if conn.conversationID != "" {
		leftConversation = conn.conversationID
		leftPeers = r.leaveConversationLocked(conn)
	}

	conn.conversationID = conversationID
	addBucket(r.byConversation, conversationID, conn)

	joinedPeers := make([]string, 0, len(r.byConversation[conversationID]))
	for id := range r.byConversation[conversationID] {
		if id != conn.ID {
			joinedPeers = append(joinedPeers, id)
		}
	}
	r.mu.Unlock()

	if leftConversation != "" {
		left := newEvent(EventUserLeft)
		left.UserID = conn.UserID
		left.ConversationID = leftConversation
		for _, id := range leftPeers {
			r.Send(id, left)
		}
	}

	joined := newEvent(EventUserJoined)
	joined.UserID = conn.UserID
	joined.ConversationID = conversationID
	for _, id := range joinedPeers {
		r.Send(id, joined)
	}

	confirm := newEvent(EventConversationJoined)
	confirm.ConversationID = conversationID
	r.Send(conn.ID, confirm)
	return true
}

func (r *Registry) handleLeaveConversation(conn *Connection) bool {
	r.mu.Lock()
	if conn.conversationID == "" {
		r.mu.Unlock()
		return false
	}
	conversationID := conn.conversationID
	peers := r.leaveConversationLocked(conn)
	r.mu.Unlock()

	left := newEvent(EventUserLeft)
	left.UserID = conn.UserID
	left.ConversationID = conversationID
	for _, id := range peers {
		r.Send(id, left)
	}
	return true
}

// leaveConversationLocked detaches the connection from its conversation
// bucket and clears the association. It returns the ids of the remaining
// members. Callers hold r.mu.
func (r *Registry) leaveConversationLocked(conn *Connection) []string {
	conversationID := conn.conversationID
	removeBucket(r.byConversation, conversationID, conn.ID)
	conn.conversationID = ""

	peers := make([]string, 0, len(r.byConversation[conversationID]))
	for id := range r.byConversation[conversationID] {
		peers = append(peers, id)
	}
	return peers
}

func (r *Registry) handlePing(conn *Connection) bool {
	r.Send(conn.ID, newEvent(EventPong))
	return true
}
