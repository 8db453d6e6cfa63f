package ws

import (
	"time"
)

// Outbound event types (server -> client).
const (
	EventConnectionEstablished = "connection_established"
	EventNewMessage            = "new_message"
	EventTypingIndicator       = "typing_indicator"
	EventUserJoined            = "user_joined"
	EventUserLeft              = "user_left"
	EventUserDisconnected      = "user_disconnected"
	EventConversationJoined    = "conversation_joined"
	EventAIResponseError       = "ai_response_error"
	EventPong                  = "pong"
	EventError                 = "error"

	// Agentic progress events emitted by the AI streaming path.
	EventPhaseStart      = "phase_start"
	EventPhaseTransition = "phase_transition"
	EventPhaseComplete   = "phase_complete"
	EventToolExecution   = "tool_execution"
	EventSubagentStatus  = "subagent_status"
	EventSourceRetrieval = "source_retrieval"
)

// Inbound message types (client -> server).
const (
	TypeChatMessage       = "chat_message"
	TypeTypingIndicator   = "typing_indicator"
	TypeJoinConversation  = "join_conversation"
	TypeLeaveConversation = "leave_conversation"
	TypePing              = "ping"
)

// Error codes carried on "error" events.
const (
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeInvalidMessage     = "INVALID_MESSAGE"
	CodeUnknownMessageType = "UNKNOWN_MESSAGE_TYPE"
	CodeNotInConversation  = "NOT_IN_CONVERSATION"
	CodeEmptyMessage       = "EMPTY_MESSAGE"
)

// Message is a chat message record as broadcast to a conversation and
// handed to the MessageSink for persistence.
type Message struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	UserID         string         `json:"user_id"`
	TenantID       string         `json:"tenant_id"`
	Role           string         `json:"role"`
	Content        string         `json:"content"`
	Timestamp      time.Time      `json:"timestamp"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Event is the outbound frame envelope. Only the fields relevant to the
// event type are populated; everything else is omitted from the wire.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	ConnectionID   string   `json:"connection_id,omitempty"`
	UserID         string   `json:"user_id,omitempty"`
	TenantID       string   `json:"tenant_id,omitempty"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Message        *Message `json:"message,omitempty"`
	IsTyping       *bool    `json:"is_typing,omitempty"`
	Reason         string   `json:"reason,omitempty"`

	// Error reporting
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`

	// Agentic progress
	Phase   string `json:"phase,omitempty"`
	Tool    string `json:"tool,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Content string `json:"content,omitempty"`
}

// inboundEnvelope is the flat frame shape accepted from clients. A single
// "type" field dispatches; the remaining fields are type-specific.
type inboundEnvelope struct {
	Type           string         `json:"type"`
	Content        string         `json:"content"`
	TriggerAI      *bool          `json:"trigger_ai"`
	Metadata       map[string]any `json:"metadata"`
	IsTyping       *bool          `json:"is_typing"`
	ConversationID string         `json:"conversation_id"`
}

func newEvent(eventType string) Event {
	return Event{Type: eventType, Timestamp: time.Now().UTC()}
}

func errorEvent(code, message string) Event {
	ev := newEvent(EventError)
	ev.Code = code
	ev.Error = message
	return ev
}
