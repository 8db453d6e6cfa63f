package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/aurios-ai/aurios/api"
	"github.com/aurios-ai/aurios/internal/config"
	"github.com/aurios-ai/aurios/internal/slogging"
	"github.com/aurios-ai/aurios/ws"
)

// historyLimit caps how many prior messages are replayed into the prompt.
const historyLimit = 20

// ConversationData is the slice of the conversation store the streamer
// needs: conversation lookup, history replay and assistant persistence.
type ConversationData interface {
	Get(ctx context.Context, tenantID, id string) (*api.Conversation, error)
	ListMessages(ctx context.Context, tenantID, conversationID string, limit int) ([]api.MessageRecord, error)
	SaveRecord(ctx context.Context, record *api.MessageRecord) error
}

// AgentData resolves the agent configuration bound to a conversation.
type AgentData interface {
	Get(ctx context.Context, tenantID, id string) (*api.Agent, error)
}

// Broadcaster is the registry surface the streamer emits progress through.
type Broadcaster interface {
	Send(connectionID string, ev ws.Event) bool
	BroadcastToConversation(conversationID string, ev ws.Event, excludeID string)
}

// Streamer turns an inbound chat message into a streamed assistant reply.
// It implements ws.AIResponder.
type Streamer struct {
	cfg           config.AIConfig
	llm           llms.Model
	conversations ConversationData
	agents        AgentData
	logger        *slogging.Logger

	broadcaster Broadcaster
}

// NewStreamer builds a streamer over the given model and stores. Bind must
// be called with the registry before any response is streamed.
func NewStreamer(cfg config.AIConfig, llm llms.Model, conversations ConversationData, agents AgentData) *Streamer {
	return &Streamer{
		cfg:           cfg,
		llm:           llm,
		conversations: conversations,
		agents:        agents,
		logger:        slogging.Get(),
	}
}

// Bind attaches the broadcaster. The registry and the streamer reference
// each other, so the registry is handed in after construction.
func (s *Streamer) Bind(b Broadcaster) {
	s.broadcaster = b
}

// NewClient builds an OpenAI-compatible langchaingo model from config.
func NewClient(cfg config.AIConfig) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ai client: %w", err)
	}
	return llm, nil
}

// StreamResponse generates the assistant reply for one chat message and
// streams it into the conversation: phase_start, one new_message delta per
// chunk, a final new_message with the persisted record, phase_complete.
func (s *Streamer) StreamResponse(ctx context.Context, req ws.AIRequest) error {
	if s.broadcaster == nil {
		return fmt.Errorf("streamer not bound to a broadcaster")
	}

	start := ws.Event{
		Type:           ws.EventPhaseStart,
		Timestamp:      time.Now().UTC(),
		ConversationID: req.ConversationID,
		Phase:          "generation",
	}
	s.broadcaster.BroadcastToConversation(req.ConversationID, start, "")

	content, err := s.generate(ctx, req)
	if err != nil {
		return err
	}

	record := &api.MessageRecord{
		ConversationID: req.ConversationID,
		TenantID:       req.TenantID,
		Role:           "assistant",
		Content:        content,
	}
	if err := s.conversations.SaveRecord(ctx, record); err != nil {
		// The reply already streamed; losing the record is worth a log
		// line but not an error frame.
		s.logger.Error("persist assistant message for conversation %s: %v", req.ConversationID, err)
	}

	final := ws.Event{
		Type:           ws.EventNewMessage,
		Timestamp:      time.Now().UTC(),
		ConversationID: req.ConversationID,
		Message: &ws.Message{
			ID:             record.ID,
			ConversationID: req.ConversationID,
			TenantID:       req.TenantID,
			Role:           "assistant",
			Content:        content,
			Timestamp:      time.Now().UTC(),
		},
	}
	s.broadcaster.BroadcastToConversation(req.ConversationID, final, "")

	complete := ws.Event{
		Type:           ws.EventPhaseComplete,
		Timestamp:      time.Now().UTC(),
		ConversationID: req.ConversationID,
		Phase:          "generation",
	}
	s.broadcaster.BroadcastToConversation(req.ConversationID, complete, "")
	return nil
}

// generate runs the model with the conversation's agent settings and
// history, broadcasting one delta event per streamed chunk. Returns the
// complete reply text.
func (s *Streamer) generate(ctx context.Context, req ws.AIRequest) (string, error) {
	messages, opts, err := s.buildPrompt(ctx, req)
	if err != nil {
		return "", err
	}

	var reply strings.Builder
	opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		reply.Write(chunk)
		delta := ws.Event{
			Type:           ws.EventNewMessage,
			Timestamp:      time.Now().UTC(),
			ConversationID: req.ConversationID,
			Phase:          "streaming",
			Content:        string(chunk),
		}
		s.broadcaster.BroadcastToConversation(req.ConversationID, delta, "")
		return nil
	}))

	resp, err := s.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}

	// Providers that ignore the streaming func still return the full
	// completion in the response.
	if reply.Len() == 0 && len(resp.Choices) > 0 {
		reply.WriteString(resp.Choices[0].Content)
	}
	return reply.String(), nil
}

// buildPrompt assembles system prompt, replayed history and the new user
// turn, plus the per-agent call options.
func (s *Streamer) buildPrompt(ctx context.Context, req ws.AIRequest) ([]llms.MessageContent, []llms.CallOption, error) {
	systemPrompt := ""
	temperature := s.cfg.Temperature
	maxTokens := s.cfg.MaxTokens

	conversation, err := s.conversations.Get(ctx, req.TenantID, req.ConversationID)
	if err != nil {
		return nil, nil, fmt.Errorf("load conversation %s: %w", req.ConversationID, err)
	}
	if conversation.AgentID != "" {
		agent, err := s.agents.Get(ctx, req.TenantID, conversation.AgentID)
		if err != nil {
			return nil, nil, fmt.Errorf("load agent %s: %w", conversation.AgentID, err)
		}
		systemPrompt = agent.SystemPrompt
		if agent.Temperature > 0 {
			temperature = agent.Temperature
		}
		if agent.MaxTokens > 0 {
			maxTokens = agent.MaxTokens
		}
	}

	history, err := s.conversations.ListMessages(ctx, req.TenantID, req.ConversationID, historyLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("load history for conversation %s: %w", req.ConversationID, err)
	}

	var messages []llms.MessageContent
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	// The triggering message is usually already persisted by the time we
	// replay history; drop it from the tail so it is not sent twice.
	if n := len(history); n > 0 && history[n-1].Role == "user" && history[n-1].Content == req.Content {
		history = history[:n-1]
	}
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Content))

	var opts []llms.CallOption
	if temperature > 0 {
		opts = append(opts, llms.WithTemperature(temperature))
	}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}
	return messages, opts, nil
}
