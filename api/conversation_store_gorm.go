package api

import (
	"context"
	"encoding/json"

	"github.com/aurios-ai/aurios/ws"
	"gorm.io/gorm"
)

// ConversationStore persists conversations and their messages. It doubles
// as the realtime layer's MessageSink.
type ConversationStore struct {
	db *gorm.DB
}

// NewConversationStore creates a conversation store.
func NewConversationStore(db *gorm.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Create inserts a conversation.
func (s *ConversationStore) Create(ctx context.Context, conversation *Conversation) error {
	return s.db.WithContext(ctx).Create(conversation).Error
}

// Get fetches a conversation by id within a tenant.
func (s *ConversationStore) Get(ctx context.Context, tenantID, id string) (*Conversation, error) {
	var conversation Conversation
	err := s.db.WithContext(ctx).First(&conversation, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// List returns every conversation in the tenant, newest first.
func (s *ConversationStore) List(ctx context.Context, tenantID string) ([]Conversation, error) {
	var conversations []Conversation
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// Delete removes a conversation and its messages.
func (s *ConversationStore) Delete(ctx context.Context, tenantID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&Conversation{}, "tenant_id = ? AND id = ?", tenantID, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&MessageRecord{}, "tenant_id = ? AND conversation_id = ?", tenantID, id).Error
	})
}

// ListMessages returns the conversation's messages in chronological order.
func (s *ConversationStore) ListMessages(ctx context.Context, tenantID, conversationID string, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var messages []MessageRecord
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND conversation_id = ?", tenantID, conversationID).
		Order("created_at").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// SaveMessage implements ws.MessageSink for messages arriving over the
// realtime channel.
func (s *ConversationStore) SaveMessage(ctx context.Context, msg ws.Message) error {
	record := MessageRecord{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		TenantID:       msg.TenantID,
		UserID:         msg.UserID,
		Role:           msg.Role,
		Content:        msg.Content,
		CreatedAt:      msg.Timestamp,
	}
	if len(msg.Metadata) > 0 {
		data, err := json.Marshal(msg.Metadata)
		if err == nil {
			record.Metadata = string(data)
		}
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

// SaveRecord persists an already-shaped message record (assistant turns
// written by the AI streaming path).
func (s *ConversationStore) SaveRecord(ctx context.Context, record *MessageRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}
