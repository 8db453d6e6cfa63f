package api

import (
	"context"

	"gorm.io/gorm"
)

// AgentStore persists agent configurations.
type AgentStore struct {
	db *gorm.DB
}

// NewAgentStore creates an agent store.
func NewAgentStore(db *gorm.DB) *AgentStore {
	return &AgentStore{db: db}
}

// Create inserts an agent.
func (s *AgentStore) Create(ctx context.Context, agent *Agent) error {
	return s.db.WithContext(ctx).Create(agent).Error
}

// Get fetches an agent by id within a tenant.
func (s *AgentStore) Get(ctx context.Context, tenantID, id string) (*Agent, error) {
	var agent Agent
	err := s.db.WithContext(ctx).First(&agent, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// List returns every agent in the tenant.
func (s *AgentStore) List(ctx context.Context, tenantID string) ([]Agent, error) {
	var agents []Agent
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at").Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}

// Update persists mutable agent fields.
func (s *AgentStore) Update(ctx context.Context, agent *Agent) error {
	return s.db.WithContext(ctx).Save(agent).Error
}

// Delete removes an agent within a tenant.
func (s *AgentStore) Delete(ctx context.Context, tenantID, id string) error {
	result := s.db.WithContext(ctx).Delete(&Agent{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
