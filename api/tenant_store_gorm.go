package api

import (
	"context"

	"gorm.io/gorm"
)

// TenantStore persists tenants.
type TenantStore struct {
	db *gorm.DB
}

// NewTenantStore creates a tenant store.
func NewTenantStore(db *gorm.DB) *TenantStore {
	return &TenantStore{db: db}
}

// Create inserts a tenant.
func (s *TenantStore) Create(ctx context.Context, tenant *Tenant) error {
	return s.db.WithContext(ctx).Create(tenant).Error
}

// Get fetches a tenant by id.
func (s *TenantStore) Get(ctx context.Context, id string) (*Tenant, error) {
	var tenant Tenant
	if err := s.db.WithContext(ctx).First(&tenant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// List returns all tenants ordered by creation time.
func (s *TenantStore) List(ctx context.Context) ([]Tenant, error) {
	var tenants []Tenant
	if err := s.db.WithContext(ctx).Order("created_at").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// Delete removes a tenant by id.
func (s *TenantStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&Tenant{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
