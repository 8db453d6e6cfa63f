package api

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserStore persists users and owns password hashing.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a user store.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a user with the given clear-text password hashed.
func (s *UserStore) Create(ctx context.Context, user *User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return s.db.WithContext(ctx).Create(user).Error
}

// Get fetches a user by id within a tenant.
func (s *UserStore) Get(ctx context.Context, tenantID, id string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "tenant_id = ? AND id = ?", tenantID, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail fetches a user by email within a tenant.
func (s *UserStore) GetByEmail(ctx context.Context, tenantID, email string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "tenant_id = ? AND email = ?", tenantID, email).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns every user in the tenant.
func (s *UserStore) List(ctx context.Context, tenantID string) ([]User, error) {
	var users []User
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update persists mutable user fields.
func (s *UserStore) Update(ctx context.Context, user *User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

// Delete removes a user within a tenant.
func (s *UserStore) Delete(ctx context.Context, tenantID, id string) error {
	result := s.db.WithContext(ctx).Delete(&User{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CheckPassword verifies a clear-text password against the stored hash.
func (s *UserStore) CheckPassword(user *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
