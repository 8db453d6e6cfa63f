package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aurios-ai/aurios/ws"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func seedTenant(t *testing.T, db *gorm.DB, name string) *Tenant {
	t.Helper()
	tenant := &Tenant{Name: name}
	require.NoError(t, NewTenantStore(db).Create(context.Background(), tenant))
	return tenant
}

func TestTenantStore(t *testing.T) {
	db := testDB(t)
	store := NewTenantStore(db)
	ctx := context.Background()

	t.Run("CreateAssignsID", func(t *testing.T) {
		tenant := &Tenant{Name: "acme"}
		require.NoError(t, store.Create(ctx, tenant))
		assert.NotEmpty(t, tenant.ID)
	})

	t.Run("GetMissingReturnsNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("DeleteMissingReturnsNotFound", func(t *testing.T) {
		assert.ErrorIs(t, store.Delete(ctx, "nope"), gorm.ErrRecordNotFound)
	})
}

func TestUserStore(t *testing.T) {
	db := testDB(t)
	store := NewUserStore(db)
	ctx := context.Background()
	tenant := seedTenant(t, db, "acme")

	t.Run("CreateHashesPassword", func(t *testing.T) {
		user := &User{TenantID: tenant.ID, Email: "alice@acme.test", DisplayName: "Alice", Role: "member"}
		require.NoError(t, store.Create(ctx, user, "s3cret-melon"))
		require.NotEmpty(t, user.PasswordHash)
		assert.NotContains(t, user.PasswordHash, "s3cret-melon")
		assert.True(t, store.CheckPassword(user, "s3cret-melon"))
		assert.False(t, store.CheckPassword(user, "wrong"))
	})

	t.Run("DuplicateEmailWithinTenantRejected", func(t *testing.T) {
		dup := &User{TenantID: tenant.ID, Email: "alice@acme.test", DisplayName: "Other Alice"}
		assert.ErrorIs(t, store.Create(ctx, dup, "whatever-pass"), gorm.ErrDuplicatedKey)
	})

	t.Run("SameEmailAllowedAcrossTenants", func(t *testing.T) {
		other := seedTenant(t, db, "globex")
		user := &User{TenantID: other.ID, Email: "alice@acme.test", DisplayName: "Globex Alice"}
		assert.NoError(t, store.Create(ctx, user, "whatever-pass"))
	})

	t.Run("GetByEmailIsTenantScoped", func(t *testing.T) {
		found, err := store.GetByEmail(ctx, tenant.ID, "alice@acme.test")
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, found.TenantID)

		_, err = store.GetByEmail(ctx, "other-tenant", "alice@acme.test")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestAgentStore(t *testing.T) {
	db := testDB(t)
	store := NewAgentStore(db)
	ctx := context.Background()
	tenant := seedTenant(t, db, "acme")

	agent := &Agent{TenantID: tenant.ID, Name: "helper", Model: "gpt-4o", Temperature: 0.3}
	require.NoError(t, store.Create(ctx, agent))

	t.Run("GetIsTenantScoped", func(t *testing.T) {
		found, err := store.Get(ctx, tenant.ID, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, "helper", found.Name)

		_, err = store.Get(ctx, "other-tenant", agent.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		agent.Name = "renamed"
		require.NoError(t, store.Update(ctx, agent))
		found, err := store.Get(ctx, tenant.ID, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", found.Name)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, tenant.ID, agent.ID))
		_, err := store.Get(ctx, tenant.ID, agent.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestConversationStore(t *testing.T) {
	db := testDB(t)
	store := NewConversationStore(db)
	ctx := context.Background()
	tenant := seedTenant(t, db, "acme")

	conversation := &Conversation{TenantID: tenant.ID, Title: "support thread", CreatedBy: "user-1"}
	require.NoError(t, store.Create(ctx, conversation))

	t.Run("SaveMessageImplementsSink", func(t *testing.T) {
		var _ ws.MessageSink = store

		err := store.SaveMessage(ctx, ws.Message{
			ID:             "msg-1",
			ConversationID: conversation.ID,
			TenantID:       tenant.ID,
			UserID:         "user-1",
			Role:           "user",
			Content:        "hello",
			Timestamp:      time.Now().UTC(),
			Metadata:       map[string]any{"client": "web"},
		})
		require.NoError(t, err)

		messages, err := store.ListMessages(ctx, tenant.ID, conversation.ID, 10)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "hello", messages[0].Content)
		assert.Contains(t, messages[0].Metadata, "web")
	})

	t.Run("ListMessagesChronologicalWithLimit", func(t *testing.T) {
		base := time.Now().UTC()
		for i, content := range []string{"first", "second", "third"} {
			require.NoError(t, store.SaveRecord(ctx, &MessageRecord{
				ConversationID: conversation.ID,
				TenantID:       tenant.ID,
				Role:           "user",
				Content:        content,
				CreatedAt:      base.Add(time.Duration(i+1) * time.Minute),
			}))
		}

		messages, err := store.ListMessages(ctx, tenant.ID, conversation.ID, 2)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.True(t, messages[0].CreatedAt.Before(messages[1].CreatedAt))
	})

	t.Run("DeleteRemovesMessages", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, tenant.ID, conversation.ID))

		_, err := store.Get(ctx, tenant.ID, conversation.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		messages, err := store.ListMessages(ctx, tenant.ID, conversation.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("DeleteIsTenantScoped", func(t *testing.T) {
		other := &Conversation{TenantID: tenant.ID, Title: "kept"}
		require.NoError(t, store.Create(ctx, other))
		assert.ErrorIs(t, store.Delete(ctx, "other-tenant", other.ID), gorm.ErrRecordNotFound)
		_, err := store.Get(ctx, tenant.ID, other.ID)
		assert.NoError(t, err)
	})
}
