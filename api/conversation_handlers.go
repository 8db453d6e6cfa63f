package api

import (
	"net/http"
	"strconv"

	"github.com/aurios-ai/aurios/auth"
	"github.com/gin-gonic/gin"
)

// CreateConversationRequest is the payload for conversation creation.
type CreateConversationRequest struct {
	Title   string `json:"title" binding:"required"`
	AgentID string `json:"agent_id"`
}

// CreateConversation opens a new conversation in the caller's tenant.
func (s *Server) CreateConversation(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if req.AgentID != "" {
		if _, err := s.agents.Get(c.Request.Context(), principal.TenantID, req.AgentID); err != nil {
			storeError(c, err)
			return
		}
	}

	conversation := Conversation{
		TenantID:  principal.TenantID,
		AgentID:   req.AgentID,
		Title:     req.Title,
		CreatedBy: principal.UserID,
	}
	if err := s.conversations.Create(c.Request.Context(), &conversation); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conversation)
}

// ListConversations returns every conversation in the caller's tenant.
func (s *Server) ListConversations(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	conversations, err := s.conversations.List(c.Request.Context(), principal.TenantID)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// GetConversation returns one conversation in the caller's tenant.
func (s *Server) GetConversation(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	conversation, err := s.conversations.Get(c.Request.Context(), principal.TenantID, c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

// DeleteConversation removes a conversation and its message history.
func (s *Server) DeleteConversation(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	if err := s.conversations.Delete(c.Request.Context(), principal.TenantID, c.Param("id")); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListConversationMessages returns a conversation's message history,
// oldest first. The optional limit query param caps the page size.
func (s *Server) ListConversationMessages(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			badRequest(c, "limit must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}

	if _, err := s.conversations.Get(c.Request.Context(), principal.TenantID, c.Param("id")); err != nil {
		storeError(c, err)
		return
	}

	messages, err := s.conversations.ListMessages(c.Request.Context(), principal.TenantID, c.Param("id"), limit)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
