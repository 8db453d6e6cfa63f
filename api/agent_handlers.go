package api

import (
	"net/http"

	"github.com/aurios-ai/aurios/auth"
	"github.com/gin-gonic/gin"
)

// AgentRequest is the payload for agent create and update.
type AgentRequest struct {
	Name         string  `json:"name" binding:"required"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	SystemPrompt string  `json:"system_prompt"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
}

// CreateAgent registers an agent configuration in the caller's tenant.
func (s *Server) CreateAgent(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)

	var req AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	agent := Agent{
		TenantID:     principal.TenantID,
		Name:         req.Name,
		Provider:     req.Provider,
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	}
	if err := s.agents.Create(c.Request.Context(), &agent); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agent)
}

// ListAgents returns every agent in the caller's tenant.
func (s *Server) ListAgents(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	agents, err := s.agents.List(c.Request.Context(), principal.TenantID)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, agents)
}

// GetAgent returns one agent in the caller's tenant.
func (s *Server) GetAgent(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	agent, err := s.agents.Get(c.Request.Context(), principal.TenantID, c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// UpdateAgent replaces an agent's configuration.
func (s *Server) UpdateAgent(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)

	var req AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	agent, err := s.agents.Get(c.Request.Context(), principal.TenantID, c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}

	agent.Name = req.Name
	agent.Provider = req.Provider
	agent.Model = req.Model
	agent.SystemPrompt = req.SystemPrompt
	agent.Temperature = req.Temperature
	agent.MaxTokens = req.MaxTokens

	if err := s.agents.Update(c.Request.Context(), agent); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// DeleteAgent removes an agent from the caller's tenant.
func (s *Server) DeleteAgent(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	if err := s.agents.Delete(c.Request.Context(), principal.TenantID, c.Param("id")); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
