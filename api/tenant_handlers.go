package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateTenantRequest is the payload for CreateTenant.
type CreateTenantRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateTenant provisions a new tenant.
func (s *Server) CreateTenant(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	tenant := Tenant{Name: req.Name}
	if err := s.tenants.Create(c.Request.Context(), &tenant); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

// ListTenants returns all tenants.
func (s *Server) ListTenants(c *gin.Context) {
	tenants, err := s.tenants.List(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenants)
}

// GetTenant returns one tenant by id.
func (s *Server) GetTenant(c *gin.Context) {
	tenant, err := s.tenants.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// DeleteTenant removes a tenant.
func (s *Server) DeleteTenant(c *gin.Context) {
	if err := s.tenants.Delete(c.Request.Context(), c.Param("id")); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
