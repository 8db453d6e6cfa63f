package api

import (
	"net/http"
	"strings"

	"github.com/aurios-ai/aurios/auth"
	"github.com/gin-gonic/gin"
)

// CreateUserRequest is the payload for CreateUser. Users are always
// created inside the caller's tenant.
type CreateUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password" binding:"required,min=8"`
	Role        string `json:"role"`
}

// UpdateUserRequest is the payload for UpdateUser.
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
}

// CreateUser adds a user to the caller's tenant.
func (s *Server) CreateUser(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	role := req.Role
	if role == "" {
		role = "member"
	}
	if role != "member" && role != "admin" {
		badRequest(c, "role must be member or admin")
		return
	}

	user := User{
		TenantID:    principal.TenantID,
		Email:       strings.ToLower(req.Email),
		DisplayName: req.DisplayName,
		Role:        role,
	}
	if err := s.users.Create(c.Request.Context(), &user, req.Password); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ListUsers returns every user in the caller's tenant.
func (s *Server) ListUsers(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	users, err := s.users.List(c.Request.Context(), principal.TenantID)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser returns one user in the caller's tenant.
func (s *Server) GetUser(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	user, err := s.users.Get(c.Request.Context(), principal.TenantID, c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser mutates display name and role.
func (s *Server) UpdateUser(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := s.users.Get(c.Request.Context(), principal.TenantID, c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Role != nil {
		if *req.Role != "member" && *req.Role != "admin" {
			badRequest(c, "role must be member or admin")
			return
		}
		user.Role = *req.Role
	}

	if err := s.users.Update(c.Request.Context(), user); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user from the caller's tenant.
func (s *Server) DeleteUser(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	if err := s.users.Delete(c.Request.Context(), principal.TenantID, c.Param("id")); err != nil {
		storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
