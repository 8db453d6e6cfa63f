package api

import (
	"net/http"
	"strings"

	"github.com/aurios-ai/aurios/auth"
	"github.com/gin-gonic/gin"
)

// LoginRequest is the credential payload for PostLogin.
type LoginRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	User      *User  `json:"user"`
}

// PostLogin exchanges tenant-scoped credentials for a bearer token.
func (s *Server) PostLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := s.users.GetByEmail(c.Request.Context(), req.TenantID, strings.ToLower(req.Email))
	if err != nil || !s.users.CheckPassword(user, req.Password) {
		// Indistinguishable responses for unknown user and bad password.
		unauthorized(c, "invalid credentials")
		return
	}

	token, expiresAt, err := s.authService.IssueToken(auth.Principal{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Role:     user.Role,
	})
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User:      user,
	})
}

// PostLogout revokes the presented token.
func (s *Server) PostLogout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == "" || tokenString == header {
		badRequest(c, "missing bearer token")
		return
	}

	if err := s.authService.RevokeToken(c.Request.Context(), tokenString); err != nil {
		internalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMe returns the authenticated user's record.
func (s *Server) GetMe(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	user, err := s.users.Get(c.Request.Context(), principal.TenantID, principal.UserID)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
