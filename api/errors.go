package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Error is the JSON error envelope returned by every handler.
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Error{Error: "invalid_input", Message: message})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Error{Error: "not_found", Message: message})
}

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Error{Error: "unauthorized", Message: message})
}

func conflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, Error{Error: "conflict", Message: message})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, Error{Error: "internal_error", Message: err.Error()})
}

// storeError maps store failures onto the right HTTP status.
func storeError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		notFound(c, "resource not found")
		return
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		conflict(c, "resource already exists")
		return
	}
	internalError(c, err)
}
