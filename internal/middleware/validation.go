// internal/middleware/validation.go
package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
)

// ValidationConfig holds validation configuration
type ValidationConfig struct {
	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{MaxBodyBytes: 64 << 10}
}

// LimitBody rejects request bodies larger than the configured size.
func (v *ValidationConfig) LimitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > v.MaxBodyBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				api.Error{Error: fmt.Sprintf("request body exceeds %d bytes", v.MaxBodyBytes)})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, v.MaxBodyBytes)
		}
		c.Next()
	}
}

// RequireTaskKey checks that the named query parameter holds a task key.
func RequireTaskKey(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Query(param)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, api.Error{Error: fmt.Sprintf("%s is required", param)})
			return
		}
		if !isValidUUID(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, api.Error{Error: fmt.Sprintf("invalid %s", param)})
			return
		}
		c.Next()
	}
}

// isValidUUID checks if a string is a valid UUID format
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
