// internal/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/auth"
)

// Authenticator resolves bearer tokens into request identities.
type Authenticator struct {
	tokenManager *auth.TokenManager
}

func NewAuthenticator(tokenManager *auth.TokenManager) *Authenticator {
	return &Authenticator{tokenManager: tokenManager}
}

// Required rejects requests without a valid access token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error{Error: "missing authorization header"})
			return
		}
		id, err := a.authenticate(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error{Error: "invalid token"})
			return
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// Optional attaches the identity when a valid token is present and lets
// anonymous requests through. A malformed or expired token is still an
// error, so clients notice they were logged out.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		id, err := a.authenticate(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error{Error: "invalid token"})
			return
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func (a *Authenticator) authenticate(header string) (auth.Identity, error) {
	token, err := auth.ExtractTokenFromHeader(header)
	if err != nil {
		return auth.Identity{}, err
	}
	claims, err := a.tokenManager.ValidateAccessToken(token)
	if err != nil {
		return auth.Identity{}, err
	}
	return claims.Identity(), nil
}

// RequireRole must run after Required.
func RequireRole(roles ...string) gin.HandlerFunc {
	roleMap := make(map[string]bool)
	for _, role := range roles {
		roleMap[role] = true
	}

	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error{Error: "user not authenticated"})
			return
		}
		if !roleMap[id.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, api.Error{Error: "insufficient permissions"})
			return
		}
		c.Next()
	}
}
