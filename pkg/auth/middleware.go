package auth

import (
	"net/http"
	"strings"

	"github.com/example/perfumery/pkg/models"
	"github.com/gin-gonic/gin"
)

const claimsKey = "auth.claims"

// DenyFunc writes the rejection response and aborts the chain.
type DenyFunc func(c *gin.Context, status int, msg string)

// Authenticate attaches the claims of a valid bearer token to the request.
// Requests without a token pass through anonymously; a malformed or expired
// token is rejected.
func Authenticate(tokens *TokenManager, deny DenyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			deny(c, http.StatusUnauthorized, "invalid token format")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			deny(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// TryAuthenticate attaches the claims of a valid bearer token and treats a
// missing, malformed or expired token as an anonymous request.
func TryAuthenticate(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, raw, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if ok && strings.EqualFold(scheme, "Bearer") && raw != "" {
			if claims, err := tokens.Parse(raw); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// RequireRole rejects anonymous requests with 401 and requests whose role
// claim is not one of roles with 403. An empty roles list only requires a
// signed-in user.
func RequireRole(deny DenyFunc, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := FromContext(c)
		if !ok {
			deny(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if len(roles) == 0 {
			c.Next()
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		deny(c, http.StatusForbidden, "insufficient permissions")
	}
}

func FromContext(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
