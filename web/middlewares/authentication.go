package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hadirku.id/hadirku/security"
	"hadirku.id/hadirku/web/common"
)

const identityKey = "identity"

// Authentication checks for a valid Bearer token (header or cookie) and puts
// the identity claims into the gin context.
func Authentication(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			cookie, err := c.Cookie("hadirku.ApplicationCookie")
			if err != nil {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			tokenStr = cookie
		} else {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			tokenStr = parts[1]
		}

		claims, err := security.ParseIdentityToken(tokenStr, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("invalid or expired token"))
			return
		}

		c.Set(identityKey, claims)
		c.Next()
	}
}

// RequireAdmin rejects non-admin identities. Must run after Authentication.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := IdentityFrom(c)
		if !ok || claims.Role != security.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, common.NewErrorResponse("admin access required"))
			return
		}
		c.Next()
	}
}

// IdentityFrom fetches the parsed claims set by Authentication.
func IdentityFrom(c *gin.Context) (*security.IdentityClaims, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*security.IdentityClaims)
	return claims, ok
}
