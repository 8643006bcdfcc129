package handler

import (
	"net/http"
	"strings"

	"ticker-sage/internal/auth"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// RequireUser resolves the Authorization bearer token to a user id and
// aborts with 401 when it cannot. Every route behind it can assume an
// authenticated caller.
func RequireUser(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, err := verifier.UserFromToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
