package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"expense_tracker/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// JWTAuthMiddleware validates JWT access tokens and extracts the requester
// identity and staff flag into the request context. Every record handler reads
// both values explicitly from there; nothing downstream touches the token.
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")            // Extract the token string and parse it
		claims, err := utils.ParseToken(tokenStr, secret, utils.TokenAccess) // Parse the access token
		if err != nil {
			// If parsing fails (including refresh tokens presented here), abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set("userID", claims.UserID) // Store userID in context
		c.Set("isStaff", claims.Staff) // Store staff flag in context
		c.Next()                       // Proceed to the next handler
	}
}
