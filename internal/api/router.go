package api

import (
	"expense_tracker/internal/middleware" // JWT middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// SetupRouter registers every route on a gin engine. rdb may be nil, which
// disables list caching.
func SetupRouter(r *gin.Engine, db *gorm.DB, rdb *redis.Client, jwtSecret string) {
	// Auth routes, no token required
	authGroup := r.Group("/auth")
	authGroup.POST("/register", RegisterHandler(db))          // Registration endpoint
	authGroup.POST("/login", LoginHandler(db, jwtSecret))     // Token pair issuance endpoint
	authGroup.POST("/refresh", RefreshHandler(jwtSecret))     // Token refresh endpoint

	// Record routes (protected by JWT)
	recordGroup := r.Group("/records")
	recordGroup.Use(middleware.JWTAuthMiddleware(jwtSecret)) // Protect record routes with JWT middleware
	recordGroup.POST("", CreateRecordHandler(db, rdb))       // Create record endpoint
	recordGroup.GET("", ListRecordsHandler(db, rdb))         // List records endpoint, policy-scoped
	recordGroup.GET("/:id", GetRecordHandler(db))            // Single record endpoint
	recordGroup.PUT("/:id", UpdateRecordHandler(db, rdb))    // Full update endpoint
	recordGroup.PATCH("/:id", PatchRecordHandler(db, rdb))   // Partial update endpoint
	recordGroup.DELETE("/:id", DeleteRecordHandler(db, rdb)) // Delete endpoint
}
