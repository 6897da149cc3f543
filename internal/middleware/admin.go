package middleware

import (
	"net/http" // HTTP status codes

	"finance_portfolio/internal/domain" // Roles

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// RoleKey holds the role of the signed-in user once a role gate has run
const RoleKey = "role"

// RequireRole lets a request through only when the session user currently
// holds role. The role is read from the database so a demotion applies at once.
func RequireRole(db *gorm.DB, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var roles []string
		err := db.WithContext(c.Request.Context()).Model(&domain.User{}).
			Where("id = ?", userID).
			Limit(1).
			Pluck("role", &roles).Error
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Session user
				"error":   err.Error(), // Lookup failure
			}).Error("Role lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if len(roles) == 0 || roles[0] != role {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,             // Session user
				"path":    c.Request.URL.Path, // Requested route
			}).Warn("Role check denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Set(RoleKey, role)
		c.Next()
	}
}

// AdminOnlyMiddleware gates the admin endpoints
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return RequireRole(db, domain.RoleAdmin)
}
