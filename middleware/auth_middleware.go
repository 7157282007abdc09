package middleware

import (
	"log"
	"net/http"
	"os"

	"quizlytics/api/utils"

	"github.com/gin-gonic/gin"
)

// AdminRequired guards the dashboard routes. Deployments that configure no
// admin credential run the guard in open mode, since the aggregate views
// carry no per-visitor data.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := os.Getenv("ADMIN_API_KEY")
		passwordHash := os.Getenv("ADMIN_PASSWORD_HASH")
		if apiKey == "" && passwordHash == "" {
			c.Next()
			return
		}

		if apiKey != "" && c.GetHeader("X-API-KEY") == apiKey {
			c.Next()
			return
		}

		tokenString, err := c.Cookie("admin_token")
		if err != nil {
			tokenString = c.GetHeader("Authorization")
			if tokenString == "" {
				log.Println("AdminRequired: No admin token found in cookie or header")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
				return
			}
			if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
				tokenString = tokenString[7:]
			}
		}

		claims, err := utils.ValidateAdminJWT(tokenString)
		if err != nil {
			log.Printf("AdminRequired: Invalid admin token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}

		c.Set("admin_email", claims.Email)
		c.Next()
	}
}
