// api/handlers/auth_handlers.go
package handlers

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"quizlytics/api/models"
	"quizlytics/api/utils"
)

// AuthHandlers implements the optional admin login for the dashboard. The
// credential lives in the environment (ADMIN_EMAIL, ADMIN_PASSWORD_HASH);
// there is no user table.
type AuthHandlers struct{}

func NewAuthHandlers() *AuthHandlers {
	return &AuthHandlers{}
}

// AdminLogin checks the env-configured credential and issues a JWT cookie.
func (h *AuthHandlers) AdminLogin(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	passwordHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminEmail == "" || passwordHash == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Admin login is not configured"})
		return
	}

	if req.Email != adminEmail {
		log.Printf("Admin login failed for email %s", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		log.Printf("Admin login failed for email %s: password mismatch", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokenString, err := utils.GenerateAdminJWT(req.Email)
	if err != nil {
		log.Printf("ERROR: Failed to generate admin JWT: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.SetCookie(
		"admin_token",
		tokenString,
		int(24*time.Hour/time.Second),
		"/",
		"",
		false,
		true,
	)

	log.Printf("Admin logged in: %s", req.Email)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
}

// AdminLogout clears the admin cookie.
func (h *AuthHandlers) AdminLogout(c *gin.Context) {
	c.SetCookie(
		"admin_token",
		"",
		-1,
		"/",
		"",
		false,
		true,
	)

	log.Println("Admin logged out (JWT cookie cleared).")
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
