package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"confiancy_back_end/internal/database"
)

// RequireStaff vérifie que le compte porte le badge staff. Le badge vit en
// base, pas dans le token : révoquer un staff prend effet immédiatement.
func RequireStaff(c *gin.Context) {
	userID := UserID(c)
	if userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentification requise"})
		c.Abort()
		return
	}

	staff, err := database.SQLite.IsStaff(c.Request.Context(), userID)
	if err != nil {
		log.Printf("❌ Vérification badge staff: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		c.Abort()
		return
	}
	if !staff {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé à l'équipe"})
		c.Abort()
		return
	}
	c.Next()
}
