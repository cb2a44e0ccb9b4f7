package user

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"confiancy_back_end/internal/cache"
	"confiancy_back_end/internal/database"
	"confiancy_back_end/internal/services"
	"confiancy_back_end/internal/utils"
)

// ForgotPassword envoie un code de réinitialisation si le compte existe
func ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email requis"})
		return
	}

	email := services.NormalizeEmail(input.Email)
	creds, err := database.SQLite.CredentialsByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	// Même réponse dans tous les cas pour ne pas révéler l'existence du compte
	if creds == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Si ce compte existe, un code a été envoyé"})
		return
	}

	code, err := generateCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if err := database.SQLite.SetEmailCode(c.Request.Context(), creds.ID, code); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	go func() {
		if err := utils.SendPasswordResetEmail(email, code); err != nil {
			log.Printf("⚠️ Email de réinitialisation non envoyé à %s: %v", email, err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{"message": "Si ce compte existe, un code a été envoyé"})
}

// ResetPassword vérifie le code et remplace le mot de passe
func ResetPassword(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Code     string `json:"code" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email, code et nouveau mot de passe requis"})
		return
	}

	if len(input.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le mot de passe doit faire au moins 8 caractères"})
		return
	}

	email := services.NormalizeEmail(input.Email)
	creds, err := database.SQLite.CredentialsByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if creds == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Compte introuvable"})
		return
	}

	if !checkCode(c, creds.ID, creds.CodeEmail, creds.TimeCodeMail, creds.TryCodeEmail, input.Code) {
		return
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if err := database.SQLite.SetPassword(c.Request.Context(), creds.ID, hash); err != nil {
		log.Printf("❌ Réinitialisation mot de passe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	database.SQLite.ClearEmailCode(c.Request.Context(), creds.ID)
	cache.InvalidateAuthCache(c.Request.Context(), email)

	utils.LogAction(c, utils.ACTION_PASSWORD_RESET, utils.RESOURCE_AUTH, strconv.FormatInt(creds.ID, 10), nil, nil)

	log.Printf("✅ Mot de passe réinitialisé pour le compte %d", creds.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Mot de passe mis à jour"})
}
