package user

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"confiancy_back_end/internal/cache"
	"confiancy_back_end/internal/database"
	"confiancy_back_end/internal/handlers/review"
	"confiancy_back_end/internal/middleware"
	"confiancy_back_end/internal/services"
	"confiancy_back_end/internal/utils"
)

const maxAvatarSize = 5 << 20 // 5 Mo

// GetProfile renvoie un profil public par identifiant
func GetProfile(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	user, err := cache.GetProfileFromCache(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profil introuvable"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetProfileByUsername renvoie un profil public par pseudo
func GetProfileByUsername(c *gin.Context) {
	username := c.Param("username")

	user, err := database.SQLite.UserByUsername(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profil introuvable"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UploadAvatar stocke l'image sur MinIO et met à jour le profil
func UploadAvatar(c *gin.Context) {
	userID := middleware.UserID(c)

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier avatar requis"})
		return
	}
	if file.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image trop lourde (5 Mo maximum)"})
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le fichier doit être une image"})
		return
	}

	url, err := services.UploadAvatar(c.Request.Context(), file)
	if err != nil {
		log.Printf("❌ Upload avatar: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stockage de l'image impossible"})
		return
	}

	if err := database.SQLite.SetAvatar(c.Request.Context(), userID, url); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	cache.InvalidateProfileCache(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{"avatar": url})
}

// AvatarSignedURL renvoie un lien d'accès temporaire à l'avatar d'un
// profil, pour les déploiements où le bucket n'est pas public.
func AvatarSignedURL(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	user, err := cache.GetProfileFromCache(c.Request.Context(), userID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profil introuvable"})
		return
	}
	if user.Avatar == nil || *user.Avatar == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ce profil n'a pas d'avatar"})
		return
	}

	signed, err := services.GenerateSignedURL(c.Request.Context(), *user.Avatar, time.Hour)
	if err != nil {
		log.Printf("❌ Signature URL avatar: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signed, "expires_in": 3600})
}

// SearchUsers interroge l'index Elasticsearch des profils
func SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q requis"})
		return
	}

	results, err := services.SearchProfiles(query)
	if err != nil {
		log.Printf("❌ Recherche profils: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recherche indisponible"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ProfileQR renvoie le QR code du profil en data URL
func ProfileQR(c *gin.Context) {
	username := c.Param("username")

	user, err := database.SQLite.UserByUsername(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profil introuvable"})
		return
	}

	qr, err := utils.GenerateProfileQR(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Génération du QR code impossible"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"qr": qr})
}

// TrustCertificate génère le certificat de confiance du compte en PDF
func TrustCertificate(c *gin.Context) {
	userID := middleware.UserID(c)

	user, err := cache.GetProfileFromCache(c.Request.Context(), userID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profil introuvable"})
		return
	}

	qr, err := utils.GenerateProfileQR(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Génération du QR code impossible"})
		return
	}

	pdf, err := utils.RenderTrustCertificatePDF(user.UserID, user.Username, user.Score, qr)
	if err != nil {
		log.Printf("❌ Certificat PDF pour %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Génération du certificat impossible"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="certificat_confiancy.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// DeleteAccount rétracte tous les avis donnés puis supprime le compte
func DeleteAccount(c *gin.Context) {
	userID := middleware.UserID(c)
	ctx := c.Request.Context()

	targets, err := database.SQLite.AuthoredReviewTargets(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	for _, targetID := range targets {
		if _, err := review.Engine.RetractReview(ctx, userID, targetID); err != nil {
			log.Printf("⚠️ Rétractation de l'avis %d→%d pendant la suppression: %v", userID, targetID, err)
		}
	}

	if err := database.SQLite.PurgeAccount(ctx, userID); err != nil {
		log.Printf("❌ Suppression du compte %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	cache.InvalidateProfileCache(ctx, userID)
	services.RemoveProfile(userID)

	if tokenValue, ok := c.Get("token"); ok {
		if token, _ := tokenValue.(string); token != "" {
			cache.BlacklistToken(ctx, token, 24*time.Hour)
		}
	}

	utils.LogAction(c, utils.ACTION_USER_DELETE, utils.RESOURCE_USER, strconv.FormatInt(userID, 10), nil, nil)

	log.Printf("🗑️ Compte %d supprimé", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Compte supprimé"})
}
