package admin

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"confiancy_back_end/internal/cache"
	"confiancy_back_end/internal/database"
	"confiancy_back_end/internal/handlers/review"
	"confiancy_back_end/internal/services"
	"confiancy_back_end/internal/utils"
)

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return 0, false
	}
	return id, true
}

// DeleteReview retire un avis au nom de la modération. Le score de la
// cible est recalculé comme si l'auteur s'était rétracté lui-même.
func DeleteReview(c *gin.Context) {
	authorID, ok := paramID(c, "authorId")
	if !ok {
		return
	}
	targetID, ok := paramID(c, "targetId")
	if !ok {
		return
	}

	result, err := review.Engine.RetractReview(c.Request.Context(), authorID, targetID)
	if err != nil {
		utils.LogFailedAction(c, utils.ACTION_REVIEW_DELETE, utils.RESOURCE_REVIEW,
			c.Param("authorId")+":"+c.Param("targetId"), err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if !result.Removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucun avis de cet auteur pour ce profil"})
		return
	}

	utils.LogAction(c, utils.ACTION_REVIEW_DELETE, utils.RESOURCE_REVIEW,
		c.Param("authorId")+":"+c.Param("targetId"), nil, nil)

	log.Printf("🗑️ Avis de %d pour %d supprimé par la modération", authorID, targetID)
	c.JSON(http.StatusOK, gin.H{
		"message":      "Avis supprimé",
		"score":        result.Score,
		"review_count": result.ReviewCount,
	})
}

// WarnUser envoie un avertissement par email à un membre
func WarnUser(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Motif requis"})
		return
	}

	user, err := database.SQLite.UserByID(c.Request.Context(), userID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profil introuvable"})
		return
	}
	creds, err := database.SQLite.CredentialsByID(c.Request.Context(), userID)
	if err != nil || creds == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Compte introuvable"})
		return
	}

	go func() {
		if err := utils.SendWarningEmail(creds.Email, user.Username, input.Reason); err != nil {
			log.Printf("⚠️ Avertissement non envoyé à %s: %v", creds.Email, err)
		}
	}()

	utils.LogAction(c, utils.ACTION_USER_WARN, utils.RESOURCE_USER, strconv.FormatInt(userID, 10), nil,
		gin.H{"reason": input.Reason})

	c.JSON(http.StatusOK, gin.H{"message": "Avertissement envoyé"})
}

// BanUser suspend un compte : ses tokens restent valides mais toute
// connexion est refusée tant que le ban est actif.
func BanUser(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	user, err := database.SQLite.UserByID(c.Request.Context(), userID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profil introuvable"})
		return
	}

	if err := cache.BanUser(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	utils.LogAction(c, utils.ACTION_USER_BAN, utils.RESOURCE_USER, strconv.FormatInt(userID, 10), nil, nil)

	log.Printf("⚠️ Compte %d suspendu", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Compte suspendu"})
}

// UnbanUser lève la suspension d'un compte
func UnbanUser(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := cache.UnbanUser(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	utils.LogAction(c, utils.ACTION_USER_UNBAN, utils.RESOURCE_USER, strconv.FormatInt(userID, 10), nil, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Suspension levée"})
}

// GetBlacklist liste les domaines email refusés
func GetBlacklist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"domains": services.BlacklistedDomains()})
}

// AddBlacklistDomain refuse un domaine email et purge les comptes
// existants qui l'utilisent, avis compris.
func AddBlacklistDomain(c *gin.Context) {
	var input struct {
		Domain string `json:"domain" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Domaine requis"})
		return
	}

	domain := strings.ToLower(strings.TrimSpace(input.Domain))
	if domain == "" || strings.Contains(domain, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Domaine invalide"})
		return
	}

	if err := services.BlacklistDomain(domain); err != nil {
		log.Printf("❌ Blacklist du domaine %s: %v", domain, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	ctx := c.Request.Context()
	accounts, err := database.SQLite.AccountsByEmailDomain(ctx, domain)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	purged := 0
	for _, accountID := range accounts {
		targets, err := database.SQLite.AuthoredReviewTargets(ctx, accountID)
		if err == nil {
			for _, targetID := range targets {
				if _, err := review.Engine.RetractReview(ctx, accountID, targetID); err != nil {
					log.Printf("⚠️ Rétractation %d→%d pendant la purge: %v", accountID, targetID, err)
				}
			}
		}
		if err := database.SQLite.PurgeAccount(ctx, accountID); err != nil {
			log.Printf("⚠️ Purge du compte %d: %v", accountID, err)
			continue
		}
		cache.InvalidateProfileCache(ctx, accountID)
		services.RemoveProfile(accountID)
		purged++
	}

	utils.LogAction(c, utils.ACTION_BLACKLIST_ADD, utils.RESOURCE_BLACKLIST, domain, nil,
		gin.H{"purged_accounts": purged})

	log.Printf("🗑️ Domaine %s blacklisté, %d compte(s) purgé(s)", domain, purged)
	c.JSON(http.StatusOK, gin.H{
		"message":         "Domaine blacklisté",
		"domain":          domain,
		"purged_accounts": purged,
	})
}

// RemoveBlacklistDomain retire un domaine de la liste
func RemoveBlacklistDomain(c *gin.Context) {
	domain := strings.ToLower(strings.TrimSpace(c.Param("domain")))
	if domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Domaine requis"})
		return
	}

	if err := services.UnblacklistDomain(domain); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	utils.LogAction(c, utils.ACTION_BLACKLIST_REMOVE, utils.RESOURCE_BLACKLIST, domain, nil, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Domaine retiré de la blacklist", "domain": domain})
}
