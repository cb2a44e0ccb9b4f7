package user

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"

	"confiancy_back_end/internal/auth"
	"confiancy_back_end/internal/cache"
	"confiancy_back_end/internal/database"
	"confiancy_back_end/internal/middleware"
	"confiancy_back_end/internal/services"
	"confiancy_back_end/internal/store"
	"confiancy_back_end/internal/utils"
)

type ctxKey string

const ProviderKey ctxKey = "provider"

// BeginAuth redirige vers le fournisseur OAuth pour une connexion
func BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun provider spécifié"})
		return
	}

	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), ProviderKey, provider),
	)

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// CallbackAuth termine la connexion OAuth : le compte distant doit déjà
// être lié à un profil, sinon l'utilisateur doit passer par le parcours
// classique email puis lier le fournisseur depuis son profil.
func CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun provider spécifié"})
		return
	}

	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), ProviderKey, provider),
	)

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds, err := database.SQLite.CredentialsByProvider(c.Request.Context(), provider, gothUser.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if creds == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Aucun compte lié à ce fournisseur. Créez un compte puis liez-le depuis votre profil",
		})
		return
	}

	user, err := database.SQLite.UserByID(c.Request.Context(), creds.ID)
	if err != nil || user == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Email non vérifié. Confirmez votre adresse pour continuer"})
		return
	}

	if banned, _ := cache.IsUserBanned(c.Request.Context(), creds.ID); banned {
		c.JSON(http.StatusForbidden, gin.H{"error": "Ce compte est suspendu"})
		return
	}

	token, err := utils.GenerateJWT(creds.ID, creds.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	utils.LogAction(c, utils.ACTION_OAUTH_LOGIN, utils.RESOURCE_AUTH, strconv.FormatInt(creds.ID, 10), nil,
		gin.H{"provider": provider})

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"userId":   user.UserID,
		"username": user.Username,
		"provider": provider,
	})
}

// LinkBegin démarre la liaison d'un fournisseur au compte connecté.
// L'état signé porte l'identité du compte pour le callback.
func LinkBegin(c *gin.Context) {
	provider, err := auth.ProviderFor(c.Param("provider"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := utils.GenerateStateToken(middleware.UserID(c), provider.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": provider.GetAuthURL(state)})
}

// LinkCallback échange le code, récupère l'identité distante et lie
// le fournisseur au compte. Chaque fournisseur lié monte le niveau de
// vérification d'un cran.
func LinkCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètres state et code requis"})
		return
	}

	userID, providerName, err := utils.ParseStateToken(state)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "State invalide ou expiré"})
		return
	}
	if providerName != c.Param("provider") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "State émis pour un autre fournisseur"})
		return
	}

	provider, err := auth.ProviderFor(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := provider.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("❌ Échange OAuth %s: %v", providerName, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Échange du code impossible"})
		return
	}

	identity, err := provider.FetchIdentity(c.Request.Context(), token)
	if err != nil {
		log.Printf("❌ Identité OAuth %s: %v", providerName, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Récupération du profil distant impossible"})
		return
	}

	err = database.SQLite.LinkProvider(c.Request.Context(), userID, providerName, identity.ID, identity.Email)
	if errors.Is(err, store.ErrOAuthLinked) {
		c.JSON(http.StatusConflict, gin.H{"error": "Ce compte " + providerName + " est déjà lié à un autre profil"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	if err := database.SQLite.IncrementVerify(c.Request.Context(), userID); err != nil {
		log.Printf("⚠️ Badge de vérification non incrémenté pour %d: %v", userID, err)
	}
	cache.InvalidateProfileCache(c.Request.Context(), userID)
	if user, err := database.SQLite.UserByID(c.Request.Context(), userID); err == nil && user != nil {
		services.IndexProfile(*user)
	}

	utils.LogAction(c, utils.ACTION_OAUTH_LINK, utils.RESOURCE_USER, strconv.FormatInt(userID, 10), nil,
		gin.H{"provider": providerName})

	log.Printf("✅ Fournisseur %s lié au compte %d", providerName, userID)

	frontend := os.Getenv("FRONTEND_URL")
	if frontend != "" {
		c.Redirect(http.StatusFound, frontend+"/profile?linked="+providerName)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fournisseur lié", "provider": providerName})
}
