package user

import (
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"confiancy_back_end/internal/cache"
	"confiancy_back_end/internal/database"
	"confiancy_back_end/internal/middleware"
	"confiancy_back_end/internal/services"
	"confiancy_back_end/internal/store"
	"confiancy_back_end/internal/utils"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9\-]{3,20}$`)
)

const (
	codeLength   = 12
	codeValidity = 30 * time.Minute
	codeMaxTries = 5

	refreshValidity = 7 * 24 * time.Hour
)

// generateCode produit un code numérique à 12 chiffres
func generateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// Register crée un compte non vérifié et envoie le code de confirmation
func Register(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email et mot de passe requis"})
		return
	}

	email := services.NormalizeEmail(input.Email)
	if !emailRegex.MatchString(email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Adresse email invalide"})
		return
	}
	if services.IsEmailBlacklisted(email) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Ce fournisseur d'email n'est pas accepté"})
		return
	}
	if len(input.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le mot de passe doit faire au moins 8 caractères"})
		return
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	code, err := generateCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	id, err := database.SQLite.CreateCredentials(c.Request.Context(), email, hash, code)
	if errors.Is(err, store.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
		return
	}
	if err != nil {
		log.Printf("❌ Création compte: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	go func() {
		if err := utils.SendVerificationCodeEmail(email, code); err != nil {
			log.Printf("⚠️ Email de vérification non envoyé à %s: %v", email, err)
		}
	}()

	utils.LogAction(c, utils.ACTION_USER_REGISTER, utils.RESOURCE_USER, strconv.FormatInt(id, 10), nil, nil)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Compte créé. Un code de vérification vous a été envoyé par email",
		"email":   email,
	})
}

// ResendCode renvoie un nouveau code de vérification
func ResendCode(c *gin.Context) {
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
	// Réponse identique que le compte existe ou non
	if creds == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Si ce compte existe, un code a été envoyé"})
		return
	}

	user, err := database.SQLite.UserByID(c.Request.Context(), creds.ID)
	if err == nil && user != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ce compte est déjà vérifié"})
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
		if err := utils.SendVerificationCodeEmail(email, code); err != nil {
			log.Printf("⚠️ Email de vérification non envoyé à %s: %v", email, err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{"message": "Si ce compte existe, un code a été envoyé"})
}

// checkCode valide un code à usage unique : expiration puis compteur d'essais.
// Répond lui-même en cas d'échec.
func checkCode(c *gin.Context, credsID int64, stored string, storedAt int64, tries int, submitted string) bool {
	if stored == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun code en attente pour ce compte"})
		return false
	}
	if time.Since(time.Unix(storedAt, 0)) > codeValidity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code expiré, demandez-en un nouveau"})
		return false
	}
	if tries >= codeMaxTries {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Trop d'essais, demandez un nouveau code"})
		return false
	}
	if submitted != stored {
		database.SQLite.IncrementCodeTry(c.Request.Context(), credsID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code incorrect"})
		return false
	}
	return true
}

// VerifyEmail confirme le code, choisit le pseudo et crée le profil public
func VerifyEmail(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Code     string `json:"code" binding:"required"`
		Username string `json:"username" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email, code et pseudo requis"})
		return
	}

	if !usernameRegex.MatchString(input.Username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pseudo invalide : 3 à 20 caractères, lettres, chiffres et tirets"})
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

	if existing, err := database.SQLite.UserByID(c.Request.Context(), creds.ID); err == nil && existing != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ce compte est déjà vérifié"})
		return
	}

	if !checkCode(c, creds.ID, creds.CodeEmail, creds.TimeCodeMail, creds.TryCodeEmail, input.Code) {
		return
	}

	if err := database.SQLite.CreateProfile(c.Request.Context(), creds.ID, input.Username); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Ce pseudo est déjà pris"})
			return
		}
		log.Printf("❌ Création profil: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	database.SQLite.ClearEmailCode(c.Request.Context(), creds.ID)

	log.Printf("✅ Profil créé : %s (compte %d)", input.Username, creds.ID)

	go func() {
		if err := utils.SendWelcomeEmail(email, input.Username); err != nil {
			log.Printf("⚠️ Email de bienvenue non envoyé à %s: %v", email, err)
		}
	}()
	if user, err := database.SQLite.UserByID(c.Request.Context(), creds.ID); err == nil && user != nil {
		services.IndexProfile(*user)
	}

	utils.LogAction(c, utils.ACTION_USER_VERIFY, utils.RESOURCE_USER, strconv.FormatInt(creds.ID, 10), nil,
		gin.H{"username": input.Username})

	token, err := utils.GenerateJWT(creds.ID, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"userId":   creds.ID,
		"username": input.Username,
	})
}

// CheckUsername indique si un pseudo est disponible
func CheckUsername(c *gin.Context) {
	username := c.Query("username")
	if !usernameRegex.MatchString(username) {
		c.JSON(http.StatusOK, gin.H{"available": false, "reason": "Pseudo invalide"})
		return
	}

	taken, err := database.SQLite.UsernameExists(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": !taken})
}

// Login authentifie par email et mot de passe
func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email et mot de passe requis"})
		return
	}

	email := services.NormalizeEmail(input.Email)
	creds, err := database.SQLite.CredentialsByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if creds == nil || creds.Password == "" {
		utils.LogFailedAction(c, utils.ACTION_LOGIN_FAILED, utils.RESOURCE_AUTH, email, "compte inconnu")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	// Le cache évite de rejouer Argon2 sur les connexions répétées
	valid, _ := cache.GetPasswordHashFromCache(c.Request.Context(), email, input.Password)
	if !valid {
		valid, err = utils.VerifyPassword(input.Password, creds.Password)
		if err != nil || !valid {
			utils.LogFailedAction(c, utils.ACTION_LOGIN_FAILED, utils.RESOURCE_AUTH, email, "mot de passe incorrect")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
			return
		}
		cache.SetPasswordHashInCache(c.Request.Context(), email, input.Password)
	}

	user, err := database.SQLite.UserByID(c.Request.Context(), creds.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if user == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Email non vérifié. Confirmez votre adresse pour continuer"})
		return
	}

	if banned, _ := cache.IsUserBanned(c.Request.Context(), creds.ID); banned {
		c.JSON(http.StatusForbidden, gin.H{"error": "Ce compte est suspendu"})
		return
	}

	token, err := utils.GenerateJWT(creds.ID, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	// Un seul refresh token actif par compte : une nouvelle connexion
	// invalide le précédent
	refreshToken := uuid.NewString()
	if err := cache.StoreRefreshToken(c.Request.Context(), creds.ID, refreshToken, refreshValidity); err != nil {
		log.Printf("⚠️ Stockage refresh token impossible: %v", err)
		refreshToken = ""
	}

	utils.LogAction(c, utils.ACTION_LOGIN_SUCCESS, utils.RESOURCE_AUTH, strconv.FormatInt(creds.ID, 10), nil, nil)

	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"refreshToken": refreshToken,
		"userId":       user.UserID,
		"username":     user.Username,
		"score":        user.Score,
		"badges":       user.Badges,
	})
}

// RefreshToken échange un refresh token valide contre un nouveau JWT.
// Le refresh token est tourné à chaque usage.
func RefreshToken(c *gin.Context) {
	var input struct {
		UserID       int64  `json:"userId" binding:"required"`
		RefreshToken string `json:"refreshToken" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId et refreshToken requis"})
		return
	}

	stored, err := cache.GetRefreshToken(c.Request.Context(), input.UserID)
	if err != nil || stored == "" || stored != input.RefreshToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token invalide ou expiré"})
		return
	}

	if banned, _ := cache.IsUserBanned(c.Request.Context(), input.UserID); banned {
		cache.DeleteRefreshToken(c.Request.Context(), input.UserID)
		c.JSON(http.StatusForbidden, gin.H{"error": "Ce compte est suspendu"})
		return
	}

	creds, err := database.SQLite.CredentialsByID(c.Request.Context(), input.UserID)
	if err != nil || creds == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Compte introuvable"})
		return
	}

	token, err := utils.GenerateJWT(creds.ID, creds.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	refreshToken := uuid.NewString()
	if err := cache.StoreRefreshToken(c.Request.Context(), creds.ID, refreshToken, refreshValidity); err != nil {
		log.Printf("⚠️ Rotation refresh token impossible: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"refreshToken": refreshToken,
	})
}

// Logout révoque le token courant jusqu'à son expiration naturelle
func Logout(c *gin.Context) {
	tokenValue, _ := c.Get("token")
	token, _ := tokenValue.(string)

	if token != "" {
		if err := cache.BlacklistToken(c.Request.Context(), token, 24*time.Hour); err != nil {
			log.Printf("⚠️ Révocation token impossible: %v", err)
		}
	}
	cache.DeleteRefreshToken(c.Request.Context(), middleware.UserID(c))

	utils.LogAction(c, utils.ACTION_LOGOUT, utils.RESOURCE_AUTH, "", nil, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

// Me renvoie le profil du compte connecté
func Me(c *gin.Context) {
	userID := middleware.UserID(c)

	user, err := cache.GetProfileFromCache(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profil introuvable"})
		return
	}

	email, _ := c.Get("email")
	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"email": email,
	})
}
