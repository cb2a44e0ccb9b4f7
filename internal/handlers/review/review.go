package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"confiancy_back_end/internal/cache"
	"confiancy_back_end/internal/database"
	"confiancy_back_end/internal/middleware"
	"confiancy_back_end/internal/reputation"
	"confiancy_back_end/internal/services"
	"confiancy_back_end/internal/utils"
)

const maxCommentLength = 500

// Engine est injecté au démarrage par Init.
var Engine *reputation.Engine

// Init branche le moteur de réputation sur les handlers HTTP.
func Init(engine *reputation.Engine) {
	Engine = engine
}

// EmailNotifier prévient la cible par email quand elle reçoit un avis.
type EmailNotifier struct{}

func (EmailNotifier) NotifyNewReview(targetID, authorID int64, rating int, comment string) {
	ctx := context.Background()

	target, err := database.SQLite.UserByID(ctx, targetID)
	if err != nil || target == nil {
		return
	}
	author, err := database.SQLite.UserByID(ctx, authorID)
	if err != nil || author == nil {
		return
	}
	creds, err := database.SQLite.CredentialsByID(ctx, targetID)
	if err != nil || creds == nil {
		return
	}

	if err := utils.SendNewReviewEmail(creds.Email, target.Username, author.Username, rating); err != nil {
		log.Printf("⚠️ Email nouvel avis non envoyé à %s: %v", creds.Email, err)
	}
}

// PublishScoreChange pousse le nouvel état sur le canal Redis du profil et
// rafraîchit les caches. Branché sur Engine.OnScoreChange.
func PublishScoreChange(targetID int64, score, reviewCount int) {
	ctx := context.Background()

	cache.InvalidateProfileCache(ctx, targetID)

	payload, _ := json.Marshal(gin.H{
		"type":         "score_updated",
		"user_id":      targetID,
		"score":        score,
		"review_count": reviewCount,
	})
	database.Redis.Publish(ctx, fmt.Sprintf("score:%d", targetID), payload)

	// Réindexer le profil pour que la recherche reflète le nouveau score
	if user, err := database.SQLite.UserByID(ctx, targetID); err == nil && user != nil {
		services.IndexProfile(*user)
	}
}

// SubmitReview dépose un avis sur un autre utilisateur
func SubmitReview(c *gin.Context) {
	var input struct {
		TargetID int64  `json:"targetId" binding:"required"`
		Rating   int    `json:"rating" binding:"required"`
		Comment  string `json:"comment"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	if len(input.Comment) > maxCommentLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Commentaire trop long (500 caractères max)"})
		return
	}

	authorID := middleware.UserID(c)

	res, err := Engine.SubmitReview(c.Request.Context(), authorID, input.TargetID, input.Rating, input.Comment)
	if err != nil {
		utils.LogFailedAction(c, utils.ACTION_REVIEW_CREATE, utils.RESOURCE_REVIEW,
			strconv.FormatInt(input.TargetID, 10), err.Error())
		respondReviewError(c, err)
		return
	}

	utils.LogAction(c, utils.ACTION_REVIEW_CREATE, utils.RESOURCE_REVIEW,
		strconv.FormatInt(input.TargetID, 10), nil, gin.H{"rating": input.Rating})

	c.JSON(http.StatusCreated, gin.H{
		"targetId":     input.TargetID,
		"score":        res.Score,
		"review_count": res.ReviewCount,
	})
}

// RetractReview retire l'avis que l'utilisateur courant a laissé sur la cible
func RetractReview(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("targetId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant cible invalide"})
		return
	}

	authorID := middleware.UserID(c)

	res, err := Engine.RetractReview(c.Request.Context(), authorID, targetID)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	utils.LogAction(c, utils.ACTION_REVIEW_RETRACT, utils.RESOURCE_REVIEW,
		strconv.FormatInt(targetID, 10), nil, nil)

	c.JSON(http.StatusOK, gin.H{
		"targetId":     targetID,
		"score":        res.Score,
		"review_count": res.ReviewCount,
	})
}

// GetUserScore renvoie le score publié d'un utilisateur
func GetUserScore(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	res, err := Engine.GetUserScore(c.Request.Context(), userID)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"score":        res.Score,
		"review_count": res.ReviewCount,
	})
}

// GetReceivedReviews liste les avis reçus par un utilisateur
func GetReceivedReviews(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	reviews, err := database.SQLite.ReceivedReviews(c.Request.Context(), userID)
	if err != nil {
		log.Printf("❌ Lecture avis reçus: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "total": len(reviews)})
}

// GetGivenReviews liste les avis déposés par l'utilisateur courant
func GetGivenReviews(c *gin.Context) {
	authorID := middleware.UserID(c)

	reviews, err := database.SQLite.GivenReviews(c.Request.Context(), authorID)
	if err != nil {
		log.Printf("❌ Lecture avis donnés: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "total": len(reviews)})
}

// respondReviewError traduit les erreurs du moteur en réponses HTTP
func respondReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reputation.ErrSelfReview):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, reputation.ErrInvalidRating), errors.Is(err, reputation.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, reputation.ErrDuplicateReview):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, reputation.ErrUnknownUser):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, reputation.ErrConflict):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ Erreur moteur de réputation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
	}
}
