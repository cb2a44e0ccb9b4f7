package user

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"

	"confiancy_back_end/internal/cache"
	"confiancy_back_end/internal/database"
	"confiancy_back_end/internal/middleware"
	"confiancy_back_end/internal/services"
	"confiancy_back_end/internal/utils"
)

// premiumPriceCents est le prix du badge premium, en centimes d'euro
const premiumPriceCents int64 = 499

// CreatePremiumIntent ouvre le paiement Stripe du badge premium
func CreatePremiumIntent(c *gin.Context) {
	userID := middleware.UserID(c)

	user, err := cache.GetProfileFromCache(c.Request.Context(), userID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profil introuvable"})
		return
	}
	if user.Badges.Premium {
		c.JSON(http.StatusConflict, gin.H{"error": "Ce compte est déjà premium"})
		return
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(premiumPriceCents),
		Currency: stripe.String("eur"),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("user_id", strconv.FormatInt(userID, 10))
	params.AddMetadata("purpose", "premium_badge")

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Printf("❌ Création PaymentIntent premium pour %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Paiement indisponible"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clientSecret": intent.ClientSecret,
		"amount":       premiumPriceCents,
		"currency":     "eur",
	})
}

// ConfirmPremium vérifie le paiement côté Stripe puis active le badge
func ConfirmPremium(c *gin.Context) {
	userID := middleware.UserID(c)

	var input struct {
		PaymentIntentID string `json:"paymentIntentId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant de paiement requis"})
		return
	}

	intent, err := paymentintent.Get(input.PaymentIntentID, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paiement introuvable"})
		return
	}

	if intent.Metadata["purpose"] != "premium_badge" ||
		intent.Metadata["user_id"] != strconv.FormatInt(userID, 10) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Ce paiement ne correspond pas à ce compte"})
		return
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paiement non finalisé"})
		return
	}

	if err := database.SQLite.SetPremium(c.Request.Context(), userID, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	cache.InvalidateProfileCache(c.Request.Context(), userID)
	if user, err := database.SQLite.UserByID(c.Request.Context(), userID); err == nil && user != nil {
		services.IndexProfile(*user)
	}

	utils.LogAction(c, utils.ACTION_BADGE_PREMIUM, utils.RESOURCE_BADGE, strconv.FormatInt(userID, 10), nil,
		gin.H{"payment_intent": intent.ID})

	log.Printf("✅ Badge premium activé pour le compte %d", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Badge premium activé"})
}
