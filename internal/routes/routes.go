package routes

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"confiancy_back_end/internal/handlers/admin"
	"confiancy_back_end/internal/handlers/review"
	"confiancy_back_end/internal/handlers/user"
	"confiancy_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	r.Use(corsConfig())
	r.Use(middleware.APIRateLimit())

	api := r.Group("/api")

	// Authentification
	auth := api.Group("/auth")
	{
		auth.POST("/register", middleware.RegisterRateLimit(), user.Register)
		auth.POST("/verify", user.VerifyEmail)
		auth.POST("/resend-code", user.ResendCode)
		auth.GET("/check-username", user.CheckUsername)
		auth.POST("/login", middleware.LoginRateLimit(), user.Login)
		auth.POST("/logout", middleware.AuthRequired(), user.Logout)
		auth.POST("/refresh", user.RefreshToken)
		auth.POST("/forgot-password", middleware.ForgotPasswordRateLimit(), user.ForgotPassword)
		auth.POST("/reset-password", user.ResetPassword)

		// Connexion OAuth (compte déjà lié)
		auth.GET("/:provider", user.BeginAuth)
		auth.GET("/:provider/callback", user.CallbackAuth)

		// Liaison d'un fournisseur au compte connecté
		auth.GET("/link/:provider", middleware.AuthRequired(), user.LinkBegin)
		auth.GET("/link/:provider/callback", user.LinkCallback)
	}

	// Profils publics
	users := api.Group("/users")
	{
		users.GET("/search", middleware.SearchRateLimit(), user.SearchUsers)
		users.GET("/:id", user.GetProfile)
		users.GET("/:id/score", review.GetUserScore)
		users.GET("/:id/reviews", review.GetReceivedReviews)
		users.GET("/:id/avatar-url", user.AvatarSignedURL)
		users.GET("/by-username/:username", user.GetProfileByUsername)
		users.GET("/by-username/:username/qr", user.ProfileQR)
	}

	// Compte connecté
	me := api.Group("/me", middleware.AuthRequired())
	{
		me.GET("", user.Me)
		me.POST("/avatar", user.UploadAvatar)
		me.GET("/certificate", user.TrustCertificate)
		me.GET("/reviews/given", review.GetGivenReviews)
		me.DELETE("", user.DeleteAccount)
		me.POST("/premium", user.CreatePremiumIntent)
		me.POST("/premium/confirm", user.ConfirmPremium)
	}

	// Avis
	reviews := api.Group("/reviews", middleware.AuthRequired())
	{
		reviews.POST("", middleware.ReviewRateLimit(), review.SubmitReview)
		reviews.DELETE("/:targetId", review.RetractReview)
	}

	// Modération
	adminGroup := api.Group("/admin", middleware.AuthRequired(), middleware.RequireStaff)
	{
		adminGroup.DELETE("/reviews/:authorId/:targetId", admin.DeleteReview)
		adminGroup.POST("/users/:id/warn", admin.WarnUser)
		adminGroup.POST("/users/:id/ban", admin.BanUser)
		adminGroup.DELETE("/users/:id/ban", admin.UnbanUser)
		adminGroup.GET("/blacklist", admin.GetBlacklist)
		adminGroup.POST("/blacklist", admin.AddBlacklistDomain)
		adminGroup.DELETE("/blacklist/:domain", admin.RemoveBlacklistDomain)
		adminGroup.GET("/audit", admin.GetAuditLogs)
		adminGroup.GET("/audit/stats", admin.GetAuditStats)
		adminGroup.GET("/audit/:resource/:resource_id", admin.GetAuditLogsByResource)
	}

	// Flux temps réel des scores
	r.GET("/ws/score/:id", user.ScoreWebSocket)
}

func corsConfig() gin.HandlerFunc {
	origins := []string{"http://localhost:5173"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
