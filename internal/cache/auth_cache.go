package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"confiancy_back_end/internal/database"
)

const (
	AuthCacheTTL = 15 * time.Minute // Cache les vérifications de mot de passe pendant 15 min
)

// GetPasswordHashFromCache vérifie si le hash du mot de passe est en cache
// Cela évite de refaire la dérivation Argon2 à chaque login
func GetPasswordHashFromCache(ctx context.Context, email, password string) (bool, error) {
	// Créer une clé unique basée sur email + hash du password
	passwordHash := sha256.Sum256([]byte(password))
	cacheKey := "auth:" + email + ":" + hex.EncodeToString(passwordHash[:])

	// Vérifier si cette combinaison est en cache
	result, err := database.Redis.Get(ctx, cacheKey).Result()
	if err == nil && result == "valid" {
		return true, nil
	}

	return false, err
}

// SetPasswordHashInCache met en cache une vérification de mot de passe réussie
func SetPasswordHashInCache(ctx context.Context, email, password string) {
	passwordHash := sha256.Sum256([]byte(password))
	cacheKey := "auth:" + email + ":" + hex.EncodeToString(passwordHash[:])

	// Mettre en cache pendant 15 minutes
	database.Redis.Set(ctx, cacheKey, "valid", AuthCacheTTL)
}

// InvalidateAuthCache invalide le cache d'authentification pour un email
func InvalidateAuthCache(ctx context.Context, email string) {
	// Supprimer toutes les clés auth:email:*
	pattern := "auth:" + email + ":*"
	iter := database.Redis.Scan(ctx, 0, pattern, 100).Iterator()

	for iter.Next(ctx) {
		database.Redis.Del(ctx, iter.Val())
	}
}
