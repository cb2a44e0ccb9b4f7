package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"confiancy_back_end/internal/database"
)

// --- Refresh Tokens ---

// StoreRefreshToken stocke un refresh token pour un utilisateur
func StoreRefreshToken(ctx context.Context, userID int64, refreshToken string, duration time.Duration) error {
	key := fmt.Sprintf("refresh:%d", userID)
	return database.Redis.Set(ctx, key, refreshToken, duration).Err()
}

// GetRefreshToken récupère le refresh token d'un utilisateur
func GetRefreshToken(ctx context.Context, userID int64) (string, error) {
	key := fmt.Sprintf("refresh:%d", userID)
	return database.Redis.Get(ctx, key).Result()
}

// DeleteRefreshToken supprime le refresh token (logout)
func DeleteRefreshToken(ctx context.Context, userID int64) error {
	key := fmt.Sprintf("refresh:%d", userID)
	return database.Redis.Del(ctx, key).Err()
}

// --- Blacklist JWT (révocation avant expiration) ---

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "blacklist:" + hex.EncodeToString(sum[:])
}

// BlacklistToken ajoute un token JWT à la blacklist jusqu'à son expiration
// naturelle
func BlacklistToken(ctx context.Context, token string, duration time.Duration) error {
	return database.Redis.Set(ctx, tokenKey(token), "revoked", duration).Err()
}

// IsTokenBlacklisted vérifie si un token est blacklisté
func IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	exists, err := database.Redis.Exists(ctx, tokenKey(token)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// --- Ban utilisateurs ---

// BanUser bannit un utilisateur (révocation permanente)
func BanUser(ctx context.Context, userID int64) error {
	key := fmt.Sprintf("banned:%d", userID)
	// Pas d'expiration = permanent
	return database.Redis.Set(ctx, key, "true", 0).Err()
}

// UnbanUser débannit un utilisateur
func UnbanUser(ctx context.Context, userID int64) error {
	key := fmt.Sprintf("banned:%d", userID)
	return database.Redis.Del(ctx, key).Err()
}

// IsUserBanned vérifie si un utilisateur est banni
func IsUserBanned(ctx context.Context, userID int64) (bool, error) {
	key := fmt.Sprintf("banned:%d", userID)
	exists, err := database.Redis.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// --- Cache générique ---

// SetCache stocke une valeur dans le cache
func SetCache(ctx context.Context, key string, value interface{}, duration time.Duration) error {
	return database.Redis.Set(ctx, key, value, duration).Err()
}

// GetCache récupère une valeur du cache
func GetCache(ctx context.Context, key string) (string, error) {
	return database.Redis.Get(ctx, key).Result()
}

// DeleteCache supprime une clé du cache
func DeleteCache(ctx context.Context, key string) error {
	return database.Redis.Del(ctx, key).Err()
}

// --- Rate Limiting Global ---

// IncrementRateLimit incrémente le compteur de rate limit
func IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := database.Redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// GetRateLimit récupère le compteur de rate limit
func GetRateLimit(ctx context.Context, key string) (int64, error) {
	val, err := database.Redis.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}
