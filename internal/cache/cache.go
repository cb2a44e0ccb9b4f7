package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"confiancy_back_end/internal/database"
	"confiancy_back_end/internal/models"
)

const (
	ProfileCacheTTL = 5 * time.Minute
)

func profileKey(userID int64) string {
	return fmt.Sprintf("profile:%d", userID)
}

// GetProfileFromCache récupère un profil depuis Redis ou SQLite. Le cache
// absorbe les lectures répétées des pages de profil publiques.
func GetProfileFromCache(ctx context.Context, userID int64) (*models.User, error) {
	key := profileKey(userID)

	// 1. Essayer le cache Redis
	data, err := GetCache(ctx, key)
	if err == nil {
		var user models.User
		if json.Unmarshal([]byte(data), &user) == nil {
			return &user, nil
		}
	}

	// 2. Récupérer de SQLite
	user, err := database.SQLite.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	// 3. Mettre en cache
	jsonData, _ := json.Marshal(user)
	SetCache(ctx, key, jsonData, ProfileCacheTTL)

	return user, nil
}

// InvalidateProfileCache invalide le cache d'un profil. À appeler après tout
// changement de score, de badge ou d'avatar.
func InvalidateProfileCache(ctx context.Context, userID int64) {
	DeleteCache(ctx, profileKey(userID))
}
