package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "super_secret"
	}
	return []byte(secret)
}

func GenerateJWT(userID int64, email string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// GenerateStateToken signe un état OAuth de courte durée. Il transporte le
// compte à lier (0 pour une connexion simple) et le fournisseur attendu.
func GenerateStateToken(userID int64, provider string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"provider": provider,
		"exp":      time.Now().Add(10 * time.Minute).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// ParseStateToken valide un état OAuth et rend le compte et le fournisseur
// qu'il transporte.
func ParseStateToken(state string) (int64, string, error) {
	token, err := jwt.Parse(state, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("méthode de signature inattendue")
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return 0, "", errors.New("état OAuth invalide ou expiré")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("état OAuth invalide")
	}

	userID, _ := claims["user_id"].(float64)
	provider, _ := claims["provider"].(string)
	return int64(userID), provider, nil
}
