package utils

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"confiancy_back_end/internal/database"
	"confiancy_back_end/internal/models"
)

// LogAction enregistre une action dans le journal d'audit
func LogAction(c *gin.Context, action, resource string, resourceID string, oldValue, newValue interface{}) {
	entry := buildEntry(c, action, resource, resourceID, oldValue, newValue, true, "")
	go func() {
		if err := writeEntry(entry); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

// LogFailedAction enregistre une action échouée dans le journal d'audit
func LogFailedAction(c *gin.Context, action, resource, resourceID, errorMsg string) {
	entry := buildEntry(c, action, resource, resourceID, nil, nil, false, errorMsg)
	go func() {
		if err := writeEntry(entry); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

// buildEntry capture le contexte de la requête avant que Gin ne le recycle :
// l'écriture elle-même part dans une goroutine.
func buildEntry(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}, success bool, errorMsg string) models.AuditLog {
	userID, _ := c.Get("user_id")
	userEmail, _ := c.Get("email")

	// Sérialiser les valeurs
	var oldValueStr, newValueStr string
	if oldValue != nil {
		if oldBytes, err := json.Marshal(oldValue); err == nil {
			oldValueStr = string(oldBytes)
		}
	}
	if newValue != nil {
		if newBytes, err := json.Marshal(newValue); err == nil {
			newValueStr = string(newBytes)
		}
	}

	id, _ := userID.(int64)
	email, _ := userEmail.(string)

	return models.AuditLog{
		ID:         gocql.TimeUUID(),
		UserID:     id,
		UserEmail:  email,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		OldValue:   oldValueStr,
		NewValue:   newValueStr,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    success,
		ErrorMsg:   errorMsg,
		Timestamp:  time.Now(),
	}
}

func writeEntry(entry models.AuditLog) error {
	session := database.Scylla
	if session == nil {
		// Journal désactivé, on ne perd pas la requête pour autant
		return nil
	}

	query := `
		INSERT INTO audit_logs (
			id, user_id, user_email, action, resource, resource_id,
			old_value, new_value, ip_address, user_agent, success,
			error_msg, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return session.Query(query,
		entry.ID, entry.UserID, entry.UserEmail, entry.Action,
		entry.Resource, entry.ResourceID, entry.OldValue, entry.NewValue,
		entry.IPAddress, entry.UserAgent, entry.Success, entry.ErrorMsg,
		entry.Timestamp,
	).Exec()
}

// Actions d'audit prédéfinies
const (
	// Actions avis
	ACTION_REVIEW_CREATE  = "review.create"
	ACTION_REVIEW_RETRACT = "review.retract"
	ACTION_REVIEW_DELETE  = "review.delete"

	// Actions comptes
	ACTION_USER_REGISTER = "user.register"
	ACTION_USER_VERIFY   = "user.verify"
	ACTION_USER_DELETE   = "user.delete"
	ACTION_USER_WARN     = "user.warn"
	ACTION_USER_BAN      = "user.ban"
	ACTION_USER_UNBAN    = "user.unban"

	// Actions OAuth
	ACTION_OAUTH_LINK  = "oauth.link"
	ACTION_OAUTH_LOGIN = "oauth.login"

	// Actions badges
	ACTION_BADGE_PREMIUM = "badge.premium"

	// Actions liste noire
	ACTION_BLACKLIST_ADD    = "blacklist.add"
	ACTION_BLACKLIST_REMOVE = "blacklist.remove"

	// Actions système
	ACTION_LOGIN_SUCCESS  = "auth.login_success"
	ACTION_LOGIN_FAILED   = "auth.login_failed"
	ACTION_LOGOUT         = "auth.logout"
	ACTION_PASSWORD_RESET = "auth.password_reset"
)

// Resources d'audit
const (
	RESOURCE_REVIEW    = "review"
	RESOURCE_USER      = "user"
	RESOURCE_BADGE     = "badge"
	RESOURCE_BLACKLIST = "blacklist"
	RESOURCE_AUTH      = "auth"
)
