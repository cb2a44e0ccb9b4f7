package admin

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"confiancy_back_end/internal/database"
	"confiancy_back_end/internal/models"
)

const auditColumns = `id, user_id, user_email, action, resource, resource_id,
	old_value, new_value, ip_address, user_agent, success, error_msg, timestamp`

// GetAuditLogs récupère le journal d'audit avec filtres
func GetAuditLogs(c *gin.Context) {
	if database.Scylla == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Journal d'audit indisponible"})
		return
	}

	// Paramètres de filtrage
	userID := c.Query("user_id")
	action := c.Query("action")
	resource := c.Query("resource")
	success := c.Query("success")
	limitStr := c.DefaultQuery("limit", "100")

	limit, _ := strconv.Atoi(limitStr)
	if limit > 500 {
		limit = 500
	}

	var args []interface{}
	conditions := []string{}

	if userID != "" {
		id, _ := strconv.ParseInt(userID, 10, 64)
		conditions = append(conditions, "user_id = ?")
		args = append(args, id)
	}
	if action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, action)
	}
	if resource != "" {
		conditions = append(conditions, "resource = ?")
		args = append(args, resource)
	}
	if success != "" {
		successBool, _ := strconv.ParseBool(success)
		conditions = append(conditions, "success = ?")
		args = append(args, successBool)
	}

	query := "SELECT " + auditColumns + " FROM audit_logs"
	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			query += " AND " + conditions[i]
		}
	}
	query += " LIMIT ? ALLOW FILTERING"
	args = append(args, limit)

	iter := database.Scylla.Query(query, args...).Iter()

	var logs []models.AuditLog
	var entry models.AuditLog

	for iter.Scan(&entry.ID, &entry.UserID, &entry.UserEmail,
		&entry.Action, &entry.Resource, &entry.ResourceID,
		&entry.OldValue, &entry.NewValue, &entry.IPAddress,
		&entry.UserAgent, &entry.Success, &entry.ErrorMsg,
		&entry.Timestamp) {
		logs = append(logs, entry)
	}

	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur récupération logs audit: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
		"filters": gin.H{
			"user_id":  userID,
			"action":   action,
			"resource": resource,
			"success":  success,
			"limit":    limit,
		},
	})
}

// GetAuditLogsByResource récupère les logs d'une ressource précise
func GetAuditLogsByResource(c *gin.Context) {
	if database.Scylla == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Journal d'audit indisponible"})
		return
	}

	resource := c.Param("resource")
	resourceID := c.Param("resource_id")
	limitStr := c.DefaultQuery("limit", "50")

	limit, _ := strconv.Atoi(limitStr)
	if limit > 200 {
		limit = 200
	}

	query := "SELECT " + auditColumns + ` FROM audit_logs
		WHERE resource = ? AND resource_id = ? LIMIT ? ALLOW FILTERING`

	iter := database.Scylla.Query(query, resource, resourceID, limit).Iter()

	var logs []models.AuditLog
	var entry models.AuditLog

	for iter.Scan(&entry.ID, &entry.UserID, &entry.UserEmail,
		&entry.Action, &entry.Resource, &entry.ResourceID,
		&entry.OldValue, &entry.NewValue, &entry.IPAddress,
		&entry.UserAgent, &entry.Success, &entry.ErrorMsg,
		&entry.Timestamp) {
		logs = append(logs, entry)
	}

	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur récupération logs audit: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resource":    resource,
		"resource_id": resourceID,
		"logs":        logs,
		"total":       len(logs),
	})
}

// GetAuditStats récupère les compteurs globaux du journal
func GetAuditStats(c *gin.Context) {
	if database.Scylla == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Journal d'audit indisponible"})
		return
	}

	var totalLogs int
	if err := database.Scylla.Query(`SELECT COUNT(*) FROM audit_logs`).Scan(&totalLogs); err != nil {
		log.Printf("❌ Erreur comptage logs: %v", err)
		totalLogs = 0
	}

	var successfulActions int
	if err := database.Scylla.Query(`SELECT COUNT(*) FROM audit_logs WHERE success = true ALLOW FILTERING`).Scan(&successfulActions); err != nil {
		log.Printf("❌ Erreur comptage actions réussies: %v", err)
		successfulActions = 0
	}

	var failedActions int
	if err := database.Scylla.Query(`SELECT COUNT(*) FROM audit_logs WHERE success = false ALLOW FILTERING`).Scan(&failedActions); err != nil {
		log.Printf("❌ Erreur comptage actions échouées: %v", err)
		failedActions = 0
	}

	// Actions des dernières 24h
	yesterday := time.Now().Add(-24 * time.Hour)
	var recentActions int
	if err := database.Scylla.Query(`SELECT COUNT(*) FROM audit_logs WHERE timestamp > ? ALLOW FILTERING`, yesterday).Scan(&recentActions); err != nil {
		log.Printf("❌ Erreur comptage actions récentes: %v", err)
		recentActions = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"total_logs":         totalLogs,
		"successful_actions": successfulActions,
		"failed_actions":     failedActions,
		"recent_actions_24h": recentActions,
		"success_rate":       successRate(successfulActions, totalLogs),
	})
}

func successRate(success, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(success) / float64(total) * 100
}
