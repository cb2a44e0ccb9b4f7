package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"confiancy_back_end/internal/database"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

// ScoreWebSocket pousse en temps réel les changements de score d'un profil
func ScoreWebSocket(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return
	}

	user, err := database.SQLite.UserByID(c.Request.Context(), targetID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profil introuvable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx := context.Background()

	// S'abonner au canal Redis de ce profil
	pubsub := database.Redis.Subscribe(ctx, "score:"+strconv.FormatInt(targetID, 10))
	defer pubsub.Close()

	ch := pubsub.Channel()

	// État initial à la connexion
	conn.WriteJSON(map[string]interface{}{
		"type":         "connected",
		"user_id":      user.UserID,
		"score":        user.Score,
		"review_count": user.ReviewCount,
	})

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				continue
			}
			if err := conn.WriteJSON(payload); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}
		case <-time.After(30 * time.Second):
			// Ping pour garder la connexion active
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
