package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Load charge le fichier .env s'il existe. En production les variables
// viennent de l'environnement, le fichier est réservé au développement local.
func Load() {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		log.Printf("⚠️  Pas de fichier %s — Confiancy lit les variables d'environnement du système", path)
		return
	}
	log.Printf("✅ Configuration Confiancy chargée depuis %s", path)
}
