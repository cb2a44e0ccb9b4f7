package database

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"

	"confiancy_back_end/internal/store"
)

// --- Variables Globales ---
var (
	// SQLite est la base de vérité : comptes, agrégats de réputation, avis.
	SQLite *store.Store

	Redis *redis.Client

	// Scylla porte le journal d'audit (append-only). Optionnel : nil si non
	// configuré, le journal est alors désactivé.
	Scylla *gocql.Session

	// Elastic indexe l'annuaire des profils pour la recherche. Optionnel.
	Elastic *elasticsearch.Client

	// MinIO stocke les avatars. Optionnel.
	MinIO *minio.Client
)

// --- Initialisation ---
func ConnectDatabases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. SQLite : indispensable, on s'arrête si elle ne s'ouvre pas
	connectSQLite()

	// 2. Redis : indispensable (sessions, limites de débit, pub/sub)
	connectRedis(ctx)

	// 3. ScyllaDB : journal d'audit, facultatif
	connectScylla()

	// 4. Elasticsearch : recherche de profils, facultatif
	connectElastic()

	// 5. MinIO : avatars, facultatif
	connectMinIO(ctx)

	log.Println("✅ Toutes les bases de données sont connectées")
}

// =============================================
// SQLITE
// =============================================
func connectSQLite() {
	path := os.Getenv("SQLITE_PATH")
	if path == "" {
		path = "confiancy.db"
	}

	st, err := store.Open(path)
	if err != nil {
		log.Fatal("❌ Erreur ouverture SQLite:", err)
	}
	SQLite = st
}

// CloseSQLite ferme la base principale.
func CloseSQLite() {
	if SQLite != nil {
		if err := SQLite.Close(); err != nil {
			log.Println("⚠️ Erreur fermeture SQLite:", err)
		} else {
			log.Println("🔌 Base SQLite fermée")
		}
	}
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context) {
	Redis = redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_HOST"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatal("❌ Erreur connexion Redis:", err)
	}
	log.Println("✅ Connecté à Redis")
}

// =============================================
// SCYLLA DB (journal d'audit)
// =============================================
func connectScylla() {
	hosts := os.Getenv("SCYLLA_HOSTS")
	keyspace := os.Getenv("SCYLLA_AUDIT_KEYSPACE")
	if hosts == "" || keyspace == "" {
		log.Println("⚠️ ScyllaDB non configuré — journal d'audit désactivé")
		return
	}

	cluster := gocql.NewCluster(strings.Split(hosts, ",")...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	cluster.Authenticator = gocql.PasswordAuthenticator{
		Username: os.Getenv("SCYLLA_AUDIT_ROLE"),
		Password: os.Getenv("SCYLLA_AUDIT_PASSWORD"),
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	session, err := cluster.CreateSession()
	if err != nil {
		log.Println("⚠️ Erreur connexion ScyllaDB — journal d'audit désactivé:", err)
		return
	}

	Scylla = session
	log.Printf("✅ Connecté à ScyllaDB (keyspace '%s')", keyspace)
}

// CloseScylla ferme la session du journal d'audit.
func CloseScylla() {
	if Scylla != nil {
		Scylla.Close()
		log.Println("🔌 Session ScyllaDB fermée")
	}
}

// =============================================
// ELASTICSEARCH
// =============================================
func connectElastic() {
	url := os.Getenv("ELASTIC_URL")
	if url == "" {
		log.Println("⚠️ Elasticsearch non configuré — recherche de profils désactivée")
		return
	}

	cfg := elasticsearch.Config{
		Addresses: []string{url},
		Username:  os.Getenv("ELASTIC_USER"),
		Password:  os.Getenv("ELASTIC_PASSWORD"),
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		log.Println("⚠️ Erreur création client Elasticsearch:", err)
		return
	}

	res, err := client.Info()
	if err != nil {
		log.Println("⚠️ Erreur connexion Elasticsearch — recherche désactivée:", err)
		return
	}
	defer res.Body.Close()

	Elastic = client
	log.Println("✅ Connecté à Elasticsearch")
}

// =============================================
// MINIO
// =============================================
func connectMinIO(ctx context.Context) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		log.Println("⚠️ MinIO non configuré — upload d'avatars désactivé")
		return
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Println("⚠️ Erreur connexion MinIO:", err)
		return
	}

	bucketName := os.Getenv("MINIO_BUCKET")
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		log.Println("⚠️ Erreur vérification bucket MinIO:", err)
		return
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			log.Println("⚠️ Erreur création bucket MinIO:", err)
			return
		}
		log.Println("🪣 Bucket créé :", bucketName)
	} else {
		log.Println("🪣 Bucket MinIO déjà présent :", bucketName)
	}

	MinIO = client
	log.Println("✅ Connecté à MinIO :", endpoint)
}
