package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host                string
	Port                string
	JWTSecret           string
	JWTIssuer           string
	AccessTokenTTL      time.Duration
	UploadTokenTTL      time.Duration
	DBHost              string
	DBPort              string
	DBUser              string
	DBPass              string
	DBName              string
	DBNameTest          string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	FilesDir            string
	UploadsDir          string
	StorageBackend      string
	MinioHost           string
	MinioPort           string
	MinioUsername       string
	MinioPassword       string
	BucketName          string
	RabbitMQURL         string
	RabbitMQPrefetch    int
	GCWorkerConcurrency int
	GCRetryMax          int
	GCRetryDelays       []time.Duration
	SweepInterval       time.Duration
	SweepGrace          time.Duration
	SweepRate           float64
	SweepBurst          int
	TokenIssueRate      float64
	TokenIssueBurst     int
	PeerEnabled         bool
	PeerAPIURI          string
	AuthURI             string
	AuthTenantClientID  string
	AuthClientID        string
	AuthClientSecret    string
	AlertEmail          string
}

var AppConfig Config

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDurationList(key string, defaultValue []time.Duration) []time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := time.ParseDuration(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// InitConfig loads configuration from the environment. It must run before
// anything reads AppConfig; the snapshot is never mutated afterwards.
func InitConfig() {
	rabbitHost := getEnv("RABBITMQ_HOST", "localhost")
	rabbitPort := getEnv("RABBITMQ_PORT", "5672")
	rabbitUser := getEnv("RABBITMQ_USER", "guest")
	rabbitPass := getEnv("RABBITMQ_PASSWORD", "guest")
	rabbitVhost := getEnv("RABBITMQ_VHOST", "/")
	rabbitURL := getEnv("RABBITMQ_URL", "")
	if rabbitURL == "" {
		rabbitURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/%s",
			url.PathEscape(rabbitUser),
			url.PathEscape(rabbitPass),
			rabbitHost,
			rabbitPort,
			url.PathEscape(rabbitVhost),
		)
	}
	retryDelays := getEnvDurationList(
		"GC_RETRY_DELAYS",
		[]time.Duration{10 * time.Second, 30 * time.Second, 2 * time.Minute},
	)
	AppConfig = Config{
		Host:                getEnv("HOST", "0.0.0.0"),
		Port:                getEnv("PORT", "8000"),
		JWTSecret:           getEnv("JWT_SECRET", "l=ax+b"),
		JWTIssuer:           getEnv("JWT_ISSUER", "http://localhost:8000"),
		AccessTokenTTL:      getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		UploadTokenTTL:      getEnvDuration("UPLOAD_TOKEN_TTL", 24*time.Hour),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "3306"),
		DBUser:              getEnv("DB_USER", "root"),
		DBPass:              getEnv("DB_PASS", "root"),
		DBName:              getEnv("DB_NAME", "blobvault"),
		DBNameTest:          getEnv("DB_NAME_TEST", "blobvault_test"),
		RedisHost:           getEnv("REDIS_HOST", "localhost"),
		RedisPort:           getEnv("REDIS_PORT", "6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             0,
		FilesDir:            getEnv("FILES_DIR", "./data/files"),
		UploadsDir:          getEnv("UPLOADS_DIR", "./data/uploads"),
		StorageBackend:      getEnv("STORAGE_BACKEND", "local"),
		MinioHost:           getEnv("MINIO_HOST", "localhost"),
		MinioPort:           getEnv("MINIO_PORT", "9000"),
		MinioUsername:       getEnv("MINIO_USERNAME", "minioadmin"),
		MinioPassword:       getEnv("MINIO_PASSWORD", "minioadmin"),
		BucketName:          getEnv("BUCKET_NAME", "blobvault"),
		RabbitMQURL:         rabbitURL,
		RabbitMQPrefetch:    getEnvInt("RABBITMQ_PREFETCH", 8),
		GCWorkerConcurrency: getEnvInt("GC_WORKER_CONCURRENCY", 4),
		GCRetryMax:          getEnvInt("GC_RETRY_MAX", 3),
		GCRetryDelays:       retryDelays,
		SweepInterval:       getEnvDuration("SWEEP_INTERVAL", time.Hour),
		SweepGrace:          getEnvDuration("SWEEP_GRACE", 24*time.Hour),
		SweepRate:           getEnvFloat("SWEEP_RATE", 16),
		SweepBurst:          getEnvInt("SWEEP_BURST", 32),
		TokenIssueRate:      getEnvFloat("TOKEN_ISSUE_RATE", 5),
		TokenIssueBurst:     getEnvInt("TOKEN_ISSUE_BURST", 10),
		PeerEnabled:         getEnvBool("PEER_ENABLED", false),
		PeerAPIURI:          getEnv("PEER_API_URI", "https://p2p.aicacia.com"),
		AuthURI:             getEnv("AUTH_URI", "https://api.auth.aicacia.com"),
		AuthTenantClientID:  getEnv("AUTH_TENANT_CLIENT_ID", ""),
		AuthClientID:        getEnv("AUTH_CLIENT_ID", ""),
		AuthClientSecret:    getEnv("AUTH_CLIENT_SECRET", ""),
		AlertEmail:          getEnv("ALERT_EMAIL", ""),
	}
}
