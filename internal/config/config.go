package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds the SQLite archive settings.
type DatabaseConfig struct {
	Path               string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// RemoteConfig holds the S3-compatible object storage settings used by
// hosted deployments. Enabled is off for local-only installs.
type RemoteConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// TemplateConfig locates the source enrollment template. URL wins over
// Path when both are set.
type TemplateConfig struct {
	Path string
	URL  string
}

// BlobConfig holds the local keyed blob store settings and the
// conventional public path probed on reads.
type BlobConfig struct {
	Dir           string
	MaxBytes      int64
	PublicBaseURL string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	OrgPrefix string // leads every generated filename
	Location  string // printed on the place/date line of the consent pages
	Template  TemplateConfig
	Database  DatabaseConfig
	Blob      BlobConfig
	Remote    RemoteConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:   getEnv("APP_HOST", "localhost:8080"),
		Port:      getEnv("PORT", "8080"),
		OrgPrefix: getEnv("ORG_PREFIX", "FederKombat"),
		Location:  getEnv("PLACE_NAME", "Roma"),
		Template: TemplateConfig{
			Path: getEnv("TEMPLATE_PATH", "documents/modulo_iscrizione.pdf"),
			URL:  getEnv("TEMPLATE_URL", ""),
		},
		Database: DatabaseConfig{
			Path:               getEnv("DB_PATH", "data/documents.db"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 1),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 1),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Blob: BlobConfig{
			Dir:           getEnv("BLOB_DIR", "data/blobs"),
			MaxBytes:      getEnvInt64("BLOB_MAX_BYTES", 5*1024*1024),
			PublicBaseURL: getEnv("PUBLIC_DOCUMENTS_URL", ""),
		},
		Remote: RemoteConfig{
			Enabled:   getEnvBool("REMOTE_STORAGE_ENABLED", false),
			Endpoint:  getEnv("REMOTE_ENDPOINT", ""),
			AccessKey: getEnv("REMOTE_ACCESS_KEY", ""),
			SecretKey: getEnv("REMOTE_SECRET_KEY", ""),
			Bucket:    getEnv("REMOTE_BUCKET", ""),
			UseSSL:    getEnvBool("REMOTE_USE_SSL", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
