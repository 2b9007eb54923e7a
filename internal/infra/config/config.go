// backend/internal/infra/config/config.go
package config

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Document store backends.
const (
	DocumentStoreFirestore = "firestore"
	DocumentStorePostgres  = "postgres"
)

// Device store backends.
const (
	DeviceStoreFile  = "file"
	DeviceStoreRedis = "redis"
)

// Config holds the process settings read from the environment.
type Config struct {
	Port string

	GCPProjectID             string
	GCPCreds                 string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirebaseProjectID        string
	// FirebaseWebAPIKey authorizes the password endpoints of the identity toolkit.
	FirebaseWebAPIKey string

	DocumentStore string
	DatabaseURL   string

	DeviceStore    string
	LocalStoreDir  string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	DeviceStoreTTL time.Duration

	// Admin policy. Exactly one bootstrap credential source is used, in the
	// order secret, hash, plain.
	AdminEmail                 string
	AdminBootstrapSecret       string
	AdminBootstrapPasswordHash string
	AdminBootstrapPassword     string

	PhotoBucket string

	AllowedOrigins []string
	SecureCookie   bool
	SessionTTL     time.Duration
	DeviceIdleTTL  time.Duration
	RemoteTimeout  time.Duration

	LogLevel string
	LogDev   bool
}

// Load reads the environment (and ./.env when present).
// Environment variables take precedence over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional
	v.AutomaticEnv()

	setDefaults(v)

	project := v.GetString("GCP_PROJECT_ID")
	cfg := &Config{
		Port: v.GetString("PORT"),

		GCPProjectID:             project,
		GCPCreds:                 v.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		FirestoreProjectID:       getenvDefault(v, "FIRESTORE_PROJECT_ID", project),
		FirestoreCredentialsFile: v.GetString("FIRESTORE_CREDENTIALS_FILE"),
		FirebaseProjectID:        getenvDefault(v, "FIREBASE_PROJECT_ID", project),
		FirebaseWebAPIKey:        v.GetString("FIREBASE_WEB_API_KEY"),

		DocumentStore: strings.ToLower(strings.TrimSpace(v.GetString("DOCUMENT_STORE"))),
		DatabaseURL:   v.GetString("DATABASE_URL"),

		DeviceStore:    strings.ToLower(strings.TrimSpace(v.GetString("DEVICE_STORE"))),
		LocalStoreDir:  v.GetString("LOCAL_STORE_DIR"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		RedisKeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
		DeviceStoreTTL: v.GetDuration("DEVICE_STORE_TTL"),

		AdminEmail:                 strings.TrimSpace(v.GetString("ADMIN_EMAIL")),
		AdminBootstrapSecret:       strings.TrimSpace(v.GetString("ADMIN_BOOTSTRAP_SECRET")),
		AdminBootstrapPasswordHash: strings.TrimSpace(v.GetString("ADMIN_BOOTSTRAP_PASSWORD_HASH")),
		AdminBootstrapPassword:     v.GetString("ADMIN_BOOTSTRAP_PASSWORD"),

		PhotoBucket: getenvDefault(v, "PHOTO_BUCKET", v.GetString("GCS_BUCKET")),

		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		SecureCookie:   v.GetBool("SECURE_COOKIE"),
		SessionTTL:     v.GetDuration("SESSION_TTL"),
		DeviceIdleTTL:  v.GetDuration("DEVICE_IDLE_TTL"),
		RemoteTimeout:  v.GetDuration("REMOTE_TIMEOUT"),

		LogLevel: v.GetString("LOG_LEVEL"),
		LogDev:   v.GetBool("LOG_DEV"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GCP_PROJECT_ID", "sripavan-computers")
	v.SetDefault("DOCUMENT_STORE", DocumentStoreFirestore)
	v.SetDefault("DEVICE_STORE", DeviceStoreFile)
	v.SetDefault("LOCAL_STORE_DIR", "./var/devices")
	v.SetDefault("REDIS_KEY_PREFIX", "sripavan:")
	v.SetDefault("DEVICE_STORE_TTL", "720h")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("SESSION_TTL", "120h")
	v.SetDefault("DEVICE_IDLE_TTL", "30m")
	v.SetDefault("REMOTE_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.DocumentStore, validation.In(DocumentStoreFirestore, DocumentStorePostgres)),
		validation.Field(&c.DatabaseURL, validation.When(c.DocumentStore == DocumentStorePostgres, validation.Required)),
		validation.Field(&c.FirestoreProjectID, validation.When(c.DocumentStore == DocumentStoreFirestore, validation.Required)),
		validation.Field(&c.DeviceStore, validation.In(DeviceStoreFile, DeviceStoreRedis)),
		validation.Field(&c.RedisAddr, validation.When(c.DeviceStore == DeviceStoreRedis, validation.Required)),
		validation.Field(&c.LocalStoreDir, validation.When(c.DeviceStore == DeviceStoreFile, validation.Required)),
		validation.Field(&c.FirebaseWebAPIKey, validation.Required),
		validation.Field(&c.AdminEmail, validation.Required),
		validation.Field(&c.AdminBootstrapPassword, validation.When(
			c.AdminBootstrapSecret == "" && c.AdminBootstrapPasswordHash == "",
			validation.Required.Error("one of ADMIN_BOOTSTRAP_SECRET, ADMIN_BOOTSTRAP_PASSWORD_HASH or ADMIN_BOOTSTRAP_PASSWORD is required"),
		)),
	)
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getenvDefault(v *viper.Viper, key, def string) string {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		return s
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
