package config

import (
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("FIREBASE_WEB_API_KEY", "web-key")
	t.Setenv("ADMIN_EMAIL", "admin@sripavan.lk")
	t.Setenv("ADMIN_BOOTSTRAP_PASSWORD", "dev-only")
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DocumentStoreFirestore, cfg.DocumentStore)
	assert.Equal(t, DeviceStoreFile, cfg.DeviceStore)
	assert.Equal(t, "sripavan-computers", cfg.FirestoreProjectID)
	assert.Equal(t, cfg.FirestoreProjectID, cfg.FirebaseProjectID)
	assert.Equal(t, 120*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.DeviceIdleTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GCP_PROJECT_ID", "prod-project")
	t.Setenv("FIREBASE_PROJECT_ID", "auth-project")
	t.Setenv("DOCUMENT_STORE", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/shop?sslmode=disable")
	t.Setenv("DEVICE_STORE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://sripavan.lk, https://www.sripavan.lk ,")
	t.Setenv("SESSION_TTL", "24h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, DocumentStorePostgres, cfg.DocumentStore)
	assert.Equal(t, "prod-project", cfg.FirestoreProjectID)
	assert.Equal(t, "auth-project", cfg.FirebaseProjectID)
	assert.Equal(t, DeviceStoreRedis, cfg.DeviceStore)
	assert.Equal(t, []string{"https://sripavan.lk", "https://www.sripavan.lk"}, cfg.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
}

func TestValidate(t *testing.T) {
	base := Config{
		Port:                   "8080",
		DocumentStore:          DocumentStorePostgres,
		DeviceStore:            DeviceStoreRedis,
		FirebaseWebAPIKey:      "k",
		AdminEmail:             "admin@sripavan.lk",
		AdminBootstrapPassword: "x",
		LocalStoreDir:          "./var",
	}

	err := base.Validate()
	require.Error(t, err)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "DatabaseURL")
	assert.Contains(t, errs, "RedisAddr")

	base.DatabaseURL = "postgres://localhost/shop"
	base.RedisAddr = "localhost:6379"
	assert.NoError(t, base.Validate())

	base.AdminBootstrapPassword = ""
	assert.Error(t, base.Validate(), "a bootstrap credential source is required")
	base.AdminBootstrapSecret = "admin-bootstrap"
	assert.NoError(t, base.Validate())

	base.DocumentStore = "mongo"
	assert.Error(t, base.Validate())
}
