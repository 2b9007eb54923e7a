// backend/internal/platform/di/shared/admin_policy.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	authuc "sripavan/internal/application/usecase/auth"
	appcfg "sripavan/internal/infra/config"
)

// SecretLoader reads one secret payload by id.
type SecretLoader interface {
	Load(ctx context.Context, secretID string) (string, error)
}

var ErrNoBootstrapCredential = errors.New("shared: no admin bootstrap credential configured (ADMIN_BOOTSTRAP_SECRET, ADMIN_BOOTSTRAP_PASSWORD_HASH or ADMIN_BOOTSTRAP_PASSWORD)")

// BuildAdminPolicy resolves the reserved admin email and its bootstrap credential.
// Order: Secret Manager, then ADMIN_BOOTSTRAP_PASSWORD_HASH, then ADMIN_BOOTSTRAP_PASSWORD.
func BuildAdminPolicy(ctx context.Context, cfg *appcfg.Config, secrets SecretLoader, logger *zap.SugaredLogger) (authuc.AdminPolicy, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg == nil {
		return authuc.AdminPolicy{}, errors.New("shared: config is nil")
	}
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" {
		return authuc.AdminPolicy{}, authuc.ErrAdminPolicyNotConfigured
	}

	if id := strings.TrimSpace(cfg.AdminBootstrapSecret); id != "" {
		if secrets == nil {
			return authuc.AdminPolicy{}, fmt.Errorf("shared: secret %q configured but secret manager is unavailable", id)
		}
		v, err := secrets.Load(ctx, id)
		if err != nil {
			return authuc.AdminPolicy{}, fmt.Errorf("shared: load admin bootstrap secret: %w", err)
		}
		logger.Infow("admin bootstrap credential loaded from secret manager", "secret", id)
		return authuc.AdminPolicy{Email: email, Credential: credentialFromSecret(v)}, nil
	}

	if h := strings.TrimSpace(cfg.AdminBootstrapPasswordHash); h != "" {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return authuc.AdminPolicy{}, fmt.Errorf("shared: ADMIN_BOOTSTRAP_PASSWORD_HASH is not a bcrypt hash: %w", err)
		}
		return authuc.AdminPolicy{Email: email, Credential: authuc.HashedCredential(h)}, nil
	}

	if cfg.AdminBootstrapPassword != "" {
		logger.Warnw("using plain ADMIN_BOOTSTRAP_PASSWORD from environment; prefer ADMIN_BOOTSTRAP_SECRET outside development")
		return authuc.AdminPolicy{Email: email, Credential: authuc.PlainCredential(cfg.AdminBootstrapPassword)}, nil
	}

	return authuc.AdminPolicy{}, ErrNoBootstrapCredential
}

func credentialFromSecret(v string) authuc.BootstrapCredential {
	if isBcrypt(v) {
		return authuc.HashedCredential(v)
	}
	return authuc.PlainCredential(v)
}

func isBcrypt(v string) bool {
	for _, p := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(v, p) {
			return true
		}
	}
	return false
}
