// backend/internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	appcfg "sripavan/internal/infra/config"
	"sripavan/internal/infra/database"
	firestoreinfra "sripavan/internal/infra/firestore"
	redisinfra "sripavan/internal/infra/redis"
	"sripavan/internal/infra/secret"
)

// Infra is the shared runtime infrastructure.
// It owns the external clients; Close releases them.
//
// Infra must NOT depend on routers or handlers.
type Infra struct {
	Config    *appcfg.Config
	ProjectID string
	Logger    *zap.SugaredLogger

	// ClientOptions carry the credentials file, when one is configured.
	ClientOptions []option.ClientOption

	// Clients (owned; Close-managed). Only the ones the configuration
	// selects are set.
	Firestore    *firestoreinfra.ClientWrapper
	DB           *database.DB
	Redis        *redis.Client
	GCS          *storage.Client
	FirebaseAuth *firebaseauth.Client
	Secrets      *secret.ManagerLoader
}

// NewInfra connects the clients selected by cfg.
// The document store, the device store and Firebase Auth are strict;
// Cloud Storage and Secret Manager are best-effort (warn + continue).
func NewInfra(ctx context.Context, cfg *appcfg.Config, logger *zap.SugaredLogger) (_ *Infra, err error) {
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	log := logger.Named("infra")

	inf := &Infra{
		Config:    cfg,
		ProjectID: resolveProjectID(cfg),
		Logger:    logger,
	}
	defer func() {
		if err != nil {
			_ = inf.Close()
		}
	}()

	// Credentials file (optional; mainly for local dev)
	credFile := strings.TrimSpace(cfg.FirestoreCredentialsFile)
	if credFile == "" {
		credFile = strings.TrimSpace(cfg.GCPCreds)
	}
	if credFile != "" {
		inf.ClientOptions = append(inf.ClientOptions, option.WithCredentialsFile(credFile))
		log.Infow("using credentials file for GCP clients", "file", redactPath(credFile))
	} else {
		log.Infow("using Application Default Credentials")
	}

	// 1) Document store (strict)
	switch cfg.DocumentStore {
	case appcfg.DocumentStorePostgres:
		if inf.DB, err = database.NewConnection(ctx, cfg.DatabaseURL, log); err != nil {
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
	default:
		if inf.ProjectID == "" {
			return nil, errors.New("shared.infra: projectID is empty (set FIRESTORE_PROJECT_ID or GCP_PROJECT_ID)")
		}
		if inf.Firestore, err = firestoreinfra.NewClient(ctx, inf.ProjectID, credFile, log); err != nil {
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
		if perr := inf.Firestore.Ping(ctx); perr != nil {
			log.Warnw("firestore ping failed; continuing", "err", perr)
		}
	}

	// 2) Device store (strict)
	if cfg.DeviceStore == appcfg.DeviceStoreRedis {
		if inf.Redis, err = redisinfra.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log); err != nil {
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
	}

	// 3) Firebase Auth (strict)
	{
		projectID := strings.TrimSpace(cfg.FirebaseProjectID)
		if projectID == "" {
			projectID = inf.ProjectID
		}
		app, ferr := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, inf.ClientOptions...)
		if ferr != nil {
			return nil, fmt.Errorf("shared.infra: firebase app init failed: %w", ferr)
		}
		if inf.FirebaseAuth, err = app.Auth(ctx); err != nil {
			return nil, fmt.Errorf("shared.infra: firebase auth init failed: %w", err)
		}
		log.Infow("firebase auth initialized", "project", projectID)
	}

	// 4) Cloud Storage (best-effort; profile photos are disabled without it)
	if strings.TrimSpace(cfg.PhotoBucket) != "" {
		gcs, gerr := storage.NewClient(ctx, inf.ClientOptions...)
		if gerr != nil {
			log.Warnw("storage.NewClient failed; profile photo upload disabled", "err", gerr)
		} else {
			inf.GCS = gcs
		}
	} else {
		log.Warnw("PHOTO_BUCKET is empty; profile photo upload disabled")
	}

	// 5) Secret Manager (best-effort; only needed for the bootstrap secret)
	if cfg.AdminBootstrapSecret != "" {
		sm, serr := secret.NewManagerLoader(ctx, inf.ProjectID)
		if serr != nil {
			log.Warnw("secret manager init failed", "err", serr)
		} else {
			inf.Secrets = sm
		}
	}

	return inf, nil
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Firestore != nil {
		errs = append(errs, i.Firestore.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.GCS != nil {
		errs = append(errs, i.GCS.Close())
	}
	if i.Secrets != nil {
		errs = append(errs, i.Secrets.Close())
	}
	return errors.Join(errs...)
}

func resolveProjectID(cfg *appcfg.Config) string {
	for _, v := range []string{cfg.FirestoreProjectID, cfg.GCPProjectID, cfg.FirebaseProjectID} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// redactPath keeps only the file name.
func redactPath(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return "..." + p[i:]
	}
	return p
}
