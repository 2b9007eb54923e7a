// backend/internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	httpin "sripavan/internal/adapters/in/http"
	"sripavan/internal/adapters/in/http/middleware"
	mallHandler "sripavan/internal/adapters/in/http/mall/handler"
	dbrepo "sripavan/internal/adapters/out/db"
	fsrepo "sripavan/internal/adapters/out/firestore"
	gcsrepo "sripavan/internal/adapters/out/gcs"
	"sripavan/internal/adapters/out/identity"
	"sripavan/internal/adapters/out/localstore"
	"sripavan/internal/adapters/out/notify"
	"sripavan/internal/application/storefront"
	"sripavan/internal/application/usecase"
	admindom "sripavan/internal/domain/admin"
	cartdom "sripavan/internal/domain/cart"
	"sripavan/internal/domain/device"
	orderdom "sripavan/internal/domain/order"
	userdom "sripavan/internal/domain/user"
	appcfg "sripavan/internal/infra/config"
	shared "sripavan/internal/platform/di/shared"
)

const inboxSize = 32

// Container is everything main needs: the router to serve, the device
// registry to run and the infra to close.
type Container struct {
	Infra    *shared.Infra
	Registry *storefront.Registry
	Router   http.Handler
}

// Repositories are the document-store adapters the storefront uses.
type Repositories struct {
	Users  userdom.Repository
	Admins admindom.Index
	Carts  cartdom.RemoteRepository
	Orders orderdom.Repository
}

// NewContainer wires infra, adapters, usecases and the HTTP surface.
func NewContainer(ctx context.Context, cfg *appcfg.Config, logger *zap.SugaredLogger) (c *Container, err error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	// ============================================================
	// Infra
	// ============================================================
	inf, err := shared.NewInfra(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = inf.Close()
		}
	}()

	// ============================================================
	// Outbound adapters
	// ============================================================
	repos, err := buildRepositories(ctx, inf)
	if err != nil {
		return nil, err
	}

	stores, err := buildDeviceStores(inf)
	if err != nil {
		return nil, err
	}

	toolkit, err := identity.NewToolkit(ctx, cfg.FirebaseWebAPIKey, inf.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("di: identity toolkit: %w", err)
	}
	providers := &identity.Factory{
		Password:   toolkit,
		Admin:      inf.FirebaseAuth,
		SessionTTL: cfg.SessionTTL,
		Logger:     logger.Named("identity"),
	}

	var secrets shared.SecretLoader
	if inf.Secrets != nil {
		secrets = inf.Secrets
	}
	policy, err := shared.BuildAdminPolicy(ctx, cfg, secrets, logger.Named("admin_policy"))
	if err != nil {
		return nil, err
	}

	// ============================================================
	// Storefront
	// ============================================================
	registry, err := storefront.NewRegistry(storefront.Deps{
		Stores:      stores,
		NewProvider: providers.Open,
		Users:       repos.Users,
		Admins:      repos.Admins,
		Carts:       repos.Carts,
		Policy:      policy,
		NewInbox:    func() storefront.Inbox { return notify.NewInbox(inboxSize) },
		Notifier:    notify.NewLogNotifier(logger.Named("notify")),
		Logger:      logger.Named("storefront"),
	}, storefront.Config{
		IdleTTL:       cfg.DeviceIdleTTL,
		RemoteTimeout: cfg.RemoteTimeout,
	})
	if err != nil {
		return nil, err
	}

	// ============================================================
	// Usecases
	// ============================================================
	checkoutUC := usecase.NewCheckoutUsecase(repos.Orders, logger.Named("checkout"))
	orderUC := usecase.NewOrderUsecase(repos.Orders)

	var photos mallHandler.PhotoReplacer
	if inf.GCS != nil {
		photos = usecase.NewProfilePhotoUsecase(
			gcsrepo.NewProfilePhotoRepositoryGCS(inf.GCS, cfg.PhotoBucket),
			logger.Named("profile_photo"),
		)
	}

	// ============================================================
	// Inbound HTTP
	// ============================================================
	router := httpin.NewRouter(httpin.RouterDeps{
		Devices: registry,
		Device: middleware.DeviceOptions{
			SecureCookie: cfg.SecureCookie,
		},
		Checkout:       checkoutUC,
		ProfilePhoto:   photos,
		Orders:         orderUC,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	return &Container{Infra: inf, Registry: registry, Router: router}, nil
}

// Close shuts the devices down before the clients they use.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Registry != nil {
		errs = append(errs, c.Registry.Close(ctx))
	}
	if c.Infra != nil {
		errs = append(errs, c.Infra.Close())
	}
	return errors.Join(errs...)
}

// buildRepositories picks the document-store adapters for the configured backend.
func buildRepositories(ctx context.Context, inf *shared.Infra) (Repositories, error) {
	switch {
	case inf.DB != nil:
		db := inf.DB.Client
		if err := dbrepo.EnsureSchema(ctx, db); err != nil {
			return Repositories{}, fmt.Errorf("di: ensure schema: %w", err)
		}
		return Repositories{
			Users:  dbrepo.NewUserRepositoryPG(db),
			Admins: dbrepo.NewAdminIndexPG(db),
			Carts:  dbrepo.NewCartRepositoryPG(db),
			Orders: dbrepo.NewOrderRepositoryPG(db),
		}, nil
	case inf.Firestore != nil:
		fs := inf.Firestore.Client
		return Repositories{
			Users:  fsrepo.NewUserRepositoryFS(fs),
			Admins: fsrepo.NewAdminIndexFS(fs),
			Carts:  fsrepo.NewCartRepositoryFS(fs),
			Orders: fsrepo.NewOrderRepositoryFS(fs),
		}, nil
	}
	return Repositories{}, errors.New("di: no document store configured")
}

func buildDeviceStores(inf *shared.Infra) (device.StoreFactory, error) {
	cfg := inf.Config
	if cfg.DeviceStore == appcfg.DeviceStoreRedis {
		if inf.Redis == nil {
			return nil, errors.New("di: redis device store selected but no client")
		}
		return localstore.NewRedisFactory(inf.Redis, cfg.RedisKeyPrefix, cfg.DeviceStoreTTL), nil
	}
	dir := strings.TrimSpace(cfg.LocalStoreDir)
	f, err := localstore.NewFileFactory(dir)
	if err != nil {
		return nil, fmt.Errorf("di: file device store %q: %w", dir, err)
	}
	return f, nil
}
