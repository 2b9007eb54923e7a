// backend/cmd/seed_admins/main.go
package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	dbrepo "sripavan/internal/adapters/out/db"
	fsrepo "sripavan/internal/adapters/out/firestore"
	admindom "sripavan/internal/domain/admin"
	userdom "sripavan/internal/domain/user"
	"sripavan/internal/infra/config"
	applog "sripavan/internal/infra/logger"
	shared "sripavan/internal/platform/di/shared"
)

// seed_admins adds an entry to the admins index (and flags users/{uid}).
//
//	go run ./cmd/seed_admins -email admin@sripavan.lk
func main() {
	email := flag.String("email", "", "admin email (defaults to ADMIN_EMAIL)")
	uid := flag.String("uid", "", "firebase uid (looked up by email when empty)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := applog.New(applog.Config{Level: cfg.LogLevel, Dev: true})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	logger := zl.Sugar().Named("seed_admins")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	inf, err := shared.NewInfra(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("infra init failed", "err", err)
	}
	defer inf.Close()

	addr := strings.TrimSpace(*email)
	if addr == "" {
		addr = cfg.AdminEmail
	}
	id := strings.TrimSpace(*uid)
	if id == "" {
		rec, err := inf.FirebaseAuth.GetUserByEmail(ctx, addr)
		if err != nil {
			logger.Fatalw("lookup uid by email failed", "email", addr, "err", err)
		}
		id = rec.UID
	}

	entry, err := admindom.NewEntry(id, addr, time.Now())
	if err != nil {
		logger.Fatalw("invalid entry", "uid", id, "email", addr, "err", err)
	}

	var (
		admins admindom.Index
		users  userdom.Repository
	)
	if inf.DB != nil {
		if err := dbrepo.EnsureSchema(ctx, inf.DB.Client); err != nil {
			logger.Fatalw("ensure schema failed", "err", err)
		}
		admins, users = dbrepo.NewAdminIndexPG(inf.DB.Client), dbrepo.NewUserRepositoryPG(inf.DB.Client)
	} else {
		admins, users = fsrepo.NewAdminIndexFS(inf.Firestore.Client), fsrepo.NewUserRepositoryFS(inf.Firestore.Client)
	}

	if err := admins.Add(ctx, entry); err != nil {
		logger.Fatalw("add admin entry failed", "err", err)
	}
	// users/{uid} only exists once the account has signed in
	if err := users.SetAdmin(ctx, id, true); err != nil {
		logger.Warnw("set isAdmin skipped", "uid", id, "err", err)
	}

	logger.Infow("admin seeded", "uid", entry.UID, "email", entry.Email)
}
