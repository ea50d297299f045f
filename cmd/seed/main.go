// Command seed prepares a database: it applies migrations, installs the
// default facilities and the admin account, and can re-hash imported
// plaintext passwords.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/hogwarts/facility-booking/internal/auth"
	"github.com/hogwarts/facility-booking/internal/config"
	"github.com/hogwarts/facility-booking/internal/db"
	"github.com/hogwarts/facility-booking/internal/facility"
	"github.com/hogwarts/facility-booking/internal/pkg/logger"
	"github.com/hogwarts/facility-booking/internal/user"
)

func main() {
	skipMigrate := flag.Bool("skip-migrate", false, "do not apply schema migrations")
	upgradePasswords := flag.Bool("upgrade-passwords", false, "hash every pending plaintext credential")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal("failed to load config", "error", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "facility-booking-seed"})

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal("failed to connect to db", "error", err)
	}
	defer pool.Close()

	if !*skipMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatal("failed to migrate database", "error", err)
		}
	}

	facilities := facility.NewService(facility.NewPgxRepository(pool), cfg.FacilityAliases, log)
	if err := facilities.EnsureDefaults(ctx); err != nil {
		log.Fatal("failed to seed facilities", "error", err)
	}

	users := user.NewService(user.NewPgxRepository(pool), auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost), log)
	if cfg.AdminPassword != "" {
		created, err := users.EnsureAdmin(ctx, cfg.AdminHogwartsID, cfg.AdminPassword)
		if err != nil {
			log.Fatal("failed to ensure admin account", "error", err)
		}
		log.Info("admin account checked", "hogwarts_id", cfg.AdminHogwartsID, "created", created)
	}

	if *upgradePasswords {
		n, err := users.UpgradeLegacyCredentials(ctx)
		if err != nil {
			log.Fatal("failed to upgrade credentials", "error", err)
		}
		log.Info("credential upgrade finished", "upgraded", n)
	}

	log.Info("seed complete")
}
