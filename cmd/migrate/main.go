package main

import (
	"flag"
	"os"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/elskow/fintrack/internal/migration"
	"github.com/elskow/fintrack/internal/server"
)

func main() {
	command := flag.String("command", "up", "migration command (up/down/down-to/sync/status/version/reset)")
	target := flag.Int64("version", 0, "target version for down-to")
	flag.Parse()

	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", server.EnvDevelopment)
	}

	logger, err := server.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Named("migrate")

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	migrator, err := migration.NewMigrator(&cfg.Database)
	if err != nil {
		log.Fatal("failed to create migrator", zap.Error(err))
	}
	defer migrator.Close()

	switch *command {
	case "up":
		if err := migrator.Up(); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		log.Info("migrations applied")

	case "down":
		if err := migrator.Down(); err != nil {
			log.Fatal("failed to roll back migration", zap.Error(err))
		}
		log.Info("rolled back one migration")

	case "down-to":
		if err := migrator.DownTo(*target); err != nil {
			log.Fatal("failed to roll back migrations", zap.Error(err))
		}
		log.Info("rolled back migrations", zap.Int64("version", *target))

	case "sync":
		from, to, err := migrator.Sync()
		if err != nil {
			log.Fatal("failed to sync schema", zap.Error(err))
		}
		log.Info("schema synced", zap.Int64("from_version", from), zap.Int64("to_version", to))

	case "status":
		if err := migrator.Status(); err != nil {
			log.Fatal("failed to get migration status", zap.Error(err))
		}

	case "version":
		version, err := migrator.Version()
		if err != nil {
			log.Fatal("failed to get migration version", zap.Error(err))
		}
		log.Info("current migration version", zap.Int64("version", version))

	case "reset":
		if err := migrator.Reset(); err != nil {
			log.Fatal("failed to reset migrations", zap.Error(err))
		}
		log.Info("migrations reset")

	default:
		log.Fatal("unknown command", zap.String("command", *command))
	}
}
