package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"

	"esl-be/internal/config"
	"esl-be/internal/db"
	"esl-be/internal/db/migrations"
	"esl-be/internal/logger"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up, down or status")
	flag.Parse()

	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		logger.L().Fatal("failed to connect db", zap.Error(err))
	}
	defer database.Close()

	if err := run(database, *mode, migrations.FS); err != nil {
		logger.L().Fatal("migration failed", zap.String("mode", *mode), zap.Error(err))
	}
	logger.L().Info("migration finished", zap.String("mode", *mode))
}

func run(database *sql.DB, mode string, migrationsFS fs.FS) error {
	var apply func(*sql.DB, string, ...goose.OptionsFunc) error
	switch mode {
	case "up":
		apply = goose.Up
	case "down":
		apply = goose.Down
	case "status":
		apply = goose.Status
	default:
		return fmt.Errorf("unknown mode: %s (use 'up', 'down' or 'status')", mode)
	}

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	return apply(database, ".")
}
