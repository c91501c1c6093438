package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/internal/config"
	"github.com/gurkanbulca/neighborhelp/internal/database"
	"github.com/gurkanbulca/neighborhelp/internal/logger"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(logger.Options{Development: !cfg.IsProduction(), Level: cfg.Log.Level})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	db, err := database.Open(database.Config{
		Driver:   cfg.Database.Driver,
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}, logg)
	if err != nil {
		logg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logg.Info("running database migrations", zap.String("driver", cfg.Database.Driver))
	if err := database.Migrate(context.Background(), db); err != nil {
		logg.Fatal("failed to run migrations", zap.Error(err))
	}

	logg.Info("migrations completed successfully")
}
