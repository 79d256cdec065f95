package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"commerce-service/config"
	"commerce-service/internal/auth"
	"commerce-service/internal/service"
	"commerce-service/internal/store"
	"commerce-service/internal/util"

	"go.uber.org/zap"
)

const usage = `usage: admin [-env-file path] <command>

commands:
  migrate up     apply all schema migrations
  migrate down   roll back all schema migrations
  seed           create the demo user and sample products
`

func main() {
	envFile := flag.String("env-file", "", "Optional path to .env file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	var cfg *config.Config
	if *envFile != "" {
		cfg = config.Load(*envFile)
	} else {
		cfg = config.Load()
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	switch args[0] {
	case "migrate":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(2)
		}
		if err := store.Migrate(cfg.Database.URL, args[1]); err != nil {
			logger.Fatal("Migration failed", zap.String("direction", args[1]), zap.Error(err))
		}
		logger.Info("Migrations applied", zap.String("direction", args[1]))

	case "seed":
		if err := seed(cfg, logger); err != nil {
			logger.Fatal("Seed failed", zap.Error(err))
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func seed(cfg *config.Config, logger *zap.Logger) error {
	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	tokens, err := auth.NewTokenIssuer(cfg.Auth.TokenSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		return err
	}

	svc := service.NewCommerceService(service.Dependencies{
		Users:    db.Users(),
		Products: db.Products(),
		Orders:   db.Orders(),
		Tokens:   tokens,
		Logger:   logger,
	}, service.Options{
		RecommendationLimit: cfg.Business.RecommendationsPerUser,
		Currency:            cfg.Business.DefaultCurrency,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return svc.SeedDemoData(ctx)
}
