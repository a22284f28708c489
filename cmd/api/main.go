package main

import (
	"context"
	"log"
	"time"

	"github.com/apidoc-hub/apidoc-backend/config"
	"github.com/apidoc-hub/apidoc-backend/internal/bootstrap"
	"github.com/apidoc-hub/apidoc-backend/internal/db"
	"github.com/apidoc-hub/apidoc-backend/internal/identity"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("open db pool: %v", err)
	}
	defer database.Close()

	sqlDB, err := db.OpenSQL(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer sqlDB.Close()

	cache, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("open redis: %v", err)
	}
	defer cache.Close()

	authClient, err := identity.InitializeFirebase(&cfg.Firebase)
	if err != nil {
		log.Fatalf("init firebase: %v", err)
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "apidoc-backend",
		Version:        cfg.App.Version,
		Pool:           database.Pool,
		SQL:            sqlDB,
		Redis:          cache,
		Auth:           authClient,
		ExportInterval: time.Duration(cfg.Export.ThrottleSeconds) * time.Second,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
