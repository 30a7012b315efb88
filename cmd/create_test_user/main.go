package main

import (
	"context"
	"flag"
	"fmt"

	"stream_ledger/internal/config"
	"stream_ledger/internal/db"
	"stream_ledger/internal/domain"
	"stream_ledger/internal/logger"
	"stream_ledger/internal/repository"
	"stream_ledger/internal/service"
)

func main() {
	id := flag.String("id", "testuser", "user id")
	coins := flag.Int64("coins", 100, "starting coins")
	admin := flag.Bool("admin", false, "grant admin")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	defer logger.Sync()

	ctx := context.Background()
	store := db.MustOpen(ctx, cfg)
	defer store.Close()

	repo := repository.NewUserRepository(store)

	existing, err := repo.GetByID(ctx, *id)
	if err != nil {
		logger.Fatal("lookup user failed", "error", err)
	}
	if existing != nil {
		logger.Info("user already exists", "user_id", existing.ID)
	} else {
		u := &domain.User{ID: *id, DisplayName: *id, Coins: *coins, IsAdmin: *admin}
		if err := repo.Create(ctx, u); err != nil {
			logger.Fatal("create user failed", "error", err)
		}
		logger.Info("user created", "user_id", u.ID, "coins", u.Coins, "admin", u.IsAdmin)
	}

	tokens, err := service.NewTokenIssuer(cfg.JWTSecret, service.DefaultTokenTTL)
	if err != nil {
		logger.Fatal("jwt setup failed", "error", err)
	}
	token, err := tokens.Generate(*id)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}
	fmt.Println(token)
}
