// travelctl — административная утилита: создание пользователей и
// включение/отключение учётных записей напрямую через хранилище.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pribylovaa/go-travel-planner/internal/config"
	"github.com/pribylovaa/go-travel-planner/internal/password"
	"github.com/pribylovaa/go-travel-planner/internal/service"
	"github.com/pribylovaa/go-travel-planner/internal/storage/postgres"
	"github.com/pribylovaa/go-travel-planner/internal/token"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.MustLoad(configPath)

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := execute(ctx, cfg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "travelctl:", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, cfg *config.Config, args []string) error {
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, cfg.DB.DatabaseURL); err != nil {
			return err
		}
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		return err
	}
	defer str.Close()

	codec, err := token.New(cfg.Auth)
	if err != nil {
		return err
	}

	srvc := service.New(str, codec, password.New(cfg.Auth.BcryptCost))

	return run(ctx, srvc, args, os.Stdin, os.Stdout)
}
