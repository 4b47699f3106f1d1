package main

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"tagopoly/internal/config"
	"tagopoly/internal/room"
	"tagopoly/internal/server"
	"tagopoly/internal/storage"
)

func main() {
	cfg := &config.Config{}
	cmd := config.NewCommand(cfg, run)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logCfg := zap.NewProductionConfig()
	if cfg.Verbose {
		logCfg = zap.NewDevelopmentConfig()
	}
	logger, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	registry := room.NewRegistry(store, log)

	srv := server.New(registry, log)
	srv.SetAutoEndDelay(cfg.AutoEndDelay)

	log.Infow("listening", "addr", cfg.Addr(), "db", cfg.DBPath, "version", config.ReleaseVersion)
	return http.ListenAndServe(cfg.Addr(), srv)
}
