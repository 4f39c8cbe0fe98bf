// Package main is the entry point for the microblog server.
//
// main() does three things: load configuration, create dependencies
// (logger, server), and start the application. All real logic lives in
// the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"microblog/internal/config"
	"microblog/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The data directory must exist before SQLite can create the file.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(cfg.DBPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Port:          cfg.Port,
		DBPath:        cfg.DBPath,
		SecretKey:     cfg.SecretKey,
		PostsPerPage:  cfg.PostsPerPage,
		ResetTokenTTL: cfg.ResetTokenTTL,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
