// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

// Package main is the entry point for the Annotato server.
//
// Annotato is a self-hosted backend for collaborative project annotation:
// users register, create projects, upload files, and annotate them, with
// per-project websocket channels streaming the full annotation state to
// every connected viewer after each edit.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered loading (env > config.yaml > defaults)
//  2. Database: SQLite with the schema applied on startup
//  3. Blob storage: directory for uploaded file content
//  4. Live hub: per-project snapshot cache and fan-out engine
//  5. HTTP server: REST API plus websocket upgrade endpoint
//
// The hub and the HTTP server run under a suture supervisor tree and shut
// down gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/annotato/annotato/internal/api"
	"github.com/annotato/annotato/internal/auth"
	"github.com/annotato/annotato/internal/config"
	"github.com/annotato/annotato/internal/database"
	"github.com/annotato/annotato/internal/logging"
	"github.com/annotato/annotato/internal/storage"
	"github.com/annotato/annotato/internal/supervisor"
	"github.com/annotato/annotato/internal/supervisor/services"
	"github.com/annotato/annotato/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("db_path", cfg.Database.Path).
		Str("data_dir", cfg.Storage.DataDir).
		Msg("configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing database")
		}
	}()

	blobs, err := storage.NewBlobStore(cfg.Storage.DataDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize blob storage")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize token signing")
	}

	registry := websocket.NewRegistry()
	hub := websocket.NewHub(
		registry,
		database.NewAnnotationStore(db),
		cfg.Websocket.SignalBuffer,
		cfg.Websocket.FetchTimeout,
	)

	handler := api.NewHandler(cfg, db, blobs, jwtManager, hub)
	authMiddleware := auth.NewMiddleware(jwtManager, database.NewUserStore(db))
	router := api.NewRouter(handler, authMiddleware)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	treeConfig := supervisor.DefaultTreeConfig()
	treeConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeConfig)

	tree.AddLiveService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	// Drain until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop within timeout")
		}
	}

	logging.Info().Msg("server stopped gracefully")
}
