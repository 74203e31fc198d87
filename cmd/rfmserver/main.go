// Package main runs the RFM segmentation HTTP server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/matrizrfm/rfm-engine/internal/app"
	"github.com/matrizrfm/rfm-engine/internal/app/httpapi"
	"github.com/matrizrfm/rfm-engine/internal/app/storage/postgres"
	"github.com/matrizrfm/rfm-engine/internal/config"
	"github.com/matrizrfm/rfm-engine/pkg/logger"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	configPath := flag.String("config", "", "Path to scoring/segment configuration YAML")
	storeKind := flag.String("store", "memory", "Storage backend: memory or postgres")
	dsn := flag.String("dsn", "", "PostgreSQL connection string (store=postgres)")
	envFile := flag.String("env", "", "Optional .env file to load")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("load env (%s): %v", *envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	// Environment variable overrides
	if v := os.Getenv("RFM_ADDR"); v != "" {
		*addr = v
	}
	if v := os.Getenv("RFM_CONFIG"); v != "" {
		*configPath = v
	}
	if v := os.Getenv("RFM_STORE"); v != "" {
		*storeKind = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		*dsn = v
	}

	logg := logger.NewDefault("rfmserver")

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadFromPath(*configPath)
		if err != nil {
			logg.WithError(err).Error("load configuration failed")
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}

	stores := app.Stores{}
	switch *storeKind {
	case "memory":
		// Defaults inside app.New.
	case "postgres":
		if *dsn == "" {
			logg.Error("store=postgres requires -dsn or DATABASE_URL")
			os.Exit(1)
		}
		db, err := sql.Open("postgres", *dsn)
		if err != nil {
			logg.WithError(err).Error("open database failed")
			os.Exit(1)
		}
		defer db.Close()

		pg := postgres.New(db)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			logg.WithError(err).Error("ensure schema failed")
			os.Exit(1)
		}
		stores.Analyses = pg
		stores.Segments = pg
	default:
		logg.Errorf("unknown store kind %q", *storeKind)
		os.Exit(1)
	}

	application, err := app.New(stores, logg)
	if err != nil {
		logg.WithError(err).Error("build application failed")
		os.Exit(1)
	}
	if err := application.Analyses.Configure(cfg.Scoring, cfg.RuleSet()); err != nil {
		logg.WithError(err).Error("invalid segmentation configuration")
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         *addr,
		Handler:      httpapi.NewHandler(application),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logg.Infof("listening on %s (store=%s)", *addr, *storeKind)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logg.WithError(err).Error("server error")
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.WithError(err).Warn("server shutdown failed")
	}
	application.Shutdown()
}
