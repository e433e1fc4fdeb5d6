package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"staymap/internal/adapters/catalog"
	"staymap/internal/adapters/observability"
	redisad "staymap/internal/adapters/redis"
	"staymap/internal/app"
	"staymap/internal/shared"
	mysqlrepo "staymap/internal/storage/mysql"
)

func main() {
	listingID := flag.String("listing", "", "ingest a single listing by id instead of the whole catalog")
	flag.Parse()

	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("base", cfg.CatalogBase).
		Int("workers", cfg.Workers).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	client, err := catalog.New(cfg.CatalogBase, cfg.CatalogKey, cfg.UpstreamRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize catalog client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	ing := app.NewIngestionService(client, repo, cache)

	if *listingID != "" {
		raw, err := client.GetListing(ctx, *listingID)
		if err != nil {
			log.Fatal().Err(err).Str("id", *listingID).Msg("fetch listing failed")
		}
		id, err := ing.IngestListing(ctx, raw)
		if err != nil {
			log.Fatal().Err(err).Str("id", id).Msg("ingest failed")
		}
		ing.InvalidateCandidates(ctx)
		log.Info().Str("id", id).Msg("ingest ok")
		return
	}

	start := time.Now()
	stats, err := ing.Run(ctx, cfg.Workers)
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Int("pages", stats.Pages).
		Int64("upserted", stats.Upserted).
		Int64("failed", stats.Failed).
		Dur("took", time.Since(start)).
		Msg("ingestion completed")
	if err != nil {
		os.Exit(1)
	}
}
