package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/cache"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/config"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/database"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/router"
	"github.com/connectgadgetindonesia/sistem-connect-ind-sub000/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := database.New(pool)

	// Report cache is optional: without Redis the summaries are just
	// recomputed per request.
	var reportCache cache.ReportCache = cache.NoopReportCache{}
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, 0)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("WARN: redis unreachable, report caching disabled: %v", err)
		} else {
			log.Println("Connected to redis")
			reportCache = redisCache
			defer redisCache.Close()
		}
	}

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, queries, pool, hub, reportCache)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
