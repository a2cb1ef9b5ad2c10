package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fitgrid/studio-reservation/internal/config"
	"github.com/fitgrid/studio-reservation/internal/database"
	"github.com/fitgrid/studio-reservation/internal/engine"
	"github.com/fitgrid/studio-reservation/internal/handler"
	"github.com/fitgrid/studio-reservation/internal/queue"
	"github.com/fitgrid/studio-reservation/internal/router"
	queue_publisher "github.com/fitgrid/studio-reservation/internal/service"
	"github.com/fitgrid/studio-reservation/internal/worker"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	eng := engine.New(db, time.Duration(cfg.HoldTTLMin)*time.Minute)
	eng.SetPublisher(func(ctx context.Context, ev queue.OccurrenceCancelledEvent) {
		if err := queue_publisher.PublishOccurrenceCancelled(ctx, ev); err != nil {
			log.Printf("publish cancellation event: %v", err)
		}
	})

	// Background consumer logging cancellation events.
	go func() {
		if err := queue.StartCancellationConsumer(); err != nil {
			log.Printf("cancellation consumer stopped: %v", err)
		}
	}()

	// Periodic expiry sweep.
	go func() {
		if err := worker.StartSweeper(cfg.RedisAddr, eng); err != nil {
			log.Printf("sweeper stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient() // nil disables cache and rate limiting

	e := echo.New()
	h := handler.New(eng)
	router.RegisterRoutes(e)
	router.RegisterAPI(e, h, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
