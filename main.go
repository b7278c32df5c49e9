package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghostwire/internal/config"
	"ghostwire/internal/relay"
	"ghostwire/internal/web"

	"golang.org/x/sync/errgroup"
)

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	registry := relay.NewRegistry(cfg.QueueSize)
	broadcaster := relay.NewBroadcaster(registry)
	relayServer := relay.NewServer(registry, broadcaster, cfg.PingInterval)

	webServer := web.NewServer(relayServer, cfg.Addr)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return webServer.Start()
	})

	// Wait for context cancellation (signal)
	g.Go(func() error {
		<-gCtx.Done()
		log.Println("Shutting down relay...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := webServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Relay shutdown error: %v", err)
		}
		return nil
	})

	return g.Wait()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Application error: %v", err)
	}
}
