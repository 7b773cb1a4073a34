package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Back-Nine-Social-Club/fairway-bot/app"
	"github.com/Back-Nine-Social-Club/fairway-bot/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
		<-interrupt
		cancel()
	}()

	if err := application.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("Application run ended: %v", err)
	}

	if err := application.Close(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
