package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/replypilot/replypilot/internal/biz/usecase"
	"github.com/replypilot/replypilot/internal/conf"
	"github.com/replypilot/replypilot/internal/data"
	"github.com/replypilot/replypilot/internal/server"
	"github.com/replypilot/replypilot/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := conf.LoadFromEnv()
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	repos, err := data.NewRepositories(
		config.Platform.BaseURL,
		config.Platform.Token,
		config.Platform.PostTimeout,
		config.Ledger.DBPath,
		config.RulesPath,
	)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Ledger.Close()

	rules, err := repos.Rules.Load()
	if err != nil {
		log.Fatalf("Failed to load rules: %v", err)
	}

	queue := service.NewDispatchQueue(config.Dispatch.QueueCapacity)
	backoff := usecase.NewBackoff(config.Dispatch.BackoffInitial, config.Dispatch.BackoffMax)
	dispatchUC := usecase.NewDispatchUsecase(repos.Ledger, repos.Poster, backoff, config.Dispatch.MaxAttempts)
	ingestUC := usecase.NewIngestUsecase(repos.Ledger, rules, queue)

	dispatcher := service.NewDispatcher(queue, dispatchUC, config.Dispatch.PostsPerMinute, config.Dispatch.Interval)
	dispatcher.Start(context.Background())

	srv := server.NewServer(ingestUC, repos.Ledger, config.Webhook.Secret, config.Webhook.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		_ = srv.Stop()
		dispatcher.Stop()
		repos.Ledger.Close()
		os.Exit(0)
	}()

	fmt.Println("Starting ReplyPilot...")
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
