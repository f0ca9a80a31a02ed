package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chat-relay/ai"
	"chat-relay/broadcast"
	"chat-relay/contract"
	"chat-relay/internal/httpapi"
	"chat-relay/moderation"
	"chat-relay/presence"
	"chat-relay/quota"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB, in memory: room history is process-lifetime state)
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Core components
	registry := presence.NewRegistry()
	history := repositories.NewHistoryRepository(db, log)
	limiter := quota.NewLimiter()

	moderator, err := moderation.NewModeratorFromEmbedded()
	if err != nil {
		return fmt.Errorf("building moderator: %w", err)
	}

	responder := ai.NewResponder(log, ai.Config{
		Provider:          config.AIProvider,
		Model:             config.AIModel,
		OpenAIKey:         config.OpenAIAPIKey,
		OpenRouterKey:     config.OpenRouterAPIKey,
		OpenRouterBaseURL: config.OpenRouterBaseURL,
	})
	log.Info("AI responder ready", "provider", config.AIProvider, "configured", responder.Configured())

	// 4. Broadcast gateway, selected by configuration. The coordinator
	// never knows which strategy is active.
	relayCfg := broadcast.RelayConfig{
		AppID:   config.PusherAppID,
		Key:     config.PusherKey,
		Secret:  config.PusherSecret,
		Cluster: config.PusherCluster,
	}
	var gateway contract.Gateway
	var direct *broadcast.DirectGateway
	switch strings.ToLower(config.BroadcastMode) {
	case "relay":
		gateway = broadcast.NewRelayGateway(log, relayCfg)
	case "direct":
		direct = broadcast.NewDirectGateway(log)
		gateway = direct
	default:
		return fmt.Errorf("unknown BROADCAST_MODE %q (want direct or relay)", config.BroadcastMode)
	}
	log.Info("Broadcast gateway selected", "mode", config.BroadcastMode)

	coordinator := runtime.NewCoordinator(log, registry, history, limiter, gateway, moderator, responder)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Background workers under supervision
	sup := runtime.NewSupervisor(log)
	sup.Add(quota.NewSweepWorker(limiter, config.QuotaSweepInterval, log))
	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 7. HTTP server
	server := httpapi.NewServer(log, coordinator, direct, relayCfg)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:              address,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}
