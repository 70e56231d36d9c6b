package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"serenify/client"
	"serenify/config"
	"serenify/handlers"
	"serenify/services"
	"serenify/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	// Local single-device storage; concurrent processes are not coordinated.
	db, err := badger.Open(badger.DefaultOptions(cfg.DataDir).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	conversationStore := store.NewConversationStore(db, log)

	geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, log)
	if err != nil {
		return err
	}

	// The streaming client talks to the completion endpoint over HTTP, the
	// same boundary a browser client would use.
	endpoint := fmt.Sprintf("http://127.0.0.1:%d/api/chat", cfg.Port)
	streamer := client.NewStreamingClient(endpoint, conversationStore, log)

	chatHandler := handlers.NewChatHandler(conversationStore, geminiService, streamer, log)
	router := handlers.NewRouter(chatHandler)

	log.Info("Starting server", "addr", cfg.Addr())
	if err := router.Run(cfg.Addr()); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
