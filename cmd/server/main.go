package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"converza-backend/internal/config"
	"converza-backend/internal/handlers"
	"converza-backend/internal/router"
	"converza-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting Converza Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Gemini Relay ────
	relay, err := services.NewRelayService(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.CompanyName)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer relay.Close()
	if cfg.GeminiAPIKey == "" {
		log.Println("⚠ GEMINI_API_KEY not set; chat requests will answer with a configuration error")
	} else {
		log.Printf("✓ Gemini relay initialized (%s)", cfg.GeminiModel)
	}

	// ──── Step 3: Initialize Handlers & Router ────
	chatHandler := handlers.NewChatHandler(relay)
	r := router.New(chatHandler, cfg.FrontendURL, cfg.ChatRateLimit)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Converza Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  Widget: http://localhost:%s/", cfg.Port)
	log.Printf("  API:    http://localhost:%s/api/chat", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
