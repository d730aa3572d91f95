package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizgen-backend/internal/config"
	"quizgen-backend/internal/database"
	"quizgen-backend/internal/handlers"
	"quizgen-backend/internal/middleware"
	"quizgen-backend/internal/quiz"
	"quizgen-backend/internal/router"
	"quizgen-backend/internal/services"
	"quizgen-backend/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	config.InitLogger(cfg)
	log := config.Logger
	log.Info("Starting Quiz Generator backend...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Optional Redis for event fan-out ────
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("Redis connected, session events fan out via pub/sub")
	}

	// ──── Step 3: Initialize Gemini Client ────
	gemini := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.QuestionCount)
	defer gemini.Close()
	if err := gemini.Ready(); err != nil {
		log.Warnf("Gemini unavailable, question generation will fail: %v", err)
	} else {
		log.Infof("Gemini client initialized (model %s)", cfg.GeminiModel)
	}

	// ──── Step 4: Session Controller & WebSocket Hub ────
	wsHub := websocket.NewHub(redisClient)
	controller := quiz.NewController(gemini, wsHub)
	wsHub.SetSnapshot(controller.Snapshot)
	go wsHub.Run(ctx)

	// ──── Step 5: Start HTTP Server ────
	generateLimiter := middleware.NewRateLimiter(cfg.GenerateRequestsPerMin, time.Minute)
	defer generateLimiter.Stop()

	r := router.New(
		handlers.NewSessionHandler(controller),
		generateLimiter,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}()

	log.Infof("Quiz backend ready on http://localhost:%s", cfg.Port)
	log.Infof("  API: http://localhost:%s/api/v1/session", cfg.Port)
	log.Infof("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf("Server error: %v", err)
		os.Exit(1)
	}
}
