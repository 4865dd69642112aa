package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gryork-engineers/grybot/internal/adapter/ai"
	"github.com/gryork-engineers/grybot/internal/adapter/index"
	"github.com/gryork-engineers/grybot/internal/adapter/store"
	"github.com/gryork-engineers/grybot/internal/handler"
	"github.com/gryork-engineers/grybot/internal/port"
	"github.com/gryork-engineers/grybot/internal/service"
	"github.com/gryork-engineers/grybot/pkg/config"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting GryBOT",
		"port", cfg.Port,
		"knowledge_dir", cfg.KnowledgeDir,
		"chat_model", cfg.GeminiChatModel,
		"embed_model", cfg.GeminiEmbedModel,
		"fallback_embed", cfg.OllamaEmbedModel,
	)

	// ── Chat history ─────────────────────────────────────────────────────
	historyStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open chat database", "error", err)
		os.Exit(1)
	}
	defer historyStore.Close()

	// ── AI providers ─────────────────────────────────────────────────────
	geminiFactory := ai.NewGeminiFactory(ai.GeminiConfig{
		BaseURL:     cfg.GeminiBaseURL,
		ChatModel:   cfg.GeminiChatModel,
		EmbedModel:  cfg.GeminiEmbedModel,
		Temperature: cfg.Temperature,
	})
	ollamaEmbedder := ai.NewOllamaEmbedder(cfg.OllamaBaseURL, cfg.OllamaEmbedModel)
	embedCache := ai.NewEmbeddingCache(cfg.EmbedCacheSize)

	// ── Document index ───────────────────────────────────────────────────
	// Built or loaded once here and passed by reference; never package state.
	// The build uses the default credential when one is configured, else the
	// local fallback embedder.
	var bootPrimary port.Embedder
	if cfg.GeminiAPIKey != "" {
		bootPrimary = geminiFactory.Embedder(cfg.GeminiAPIKey)
	}
	bootEmbedder := ai.NewFallbackEmbedder(bootPrimary, ollamaEmbedder, embedCache)

	buildCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	idx, err := index.BuildOrLoad(buildCtx, cfg.KnowledgeDir, cfg.IndexPath, bootEmbedder)
	cancel()
	if err != nil {
		slog.Error("failed to build document index", "error", err)
		os.Exit(1)
	}

	// ── Services ─────────────────────────────────────────────────────────
	smallTalk := service.NewSmallTalk()
	engine := service.NewChatService(
		smallTalk, historyStore, geminiFactory, ollamaEmbedder, embedCache, idx,
		cfg.HistoryWindow, cfg.RetrievalTopK,
	)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", handler.CredentialHeader},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	// ── Routes ───────────────────────────────────────────────────────────
	chatHandler := handler.NewChatHandler(engine, historyStore, cfg.GeminiAPIKey)
	chatHandler.Register(app)

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"app":    cfg.AppName,
			"chunks": idx.Len(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
