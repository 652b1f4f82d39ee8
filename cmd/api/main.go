package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alfredoptarigan/career-hub/internal/config"
	"alfredoptarigan/career-hub/internal/handlers"
	"alfredoptarigan/career-hub/internal/logger"
	"alfredoptarigan/career-hub/internal/metrics"
	"alfredoptarigan/career-hub/internal/repositories"
	"alfredoptarigan/career-hub/internal/services"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	appLog := logger.NewStructured(cfg.Log.Level, cfg.Log.Format)
	defer appLog.Sync()

	db, err := config.InitDatabase(cfg, appLog)
	if err != nil {
		appLog.WithError(err).Error("failed to initialize database", nil)
		os.Exit(1)
	}

	analysisRepo := repositories.NewAnalysisRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		appLog.WithError(err).Error("failed to create upload directory", nil)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	ctx := context.Background()
	geminiClient, err := services.NewGeminiClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		appLog.WithError(err).Error("failed to initialize gemini", nil)
		os.Exit(1)
	}

	policy, err := services.ParseFallbackPolicy(cfg.Analysis.FallbackPolicy)
	if err != nil {
		appLog.WithError(err).Error("invalid fallback policy", nil)
		os.Exit(1)
	}

	backends := services.NewGeminiBackends(geminiClient, cfg.Gemini.Models, services.GeminiOptions{
		Temperature:     cfg.Gemini.Temperature,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	})
	analysisClient := services.NewAnalysisClient(backends, policy, appLog, appMetrics)

	ocrEngine := services.NewOCREngine(services.OCRConfig{
		Rasterizer:  cfg.OCR.RasterizerPath,
		Tesseract:   cfg.OCR.TesseractPath,
		ScratchDir:  cfg.OCR.ScratchDir,
		DPI:         cfg.OCR.DPI,
		OEM:         cfg.OCR.OEM,
		Concurrency: cfg.OCR.Concurrency,
	}, services.NewExecRunner(appLog), appLog, appMetrics)

	pipeline := services.NewAnalysisPipeline(
		services.NewTextExtractor(ocrEngine, appLog, appMetrics),
		services.NewQualityGate(cfg.Analysis.MinTextLength),
		services.NewPromptBuilder(cfg.Analysis.MaxInputChars),
		analysisClient,
		services.NewResponseNormalizer(),
		appLog,
		appMetrics,
	)

	appLog.Info("services initialized", map[string]interface{}{
		"models":          cfg.Gemini.Models,
		"fallback_policy": string(policy),
		"ocr_concurrency": cfg.OCR.Concurrency,
	})

	analysisHandler := handlers.NewAnalysisHandler(pipeline, storageService, analysisRepo, cfg.Storage.MaxFileSize, appLog)
	historyHandler := handlers.NewHistoryHandler(analysisRepo, cfg.Analysis.HistoryLimit)
	chatHandler := handlers.NewChatHandler(pipeline)

	app := fiber.New(fiber.Config{
		AppName:      "Career Hub API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		// Room for the job description and multipart framing next to the file.
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: handlers.NewErrorHandler(appLog, cfg.IsDevelopment()),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + handlers.UserIDHeader,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	user := api.Group("", handlers.RequireUser)
	user.Post("/check-resume", analysisHandler.HandleCheckResume)
	user.Post("/linkedin-analyze", analysisHandler.HandleLinkedInAnalyze)
	user.Get("/resume-analyses", historyHandler.HandleResumeAnalyses)
	user.Get("/linkedin-analyses", historyHandler.HandleLinkedInAnalyses)
	user.Post("/chat", chatHandler.HandleChat)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		appLog.Info("shutting down server", nil)
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			appLog.WithError(err).Error("server forced to shutdown", nil)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	appLog.Info("server starting", map[string]interface{}{"addr": addr, "env": cfg.Server.Env})

	if err := app.Listen(addr); err != nil {
		appLog.WithError(err).Error("failed to start server", nil)
		os.Exit(1)
	}
}
