package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Vishnulak/PRELEX-GENAI/analysis"
	"github.com/Vishnulak/PRELEX-GENAI/config"
	"github.com/Vishnulak/PRELEX-GENAI/handler"
	"github.com/Vishnulak/PRELEX-GENAI/middleware"
	"github.com/Vishnulak/PRELEX-GENAI/pkg/logger"
	"github.com/Vishnulak/PRELEX-GENAI/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	slog.Info("configuration loaded", "path", configPath)

	ctx := context.Background()
	var features handler.Features

	// Generative backend; the rule engine covers everything when it is absent.
	var gen analysis.Generator
	if geminiSvc, err := service.NewGeminiService(ctx, &cfg.Gemini, nil); err != nil {
		slog.Warn("generative backend unavailable, using rule-based analysis", "error", err)
	} else {
		gen = geminiSvc
		features.Generative = true
		slog.Info("generative backend ready", "backend", cfg.Gemini.Backend, "model", geminiSvc.Model())
	}

	// Archive and remote extraction are optional and MinerU needs the archive.
	var archive handler.DocumentArchive
	if cfg.Minio.Enabled {
		if minioSvc, err := newArchive(ctx, &cfg.Minio); err != nil {
			slog.Warn("document archive disabled", "error", err)
		} else {
			archive = minioSvc
			features.Archive = true
		}
	}

	var remote service.TextExtractor
	if cfg.Mineru.Enabled {
		if archive == nil {
			slog.Warn("mineru extraction needs the document archive, using local extraction")
		} else {
			remote = service.NewMineruService(&cfg.Mineru)
			features.RemoteExtraction = true
		}
	}

	pipeline := analysis.NewPipeline(gen, analysis.DefaultCatalog())
	store := service.NewAnalysisStore(&cfg.Store)

	authHandler := handler.NewAuthHandler(cfg)
	analysisHandler := handler.NewAnalysisHandler(
		pipeline,
		service.NewDocumentExtractor(remote, cfg.Mineru.Timeout(), cfg.Limits.MaxDocumentChars),
		store,
		archive,
		cfg.Limits,
	)
	systemHandler := handler.NewSystemHandler(cfg, pipeline.Catalog(), features)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = cfg.Limits.MaxUploadBytes()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())
	router.Use(middleware.NoStore())
	router.Use(middleware.RateLimit(cfg.Limits.RateLimitPerMinute, time.Minute))

	router.GET("/", systemHandler.Root)
	router.GET("/health", systemHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	analyzeAuth := middleware.OptionalAuth(&cfg.Auth)
	if cfg.Auth.RequireForAnalyze {
		analyzeAuth = middleware.AuthMiddleware(&cfg.Auth)
	}
	router.POST("/analyze-document", analyzeAuth, analysisHandler.AnalyzeDocument)

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.GET("/analyses", analysisHandler.List)
		protected.GET("/analyses/:id", analysisHandler.Get)
		protected.DELETE("/analyses/:id", analysisHandler.Delete)
	}

	// Analysis may run for the full analyze timeout after the upload is read.
	writeTimeout := cfg.Limits.AnalyzeTimeout() + 30*time.Second
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting",
			"port", cfg.Server.Port,
			"generative", features.Generative,
			"archive", features.Archive,
			"remote_extraction", features.RemoteExtraction,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

func newArchive(ctx context.Context, cfg *config.MinioConfig) (*service.MinioService, error) {
	svc, err := service.NewMinioService(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := svc.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}
