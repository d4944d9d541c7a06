package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"talent-match-platform/internal/ai"
	"talent-match-platform/internal/config"
	"talent-match-platform/internal/logger"
	"talent-match-platform/internal/queue"
	"talent-match-platform/internal/telemetry"
	"talent-match-platform/middleware"
	"talent-match-platform/routes"
	"talent-match-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("talent-match-platform", cfg.OTLPEndpoint, cfg.TraceSampleRatio)
		if err != nil {
			log.Fatal("Failed to initialize tracer:", err)
		}
		defer shutdown()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	// Connect to Redis
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Embedding provider behind its circuit breaker
	embedder, err := ai.NewEmbedder(cfg, metrics)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer embedder.Close()

	// Stores and the matching pipeline
	docs := services.NewDocumentStore(db, cfg.CompressionThreshold)
	jobVectors := services.NewVectorStore(docs.JobCollection())
	resumeVectors := services.NewVectorStore(docs.ResumeCollection())
	matches := services.NewMatchStore(db, metrics)

	cache := services.NewRedisVectorCache(rdb)
	pipeline := services.NewEmbeddingPipeline(
		cache, embedder, cfg.MaxTextLength,
		time.Duration(cfg.EmbeddingCacheTTL)*time.Second, metrics)

	policy, err := services.NewScorePolicy(cfg.SimilarityWeight, cfg.SkillWeight)
	if err != nil {
		log.Fatal("Invalid score weights:", err)
	}

	engineOpts := services.EngineOptions{Concurrency: cfg.MatchConcurrency, Metrics: metrics}
	if cfg.ExplanationLLMEnabled {
		enhancer, err := ai.NewEnhancer(cfg)
		if err != nil {
			log.Fatal("Failed to initialize explanation enhancer:", err)
		}
		defer enhancer.Close()
		engineOpts.Enhancer = enhancer
	}

	engine := services.NewMatchingEngine(
		docs, jobVectors, resumeVectors, matches,
		pipeline, services.NewSkillExtractor(), policy, engineOpts)

	// Asynq client for enqueueing background work
	asynqClient := asynq.NewClient(asynqRedisOpt(cfg))
	defer asynqClient.Close()

	// Backfill sweep for documents that missed embedding
	backfill := services.NewBackfillScheduler(docs, asynqClient, services.EmbedTaskFactory{
		NewJobTask:    queue.NewEmbedJobTask,
		NewResumeTask: queue.NewEmbedResumeTask,
	}, time.Duration(cfg.BackfillIntervalMinutes)*time.Minute)
	if err := backfill.Start(); err != nil {
		log.Fatal("Failed to start backfill scheduler:", err)
	}
	defer backfill.Stop()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	router.Use(middleware.MetricsMiddleware(metrics))
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupIngestRoutes(router, docs, asynqClient)
	routes.SetupMatchRoutes(router, matches, engine, embedder, asynqClient)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}

func asynqRedisOpt(cfg *config.Config) asynq.RedisConnOpt {
	if strings.HasPrefix(cfg.RedisURL, "redis://") || strings.HasPrefix(cfg.RedisURL, "rediss://") {
		if opt, err := asynq.ParseRedisURI(cfg.RedisURL); err == nil {
			return opt
		}
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}
