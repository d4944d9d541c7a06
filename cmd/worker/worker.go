package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"talent-match-platform/internal/ai"
	"talent-match-platform/internal/config"
	"talent-match-platform/internal/logger"
	"talent-match-platform/internal/queue"
	"talent-match-platform/internal/telemetry"
	"talent-match-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

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

	// Connect to Redis for the embedding cache
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

	redisOpt := asynqRedisOpt(cfg)

	// Client for the resume-embed handler to fan out match runs
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 20,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(docs, jobVectors, resumeVectors, pipeline, engine, asynqClient)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskEmbedJob, processor.EmbedJob)
	mux.HandleFunc(queue.TaskEmbedResume, processor.EmbedResume)
	mux.HandleFunc(queue.TaskMatchJob, processor.MatchJob)

	logger.Info("Starting worker",
		"concurrency", 20,
		"queues", "critical(6) default(3) low(1)")

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
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
