// Package main 会话助手 API 服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kaushal-ai-api/internal/application/engine"
	"kaushal-ai-api/internal/config"
	"kaushal-ai-api/internal/infrastructure/linkedin"
	"kaushal-ai-api/internal/infrastructure/llm"
	"kaushal-ai-api/internal/infrastructure/messaging"
	"kaushal-ai-api/internal/infrastructure/persistence/postgres"
	"kaushal-ai-api/internal/infrastructure/persistence/redis"
	"kaushal-ai-api/internal/interfaces/http/handler"
	"kaushal-ai-api/internal/interfaces/http/middleware"
	"kaushal-ai-api/internal/interfaces/http/router"
	"kaushal-ai-api/internal/workflow/chain"
	"kaushal-ai-api/pkg/logger"
	"kaushal-ai-api/pkg/tracer"
	"kaushal-ai-api/pkg/utils"

	"github.com/joho/godotenv"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting bot-api",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 基础设施
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	if cfg.Features.AutoMigrate {
		if err := pgClient.AutoMigrate(); err != nil {
			logger.Fatal(ctx, "failed to run migrations", err)
		}
	}

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	userRepo := postgres.NewUserRepository(pgClient)
	postRepo := postgres.NewPostRepository(pgClient)

	producer := messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))

	// 生成链
	factory := llm.NewEinoFactory(cfg)
	createChain := chain.NewCreatePostChain(factory)
	optimizeChain := chain.NewOptimizePostChain(factory)
	refineChain := chain.NewRefinePostChain(factory)
	tipsChain := chain.NewTipsChain(factory)
	suggestionsChain := chain.NewSuggestionsChain(factory)

	provider := cfg.LLM.DefaultProvider
	genTimeout := cfg.LLM.RequestTimeout

	// 编排引擎
	sessionStore := redis.NewSessionStore(redisClient, cfg.Engine.SessionTTL)
	store := engine.NewStore(sessionStore)
	dispatcher := engine.NewDispatcher(cfg.Engine.QueueBuffer, cfg.Engine.QueueIdleTimeout)
	defer dispatcher.Close()

	orchestrator := engine.NewOrchestrator(engine.OrchestratorConfig{
		Store:          store,
		Classifier:     engine.NewClassifier(engine.RulesFromConfig(cfg.Engine.Rules)),
		Dispatcher:     dispatcher,
		CreateWorker:   engine.NewCreateWorker(createChain, optimizeChain, provider, genTimeout),
		OptimizeWorker: engine.NewOptimizeWorker(optimizeChain, provider, genTimeout),
		RefineWorker:   engine.NewRefineWorker(refineChain, provider, genTimeout),
		TipsWorker:     engine.NewTipsWorker(tipsChain, provider, genTimeout),
		Users:          userRepo,
		Posts:          postRepo,
		Producer:       producer,
		Features:       cfg.Features,
	})

	suggestionsSvc := engine.NewSuggestionsService(suggestionsChain, store, redis.NewCache(redisClient), provider, genTimeout)

	// OAuth
	oauthClient := linkedin.NewOAuthClient(&cfg.LinkedIn)
	states := utils.NewStateTokenManager(cfg.LinkedIn.StateSecret, cfg.App.Name)

	// HTTP 层
	handlers := router.Handlers{
		Health:      handler.NewHealthHandler(pgClient, redisClient),
		Message:     handler.NewMessageHandler(orchestrator, userRepo),
		Draft:       handler.NewDraftHandler(postRepo),
		Auth:        handler.NewAuthHandler(oauthClient, states, userRepo, &cfg.LinkedIn),
		Suggestions: handler.NewSuggestionsHandler(suggestionsSvc, cfg.Features.Suggestions),
	}
	limiter := middleware.RateLimit(cfg.Security.RateLimit, redis.NewRateLimiter(redisClient))

	r := router.New(cfg, handlers, limiter)

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
