package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agri-advisor-backend/internal/config"
	"agri-advisor-backend/internal/database"
	"agri-advisor-backend/internal/handlers"
	"agri-advisor-backend/internal/logger"
	"agri-advisor-backend/internal/middleware"
	"agri-advisor-backend/internal/repository"
	"agri-advisor-backend/internal/router"
	"agri-advisor-backend/internal/services"
	"agri-advisor-backend/internal/simulation"
	"agri-advisor-backend/internal/websocket"
	"agri-advisor-backend/internal/worker"
)

func main() {
	// ──── Step 1: Configuration & logging ────
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	logger.InfoWithFields("starting agri-advisor backend", logger.Fields{
		"env":          cfg.Env,
		"chat_backend": cfg.ChatBackend,
	})

	ctx := context.Background()

	// ──── Step 2: PostgreSQL ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("postgres connection failed", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, "migrations"); err != nil {
		fatal("database migration failed", err)
	}

	// ──── Step 3: Redis ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		fatal("redis connection failed", err)
	}
	defer redisClients.Close()

	// ──── Step 4: Chat generator ────
	generator, closeGenerator, err := services.NewGenerator(ctx, cfg)
	if err != nil {
		fatal("chat generator initialization failed", err)
	}
	defer closeGenerator()

	// ──── Repositories & simulations ────
	userRepo := repository.NewUserRepo(pool)
	activityRepo := repository.NewActivityRepo(pool)
	contactRepo := repository.NewContactRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	rng := simulation.NewTimeSeededRand()
	weather := simulation.NewWeather(rng)
	market := simulation.NewMarket(rng)
	fertilizer := simulation.NewFertilizer()
	detector := simulation.NewDiseaseScanner()

	// ──── Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	sessions := services.NewRedisSessionStore(redisClients.Queue)
	authService := services.NewAuthService(userRepo, sessions, jwtAuth)
	chatRelay := services.NewChatRelay(generator, services.ChatOptions{
		Timeout:       cfg.ChatTimeout,
		HistoryWindow: cfg.ChatHistoryWindow,
		MaxConcurrent: cfg.GeminiConcurrentReqs,
	})
	activityService := services.NewActivityService(activityRepo)
	dashboardService := services.NewDashboardService(userRepo, weather, market, activityRepo)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SupportEmail)
	contactService := services.NewContactService(contactRepo, emailService)
	diseaseService := services.NewDiseaseService(jobRepo, redisClients.Queue, cfg.StoragePath, cfg.MaxUploadBytes)

	// ──── Step 5: Background work ────
	workerPool := worker.NewPool(redisClients.Queue, jobRepo, detector, activityService, cfg.StoragePath, cfg.WorkerCount)
	workerPool.Start()

	ticker := services.NewMarketTicker(market, redisClients.PubSub, cfg.MarketTickInterval)
	ticker.Start()

	hubCtx, stopHub := context.WithCancel(ctx)
	wsHub := websocket.NewHub(websocket.NewRedisSource(redisClients.PubSub), jwtAuth)
	go wsHub.Run(hubCtx)

	// ──── Step 6: HTTP server ────
	r, closeLimiters := router.New(jwtAuth, router.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		User:    handlers.NewUserHandler(authService),
		Chat:    handlers.NewChatHandler(chatRelay),
		Farm:    handlers.NewFarmHandler(weather, market, fertilizer, activityService),
		Disease: handlers.NewDiseaseHandler(diseaseService),
		Reports: handlers.NewReportsHandler(activityService, dashboardService),
		Contact: handlers.NewContactHandler(contactService),
		Hub:     wsHub,
	}, router.Options{
		FrontendURL:        cfg.FrontendURL,
		ChatRequestsPerMin: cfg.ChatRequestsPerMin,
	})
	defer closeLimiters()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
		// The chat relay may wait up to ChatTimeout on the model.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ChatTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.ErrorWithFields("http shutdown failed", logger.Fields{"error": err.Error()})
		}

		stopHub()
		wsHub.Close()
		ticker.Stop()
		workerPool.Stop()
	}()

	logger.InfoWithFields("agri-advisor backend ready", logger.Fields{
		"addr": server.Addr,
		"chat": fmt.Sprintf("http://localhost:%s/api/chat", cfg.Port),
		"ws":   fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port),
	})

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		fatal("server error", err)
	}
	<-shutdownDone
}

func fatal(msg string, err error) {
	logger.ErrorWithFields(msg, logger.Fields{"error": err.Error()})
	os.Exit(1)
}
