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

	"prepboard-backend/internal/config"
	"prepboard-backend/internal/database"
	"prepboard-backend/internal/handlers"
	"prepboard-backend/internal/middleware"
	"prepboard-backend/internal/repository"
	"prepboard-backend/internal/router"
	"prepboard-backend/internal/services"
	"prepboard-backend/internal/stats"
	"prepboard-backend/internal/websocket"
	"prepboard-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Prepboard Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	attemptRepo := repository.NewAttemptRepo(pool)
	catalogRepo := repository.NewCatalogRepo(pool)

	// ──── Load Subject Catalog ────
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	catalog, err := catalogRepo.ListAll(ctx)
	cancel()
	if err != nil {
		log.Fatalf("✗ Subject catalog load failed: %v", err)
	}
	log.Printf("✓ Subject catalog loaded (%d subjects, %d questions)", len(catalog), catalog.TotalQuestions())

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth)
	planResolver := services.NewPlanResolver(userRepo, stats.PlanConfig{
		ExamDate:     cfg.ExamDate,
		TargetDate:   cfg.TargetCompletionDate,
		HeatmapStart: cfg.HeatmapStart,
		HeatmapEnd:   cfg.HeatmapEnd,
	})

	// ──── Initialize Stats Store ────
	statsStore := stats.NewStore(attemptRepo, planResolver, catalog, redisClients.Queue)

	// ──── Initialize Handlers ────
	// appCtx bounds background work spawned by handlers; it is cancelled on
	// shutdown.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	authHandler := handlers.NewAuthHandler(authService)
	attemptHandler := handlers.NewAttemptHandler(attemptRepo, redisClients.Queue)
	statsHandler := handlers.NewStatsHandler(appCtx, statsStore, catalog)
	userHandler := handlers.NewUserHandler(userRepo, redisClients.Queue)

	// ──── Step 5: Start Stats Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, statsStore, cfg.StatsWorkers)
	workerPool.Start()
	log.Printf("✓ Stats worker pool started (%d goroutines)", cfg.StatsWorkers)

	reminderScheduler := services.NewReminderScheduler(userRepo, attemptRepo, planResolver, catalog, emailService)
	reminderScheduler.Start()
	log.Println("✓ Reminder scheduler started")

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		attemptHandler,
		statsHandler,
		userHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		appCancel()
		workerPool.Stop()
		reminderScheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Prepboard Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
