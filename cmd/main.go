package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"leaderboard-service/internal/config"
	"leaderboard-service/internal/database/mongo"
	"leaderboard-service/internal/event"
	"leaderboard-service/internal/handlers"
	"leaderboard-service/internal/repository"
	"leaderboard-service/internal/services"
	"leaderboard-service/pkg/discovery"

	"github.com/gofiber/fiber/v3"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/evolvia", "log", "leaderboard_service")
	err := os.MkdirAll(logDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	cfg := config.ServiceConfig

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Leaderboard Service is healthy")
	})

	// Initialize repositories
	regionRepo := repository.NewRegionRepository(mongo.Mongo_Database)
	userRepo := repository.NewUserRepository(mongo.Mongo_Database)
	sessionRepo := repository.NewSessionRepository(mongo.Mongo_Database)
	leaderboardRepo := repository.NewLeaderboardRepository(mongo.Mongo_Database)
	cacheRepo := repository.NewCacheRepository()

	// Create database indexes
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := regionRepo.CreateIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create region indexes: %v", err)
	}
	if err := userRepo.CreateIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create user indexes: %v", err)
	}
	if err := sessionRepo.CreateIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create session indexes: %v", err)
	}
	if err := leaderboardRepo.CreateIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create leaderboard indexes: %v", err)
	}
	cancel()

	// Initialize event publisher
	eventPublisher, err := event.NewEventPublisher(cfg.RabbitMQ.URI)
	if err != nil {
		log.Printf("Warning: Failed to initialize event publisher: %v", err)
		eventPublisher, _ = event.NewEventPublisher("")
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, regionRepo)
	regionService := services.NewRegionService(regionRepo)
	activityService := services.NewActivityService(userRepo, eventPublisher)
	sessionService := services.NewSessionService(sessionRepo, regionRepo, activityService, eventPublisher)
	leaderboardService := services.NewLeaderboardService(leaderboardRepo, regionRepo, userRepo, sessionRepo, cacheRepo, eventPublisher)

	// Initialize event consumer
	eventConsumer, err := event.NewEventConsumer(cfg.RabbitMQ.URI, activityService)
	if err != nil {
		log.Printf("Warning: Failed to initialize event consumer: %v", err)
	} else {
		if err := eventConsumer.Start(); err != nil {
			log.Printf("Warning: Failed to start event consumer: %v", err)
			eventConsumer.Close()
			eventConsumer = nil
		} else {
			log.Println("Successfully started session event consumer")
		}
	}

	// Initialize and register handlers
	authHandler := handlers.NewAuthHandler(authService)
	authHandler.RegisterRoutes(app)
	regionHandler := handlers.NewRegionHandler(regionService)
	regionHandler.RegisterRoutes(app)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	sessionHandler.RegisterRoutes(app)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, activityService)
	leaderboardHandler.RegisterRoutes(app)

	// Register with service discovery
	if discovery.ServiceDiscovery != nil {
		if err := discovery.ServiceDiscovery.Register(); err != nil {
			log.Printf("Warning: Failed to register with service discovery: %v", err)
		}
	}

	shutdownChan := make(chan os.Signal, 1)
	doneChan := make(chan bool, 1)

	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := app.Listen(fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
		doneChan <- true
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	// Close event publisher
	if eventPublisher != nil {
		if err := eventPublisher.Close(); err != nil {
			log.Printf("Error closing event publisher: %v", err)
		}
	}

	// Disconnect from MongoDB
	mongo.DisconnectMongo()

	// Deregister from service discovery
	if discovery.ServiceDiscovery != nil {
		if err := discovery.ServiceDiscovery.Deregister(); err != nil {
			log.Printf("Error deregistering from service discovery: %v", err)
		}
	}

	if eventConsumer != nil {
		if err := eventConsumer.Close(); err != nil {
			log.Printf("Error closing event consumer: %v", err)
		}
	}

	<-doneChan
	log.Println("Server shutdown complete")
}
