package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"snakescores/config"
	"snakescores/handlers"
	"snakescores/middleware"
	"snakescores/repository"
	"snakescores/routes"
	"snakescores/services"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	location, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open score store:", err)
	}

	// Cache top lists in Redis when configured
	if redisClient := config.InitRedis(cfg); redisClient != nil {
		defer redisClient.Close()
		store = repository.NewCachedStore(store, redisClient, cfg.CacheTTL)
		log.Printf("Caching top scores in Redis at %s:%s for %s", cfg.RedisHost, cfg.RedisPort, cfg.CacheTTL)
	}

	// Initialize services
	leaderboardService := services.NewLeaderboardService(store, location)

	// Initialize WebSocket hub
	hub := services.NewHub(leaderboardService)
	go hub.Run(ctx)
	leaderboardService.SetPublisher(hub)

	// Initialize handlers
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)

	// Setup Gin router
	gin.SetMode(cfg.GinMode)
	router := gin.Default()
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	routes.SetupRoutes(router, leaderboardHandler, hub, cfg.CORSAllowedOrigins)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on %s", cfg.Addr())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start server:", err)
	}
	log.Println("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (repository.ScoreStore, error) {
	if cfg.DBDriver == config.DriverMongo {
		client, err := config.InitMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Println("Connected to MongoDB")

		store := repository.NewMongoStore(client.Database(cfg.MongoDatabase))
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, err
	}

	// Auto-migrate database models
	store := repository.NewGormStore(db)
	if err := store.Migrate(); err != nil {
		return nil, err
	}
	return store, nil
}
