package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sharebnb/internal/cache"
	"sharebnb/internal/config"
	"sharebnb/internal/database"
	"sharebnb/internal/handler"
	"sharebnb/internal/model"
	"sharebnb/internal/queue"
	"sharebnb/internal/redis"
	"sharebnb/internal/repository"
	"sharebnb/internal/service"
	"sharebnb/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis (token revocation + media cleanup stream)
	rc, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rc.Close()

	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	publisher := queue.NewPublisher(rc.Client)

	// 4. Services
	authService := service.NewAuthService(userRepo, cache.NewRevocationStore(rc.Client), cfg)
	userService := service.NewUserService(userRepo, service.NewBcryptHasher(cfg.BcryptCost), publisher, cfg.DefaultUserImageURL)
	listingService := service.NewListingService(listingRepo, userRepo, publisher, cfg.DefaultListingPhotoURL)
	messageService := service.NewMessageService(messageRepo, listingRepo)

	// 5. Object storage is optional; without it uploads answer 503 and
	// orphaned keys stay on the stream until a worker can delete them.
	var uploader handler.ImageUploader
	mediaService, err := service.NewMediaService(ctx, cfg)
	switch {
	case err == nil:
		uploader = mediaService
		manager := worker.NewManager(queue.NewConsumer(rc.Client), worker.NewHandler(mediaService), worker.DefaultManagerConfig())
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start media workers: %w", err)
		}
		defer manager.Stop()
	case errors.Is(err, model.ErrMediaNotConfigured):
		log.Println("R2 is not configured, image uploads and media cleanup are disabled")
	default:
		return fmt.Errorf("failed to init media service: %w", err)
	}

	// 6. Setup Server
	router := NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(userService, authService),
		UserHandler:    handler.NewUserHandler(userService, listingService, authService),
		ListingHandler: handler.NewListingHandler(listingService),
		MessageHandler: handler.NewMessageHandler(messageService),
		MediaHandler:   handler.NewMediaHandler(uploader, userService, listingService),
		TokenParser:    authService,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
