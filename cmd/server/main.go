package main

import (
	"alcyxob/upload-service/internal/api"
	"alcyxob/upload-service/internal/config"
	"alcyxob/upload-service/internal/logging"
	"alcyxob/upload-service/internal/repository/mongo"
	"alcyxob/upload-service/internal/service"
	"alcyxob/upload-service/internal/storage"
	"alcyxob/upload-service/internal/upload"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// @title Upload Service API
// @version 1.0
// @description Multi-file uploads to S3-compatible storage and presigned downloads.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server exiting")
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	dbClient, err := mongo.ConnectDB(ctx, cfg.Database.URI)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("database connection established", zap.String("database", cfg.Database.Name))

	userRepo := mongo.NewMongoUserRepository(appDB)
	roleRepo := mongo.NewMongoRoleRepository(appDB)

	setupCtx, cancelSetup := context.WithTimeout(ctx, time.Minute)
	defer cancelSetup()
	if err := mongo.EnsureUserIndexes(setupCtx, appDB); err != nil {
		logger.Warn("index creation failed", zap.Error(err))
	}
	if err := mongo.EnsureRoleIndexes(setupCtx, appDB); err != nil {
		logger.Warn("index creation failed", zap.Error(err))
	}
	if err := mongo.SeedRoles(setupCtx, roleRepo); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	// --- Services ---
	authService, err := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	if err != nil {
		return err
	}
	userService := service.NewUserService(userRepo)
	accessService := service.NewAccessService(userService, roleRepo)

	if cfg.Bootstrap.AdminEmail != "" {
		admin, created, err := authService.EnsureAdmin(setupCtx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		logger.Info("bootstrap admin ready", zap.String("email", admin.Email), zap.Bool("created", created))
	}

	// --- Storage and upload pipeline ---
	backend, err := storage.NewBackend(ctx, cfg.S3)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	logger.Info("storage ready", zap.String("driver", cfg.S3.Driver), zap.String("bucket", backend.Bucket()))

	observer, err := upload.NewPrometheusObserver("upload", prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	client := storage.NewClient(backend, cfg.Storage.OperationTimeout, logger.Named("storage"))
	folders := storage.NewFolders(cfg.Storage.Folders)
	dispatcher := upload.NewDispatcher(client, folders, upload.NewNamer(nil), cfg.Upload.MaxWorkers, observer, logger.Named("upload"))
	access := upload.NewAccess(client, folders, cfg.Upload.PresignTTL, observer)

	// --- HTTP ---
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestID(), api.RequestLogger(logger.Named("http")))
	api.SetupRoutes(router, api.Deps{
		AuthService:     authService,
		UserService:     userService,
		AccessService:   accessService,
		Uploader:        dispatcher,
		Files:           access,
		Logger:          logger.Named("files"),
		MaxRequestBytes: cfg.Server.MaxRequestBytes,
	})

	// No read or write timeout: upload bodies may be very large.
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
