package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/angelicadichon/eSumbong/api/swagger"
	"github.com/angelicadichon/eSumbong/internal/handler"
	"github.com/angelicadichon/eSumbong/internal/middleware"
	"github.com/angelicadichon/eSumbong/internal/models"
	"github.com/angelicadichon/eSumbong/internal/repository"
	"github.com/angelicadichon/eSumbong/internal/service"
	"github.com/angelicadichon/eSumbong/pkg/cache"
	"github.com/angelicadichon/eSumbong/pkg/config"
	"github.com/angelicadichon/eSumbong/pkg/database"
	"github.com/angelicadichon/eSumbong/pkg/logger"
	corsmiddleware "github.com/angelicadichon/eSumbong/pkg/middleware/cors"
	reqidmiddleware "github.com/angelicadichon/eSumbong/pkg/middleware/requestid"
	"github.com/angelicadichon/eSumbong/pkg/storage"
)

// @title eSumbong API
// @version 1.0.0
// @description Barangay complaint tracking portal
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching and realtime events disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	uploadStorage, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("failed to init upload storage", zap.Error(err))
	}
	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to init export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := validator.New()

	// repositories
	complaintRepo := repository.NewComplaintRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	metricsSvc := service.NewMetricsService()

	notifier := service.NewNotifier(notificationRepo, cacheRepo, metricsSvc, logr, service.NotifierConfig{
		EventsChannel: cfg.Notifications.EventsChannel,
		Workers:       cfg.Notifications.Workers,
		MaxRetries:    cfg.Notifications.MaxRetries,
		RetryDelay:    cfg.Notifications.RetryDelay,
	})

	complaintSvc := service.NewComplaintService(complaintRepo, uploadStorage, notifier, cacheRepo, metricsSvc, validate, logr, service.ComplaintServiceConfig{
		MaxFileSize:    cfg.Uploads.MaxFileSizeBytes,
		PublicBasePath: cfg.Uploads.PublicBasePath,
	})
	querySvc := service.NewQueryService(complaintRepo, cacheRepo, cfg.Analytics.CacheTTL, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	authSvc := service.NewAuthService(userRepo, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, validate, logr)
	exportSvc := service.NewExportService(complaintRepo, exportStorage, signer, cfg.APIPrefix+"/reports/download", logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier.Start(ctx)
	defer notifier.Stop()

	// handlers
	authHandler := handler.NewAuthHandler(authSvc)
	complaintHandler := handler.NewComplaintHandler(complaintSvc, querySvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	analyticsHandler := handler.NewAnalyticsHandler(querySvc)
	reportHandler := handler.NewReportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.Static(cfg.Uploads.PublicBasePath, cfg.Uploads.Dir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)

	api := r.Group(cfg.APIPrefix)
	api.GET("/reports/download", reportHandler.Download)

	auth := api.Group("")
	auth.Use(middleware.JWT(authSvc))
	{
		auth.POST("/complaints", complaintHandler.Submit)
		auth.GET("/complaints", complaintHandler.List)
		auth.PUT("/complaints/:id/feedback", complaintHandler.Feedback)

		auth.GET("/notifications", notificationHandler.List)
		auth.PUT("/notifications/mark-read", notificationHandler.MarkAllRead)
		auth.PUT("/notifications/delete", notificationHandler.Delete)

		admin := auth.Group("")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admin.POST("/users", authHandler.CreateUser)
			admin.PUT("/complaints/:id/assign", complaintHandler.Assign)
			admin.DELETE("/complaints/:id", complaintHandler.Delete)
			admin.GET("/residents", analyticsHandler.Residents)
			admin.GET("/analytics/summary", analyticsHandler.Summary)
			admin.GET("/reports/export", reportHandler.Export)
		}

		team := auth.Group("")
		team.Use(middleware.RequireTeam())
		{
			team.PUT("/complaints/:id/team-update", complaintHandler.TeamUpdate)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
