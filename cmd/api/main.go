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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/complaint-box-api/api/swagger"
	"github.com/noah-isme/complaint-box-api/internal/handler"
	"github.com/noah-isme/complaint-box-api/internal/middleware"
	"github.com/noah-isme/complaint-box-api/internal/models"
	"github.com/noah-isme/complaint-box-api/internal/repository"
	"github.com/noah-isme/complaint-box-api/internal/service"
	"github.com/noah-isme/complaint-box-api/pkg/cache"
	"github.com/noah-isme/complaint-box-api/pkg/config"
	"github.com/noah-isme/complaint-box-api/pkg/database"
	"github.com/noah-isme/complaint-box-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/complaint-box-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/complaint-box-api/pkg/middleware/requestid"
)

// @title Complaint Box API
// @version 1.0.0
// @description University complaint box: students submit complaints, admins triage and respond
// @BasePath /api
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	// Redis is optional: without it the stats endpoint falls back to
	// querying aggregates directly.
	var cacheRepo service.CacheRepository
	cacheEnabled := cfg.Stats.CacheEnabled
	if cacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, stats caching disabled", "error", err)
			cacheEnabled = false
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close()
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cacheEnabled)

	userRepo := repository.NewUserRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)

	validate := validator.New()

	statsSvc := service.NewStatsService(complaintRepo, cacheSvc, cfg.Stats.CacheTTL, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:      cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	complaintSvc := service.NewComplaintService(complaintRepo, statsSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	complaintHandler := handler.NewComplaintHandler(complaintSvc)
	adminHandler := handler.NewAdminHandler(userSvc, complaintSvc, statsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	api := r.Group(cfg.APIPrefix)

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.Authenticate(authSvc), authHandler.Me)
	}

	complaints := api.Group("/complaints", middleware.Authenticate(authSvc))
	{
		complaints.POST("", complaintHandler.Create)
		complaints.GET("", complaintHandler.List)
		complaints.GET("/:id", complaintHandler.Get)
		complaints.PATCH("/:id/status", middleware.RequireRoles(models.RoleAdmin), complaintHandler.UpdateStatus)
		complaints.POST("/:id/responses", middleware.RequireRoles(models.RoleAdmin), complaintHandler.AddResponse)
		complaints.POST("/:id/feedback", complaintHandler.AddFeedback)
	}

	admin := api.Group("/admin", middleware.Authenticate(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/admins", adminHandler.ListAdmins)
		admin.POST("/admins", adminHandler.CreateAdmin)
		admin.PUT("/admins/:id", adminHandler.UpdateAdmin)
		admin.DELETE("/admins/:id", adminHandler.DeleteAdmin)
		admin.GET("/students", adminHandler.ListStudents)
		admin.DELETE("/students/:id", adminHandler.DeleteStudent)
		admin.GET("/complaints/export", middleware.Audit(userRepo, models.AuditActionExport, "complaints"), adminHandler.ExportComplaints)
		admin.GET("/stats", adminHandler.Stats)
	}

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}
