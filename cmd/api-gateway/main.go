package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/minervhub/minervhub-api/api/swagger"
	"github.com/minervhub/minervhub-api/internal/handler"
	"github.com/minervhub/minervhub-api/internal/middleware"
	"github.com/minervhub/minervhub-api/internal/repository"
	"github.com/minervhub/minervhub-api/internal/service"
	"github.com/minervhub/minervhub-api/pkg/cache"
	"github.com/minervhub/minervhub-api/pkg/config"
	"github.com/minervhub/minervhub-api/pkg/database"
	"github.com/minervhub/minervhub-api/pkg/logger"
	corsmiddleware "github.com/minervhub/minervhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/minervhub/minervhub-api/pkg/middleware/requestid"
)

// @title MinervHub API
// @version 1.0.0
// @description Student tutoring marketplace: listings, board and contact requests
// @BasePath /api/v1
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

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Board.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, board cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Board.CacheTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	requestRepo := repository.NewContactRequestRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	boardSvc := service.NewBoardService(listingRepo, cacheSvc, metricsSvc, logr)
	listingSvc := service.NewListingService(listingRepo, userRepo, boardSvc, validate, logr)
	requestSvc := service.NewContactRequestService(requestRepo, userRepo, listingRepo, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(boardSvc, nil, nil, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	boardHandler := handler.NewBoardHandler(boardSvc, exportSvc)
	listingHandler := handler.NewListingHandler(listingSvc)
	requestHandler := handler.NewContactRequestHandler(requestSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		board := api.Group("/board")
		{
			board.GET("", boardHandler.List)
			board.GET("/export", boardHandler.Export)
			board.GET("/:id", boardHandler.Get)
		}

		protected := api.Group("")
		protected.Use(middleware.JWT(authSvc))
		{
			protected.POST("/auth/logout", authHandler.Logout)
			protected.POST("/auth/change-password", authHandler.ChangePassword)
			protected.GET("/auth/me", authHandler.Me)

			protected.GET("/listings", listingHandler.ListMine)
			protected.POST("/listings", listingHandler.Create)
			protected.PUT("/listings/:id", listingHandler.Update)
			protected.DELETE("/listings/:id", listingHandler.Delete)

			protected.POST("/requests", requestHandler.Send)
			protected.GET("/requests/received", requestHandler.ListReceived)
			protected.GET("/requests/sent", requestHandler.ListSent)
			protected.PATCH("/requests/:id", requestHandler.Handle)
			protected.DELETE("/requests/:id", requestHandler.Cancel)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
