package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/90n9/talepick/internal/config"
	"github.com/90n9/talepick/internal/handlers"
	"github.com/90n9/talepick/internal/logging"
	"github.com/90n9/talepick/internal/middleware"
	"github.com/90n9/talepick/internal/observability"
	"github.com/90n9/talepick/internal/services"
	"github.com/90n9/talepick/internal/utils"

	_ "github.com/90n9/talepick/docs"
)

// @title           TalePick API
// @version         1.0
// @description     API for the TalePick interactive-fiction platform: browse and play branching stories, manage credits, rate and review, and moderate content.

// @contact.name   API Support
// @contact.email  support@talepick.app

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

// @tag.name auth
// @tag.description Registration, verification, and session operations

// @tag.name stories
// @tag.description Catalog and play operations

// @tag.name admin
// @tag.description Moderation and security operations

func main() {
	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}

	// Initialize observability
	observability.InitTracer()
	defer observability.ShutdownTracer()

	// Initialize database connections
	config.InitMongoDB()
	config.InitRedis()

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	clock := utils.RealClock()
	events := services.NewSecurityEventService(logging.Logger)
	mailer := services.NewEmailService(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUser,
		config.AppConfig.SMTPPassword,
		config.AppConfig.SMTPFrom,
	)
	verification := services.NewVerificationService(
		services.NewVerificationStore(),
		mailer,
		events,
		clock,
		logging.Logger,
		config.AppConfig.VerificationCodeTTL,
		config.AppConfig.VerificationRateWindow,
		config.AppConfig.VerificationRateMaxRequest,
	)
	sessions := services.NewSessionService(
		services.NewSessionStore(),
		clock,
		logging.Logger,
		config.AppConfig.SessionExtensionWindow,
	)
	credits := services.NewCreditService(clock, logging.Logger)
	users := services.NewUserService(services.NewUserStore(), verification, sessions, events, clock, logging.Logger)
	stories := services.NewStoryService(credits, clock, logging.Logger)
	reviews := services.NewReviewService(credits, stories, clock, logging.Logger)

	authHandler := handlers.NewAuthHandler(users, verification, sessions)
	storyHandler := handlers.NewStoryHandler(stories, reviews)
	creditHandler := handlers.NewCreditHandler(credits)
	adminHandler := handlers.NewAdminHandler(stories, reviews, users, events, verification)

	// Create router with middleware
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		cors.Default(),
	)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/request-code", authHandler.RequestCode)
		v1.POST("/auth/verify", authHandler.VerifyCode)
		v1.POST("/auth/login", authHandler.Login)

		v1.GET("/stories", storyHandler.List)
		v1.GET("/stories/:id", storyHandler.Get)
		v1.GET("/stories/:id/reviews", storyHandler.ListReviews)

		authed := v1.Group("", middleware.Auth(sessions, users))
		{
			authed.POST("/auth/logout", authHandler.Logout)
			authed.POST("/auth/logout-all", authHandler.LogoutAll)

			authed.POST("/stories/:id/play", storyHandler.Play)
			authed.POST("/stories/:id/choose", storyHandler.Choose)
			authed.POST("/stories/:id/reviews", storyHandler.CreateReview)
			authed.POST("/stories/:id/flag", storyHandler.Flag)

			authed.GET("/credits", creditHandler.Balance)
			authed.GET("/credits/ledger", creditHandler.Ledger)

			admin := authed.Group("/admin", middleware.RequireAdmin())
			{
				admin.GET("/stories/flagged", adminHandler.FlaggedStories)
				admin.GET("/reviews/flagged", adminHandler.FlaggedReviews)
				admin.DELETE("/stories/:id", adminHandler.RemoveStory)
				admin.POST("/users/:id/ban", adminHandler.BanUser)
				admin.GET("/security-events", adminHandler.SecurityEvents)
				admin.POST("/verification/sweep", adminHandler.SweepVerificationCodes)
			}
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Create server with timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.AppConfig.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", config.AppConfig.Port),
			zap.String("environment", config.AppConfig.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logging.Logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logging.Logger.Info("server exited gracefully")
}
