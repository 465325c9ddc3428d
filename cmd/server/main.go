package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/arkan-dev/preskool-api/api/swagger"
	"github.com/arkan-dev/preskool-api/internal/handler"
	"github.com/arkan-dev/preskool-api/internal/middleware"
	"github.com/arkan-dev/preskool-api/internal/models"
	"github.com/arkan-dev/preskool-api/internal/repository"
	"github.com/arkan-dev/preskool-api/internal/service"
	"github.com/arkan-dev/preskool-api/pkg/cache"
	"github.com/arkan-dev/preskool-api/pkg/config"
	"github.com/arkan-dev/preskool-api/pkg/database"
	"github.com/arkan-dev/preskool-api/pkg/jobs"
	"github.com/arkan-dev/preskool-api/pkg/logger"
	"github.com/arkan-dev/preskool-api/pkg/mailer"
	corsmiddleware "github.com/arkan-dev/preskool-api/pkg/middleware/cors"
	reqidmiddleware "github.com/arkan-dev/preskool-api/pkg/middleware/requestid"
	"github.com/arkan-dev/preskool-api/pkg/storage"
)

// @title Preskool API
// @version 1.0.0
// @description School management service: accounts, dashboards, teacher workspace, student registry and notifications
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(cfg.Database); err != nil {
		logr.Sugar().Fatalw("failed to apply migrations", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		redisClient = nil
	}

	uploads, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare uploads directory", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	outbound, err := mailer.New(cfg.Mail, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to configure mailer", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	homeworkRepo := repository.NewHomeworkRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	mailQueue := jobs.NewQueue("reset-mail", func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(service.ResetEmailPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return outbound.Send(ctx, mailer.Message{
			ToName:    payload.Name,
			ToAddress: payload.Address,
			Subject:   "Reset your password",
			TextBody:  fmt.Sprintf("Hello %s,\n\nUse the link below to set a new password. The link expires in %s.\n\n%s\n", payload.Name, cfg.Auth.ResetTokenTTL, payload.Link),
		})
	}, jobs.QueueConfig{
		Workers:    cfg.Auth.MailWorkers,
		MaxRetries: cfg.Auth.MailRetries,
		RetryDelay: cfg.Auth.MailRetryDelay,
		Logger:     logr,
	})
	mailQueue.Start(context.Background())
	defer mailQueue.Stop()

	authSvc := service.NewAuthService(userRepo, mailQueue, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		ResetTokenTTL:      cfg.Auth.ResetTokenTTL,
		BaseURL:            cfg.BaseURL,
		SingleSession:      cfg.Auth.SingleSession,
	})
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	dashboardSvc := service.NewDashboardService(userRepo, teacherRepo, scheduleRepo, homeworkRepo, studentRepo, cacheSvc, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, scheduleRepo, homeworkRepo, dashboardSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, notificationSvc, userRepo, dashboardSvc, uploads, signer, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, cfg.Uploads.MaxFileSize)

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

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.GET("/reset-password/:token", authHandler.ValidateResetToken)
	auth.POST("/reset-password/:token", authHandler.ResetPassword)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	api.GET("/media/:token", studentHandler.ServeImage)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/dashboard", middleware.RequireAdmin(), dashboardHandler.Admin)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.Feed)
	notifications.POST("/mark-as-read", notificationHandler.MarkAllRead)
	notifications.POST("/:id/read", notificationHandler.MarkRead)
	notifications.DELETE("", notificationHandler.ClearAll)

	teacher := protected.Group("/teacher")
	teacher.Use(middleware.RequireStaff())
	teacher.GET("/dashboard", dashboardHandler.Teacher)
	teacher.GET("/profile", teacherHandler.Profile)
	teacher.PUT("/profile", teacherHandler.UpdateProfile)
	teacher.GET("/schedules", teacherHandler.ListSchedules)
	teacher.POST("/schedules", teacherHandler.CreateSchedule)
	teacher.GET("/homework", teacherHandler.ListHomework)
	teacher.POST("/homework", teacherHandler.CreateHomework)

	students := protected.Group("/students")
	students.Use(middleware.RequireStaff())
	students.GET("", studentHandler.List)
	students.POST("", studentHandler.Add)
	students.GET("/export", middleware.Audit(userRepo, models.AuditActionStudentExport, "student"), studentHandler.Export)
	students.GET("/:slug", studentHandler.Detail)
	students.PUT("/:slug", studentHandler.Edit)
	students.DELETE("/:slug", studentHandler.Delete)
	students.POST("/:slug/image", studentHandler.UploadImage)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
