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

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/eduboost-api/api/swagger"
	"github.com/noah-isme/eduboost-api/internal/handler"
	"github.com/noah-isme/eduboost-api/internal/repository"
	"github.com/noah-isme/eduboost-api/internal/router"
	"github.com/noah-isme/eduboost-api/internal/service"
	"github.com/noah-isme/eduboost-api/pkg/cache"
	"github.com/noah-isme/eduboost-api/pkg/config"
	"github.com/noah-isme/eduboost-api/pkg/database"
	"github.com/noah-isme/eduboost-api/pkg/jobs"
	"github.com/noah-isme/eduboost-api/pkg/logger"
	"github.com/noah-isme/eduboost-api/pkg/scheduler"
	"github.com/noah-isme/eduboost-api/pkg/storage"
)

// @title EduBoost API
// @version 1.0.0
// @description Tutoring platform API: student signup with ID checks, access-day enrollments, mentors, classes and study content.
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(ctx, db, cfg.Database.MigrationsDir, logr)
		if err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("migrations complete", zap.Strings("applied", applied))
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	files, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare upload storage", zap.Error(err))
	}

	app := build(cfg, db, redisClient, files, logr)

	app.queue.Start(ctx)
	defer app.queue.Stop()

	if cfg.Sweep.Enabled {
		trigger := scheduler.NewDailyTrigger(cfg.Sweep.Location(), cfg.Sweep.RunOnStart, logr.Named("sweep"))
		go trigger.Run(ctx, app.dispatcher.Fire)
		logr.Info("enrollment sweep scheduled", zap.String("timezone", cfg.Sweep.Location().String()))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	engine     http.Handler
	queue      *jobs.Queue
	dispatcher *service.SweepDispatcher
}

func build(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, files *storage.LocalStorage, logr *zap.Logger) *application {
	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "eduboost", logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	configRepo := repository.NewConfigurationRepository(db)
	sweepRepo := repository.NewSweepRepository(db)
	requestRepo := repository.NewMentorRequestRepository(db)
	classRepo := repository.NewClassRepository(db)
	contentRepo := repository.NewContentRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)

	policy := storage.UploadPolicy{MaxBytes: cfg.Uploads.MaxFileSizeBytes, AllowedMIMEs: cfg.Uploads.AllowedMIMEs}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	authSvc := service.NewAuthService(userRepo, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "eduboost-api",
	})
	windowSvc := service.NewRegistrationWindowService(configRepo, userRepo, cacheSvc, validate, logr)
	registrationSvc := service.NewRegistrationService(db, userRepo, studentRepo, enrollmentRepo, windowSvc, service.RegistrationPolicy{
		InitialDays:   cfg.Enrollment.InitialDays,
		MinAge:        cfg.Enrollment.MinAge,
		MaxAge:        cfg.Enrollment.MaxAge,
		AllowedGrades: cfg.Enrollment.AllowedGrades,
	}, validate, logr.Named("registration"))
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, userRepo, cacheSvc, service.PaymentDetails{
		BankName:      cfg.Payment.BankName,
		AccountName:   cfg.Payment.AccountName,
		AccountNumber: cfg.Payment.AccountNumber,
		Amount:        cfg.Payment.Amount,
	}, validate, logr.Named("enrollment"))
	exportSvc := service.NewExportService(enrollmentRepo, nil, nil, logr)
	sweepSvc := service.NewSweepService(sweepRepo, userRepo, cacheSvc, metricsSvc, cfg.Sweep.Location(), logr.Named("sweep"))
	userSvc := service.NewUserService(userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, enrollmentRepo, cfg.Enrollment.AllowedGrades, validate, logr)
	requestSvc := service.NewMentorRequestService(requestRepo, userRepo, files, policy, cacheSvc, validate, logr)
	classSvc := service.NewClassService(classRepo, studentRepo, cacheSvc, validate, logr)
	contentSvc := service.NewContentService(service.ContentServiceParams{
		Repo:      contentRepo,
		Students:  studentRepo,
		Files:     files,
		Policy:    policy,
		Signer:    signer,
		Validator: validate,
		Logger:    logr,
	})
	announcementSvc := service.NewAnnouncementService(announcementRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Users:       userRepo,
		Classes:     classRepo,
		Enrollments: enrollmentRepo,
		Requests:    requestRepo,
		Window:      windowSvc,
		Cache:       cacheSvc,
		Logger:      logr,
		Config:      service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	// One worker and no retries: sweeps never overlap and a failed day is retried by the next trigger.
	queue := jobs.NewQueue("enrollment-sweep", sweepSvc.Handle, jobs.QueueConfig{
		Workers:        1,
		BufferSize:     8,
		Logger:         logr,
		DisableRetries: true,
	})
	dispatcher := service.NewSweepDispatcher(queue, sweepSvc, logr)

	readiness := map[string]router.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		readiness["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	engine := router.New(cfg, router.Dependencies{
		Auth:           handler.NewAuthHandler(authSvc),
		Registration:   handler.NewRegistrationHandler(registrationSvc, windowSvc),
		Enrollments:    handler.NewEnrollmentHandler(enrollmentSvc, exportSvc, dispatcher, sweepSvc),
		Users:          handler.NewUserHandler(userSvc),
		Students:       handler.NewStudentHandler(studentSvc),
		MentorRequests: handler.NewMentorRequestHandler(requestSvc),
		Classes:        handler.NewClassHandler(classSvc),
		Content:        handler.NewContentHandler(contentSvc, router.APIPath(cfg.APIPrefix, router.ContentDownloadRoute)),
		Announcements:  handler.NewAnnouncementHandler(announcementSvc),
		Dashboard:      handler.NewDashboardHandler(dashboardSvc),
		Metrics:        handler.NewMetricsHandler(metricsSvc),
		Tokens:         authSvc,
		Access:         enrollmentSvc,
		AuditWriter:    userRepo,
		MetricsService: metricsSvc,
		Readiness:      readiness,
		Logger:         logr,
	})

	return &application{engine: engine, queue: queue, dispatcher: dispatcher}
}
