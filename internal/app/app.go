package app

import (
	"context"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/controller"
	"learnhub_backend/internal/event"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/pkg/configwatcher"
	"learnhub_backend/pkg/database"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/security"
	"learnhub_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Log             *zap.Logger
	services        *services
	limiter         *security.Limiter
	events          event.Publisher
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	cancel          context.CancelFunc
}

type repositories struct {
	user        *repository.UserRepository
	catalog     *repository.CatalogRepository
	enrollment  *repository.EnrollmentRepository
	evaluation  *repository.EvaluationRepository
	attempt     *repository.AttemptRepository
	progress    *repository.ProgressRepository
	certificate *repository.CertificateRepository
}

type services struct {
	identity    *service.IdentityService
	attempt     *service.AttemptService
	progress    *service.ProgressService
	certificate *service.CertificateService
}

type controllers struct {
	evaluation  *controller.EvaluationController
	progress    *controller.ProgressController
	certificate *controller.CertificateController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	cache := repository.NewQuestionCache(rdb, cfg.Evaluation.QuestionCacheTTL())
	return &repositories{
		user:        repository.NewUserRepository(db),
		catalog:     repository.NewCatalogRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		evaluation:  repository.NewEvaluationRepository(db, cache),
		attempt:     repository.NewAttemptRepository(db),
		progress:    repository.NewProgressRepository(db),
		certificate: repository.NewCertificateRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	s := &services{}

	s.identity = service.NewIdentityService(repos.user, cfg.JWT.Secret)

	s.certificate = service.NewCertificateService(
		db,
		repos.user,
		repos.catalog,
		repos.certificate,
		repos.evaluation,
		repos.attempt,
		a.events,
		a.Log.Named("certificate"),
		cfg.Certificate.DefaultExpirationDays,
	)

	s.progress = service.NewProgressService(
		repos.catalog,
		repos.progress,
		repos.enrollment,
		s.certificate,
		a.events,
		a.Log.Named("progress"),
		cfg.Certificate.AutoIssue,
	)

	s.attempt = service.NewAttemptService(
		db,
		repos.evaluation,
		repos.attempt,
		a.events,
		a.Log.Named("attempt"),
	)
	s.attempt.Modules = s.progress
	s.attempt.SetCompleteModuleOnPass(cfg.Evaluation.CompleteModuleOnPass)

	a.RegisterConfigCallback(func(c *config.Config) {
		s.certificate.SetDefaultExpirationDays(c.Certificate.DefaultExpirationDays)
		s.progress.SetAutoIssue(c.Certificate.AutoIssue)
		s.attempt.SetCompleteModuleOnPass(c.Evaluation.CompleteModuleOnPass)
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		evaluation:  controller.NewEvaluationController(s.attempt),
		progress:    controller.NewProgressController(s.progress),
		certificate: controller.NewCertificateController(s.certificate),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.limiter = security.NewLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	router.Use(security.RateLimiter(a.limiter))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) initEvents(cfg *config.Config) event.Publisher {
	if !cfg.Events.Enabled {
		return event.NewLogPublisher(a.Log.Named("event"))
	}
	p, err := event.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange, a.Log.Named("event"))
	if err != nil {
		// 消息队列不可用时降级为日志，不阻塞启动
		a.Log.Error("Failed to connect to AMQP, falling back to log publisher", zap.Error(err))
		return event.NewLogPublisher(a.Log.Named("event"))
	}
	a.Log.Info("AMQP publisher ready", zap.String("exchange", cfg.Events.Exchange))
	return p
}

func (a *App) initRedis(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	rdb, err := database.InitRedis(&cfg.Redis, a.Log)
	if err != nil {
		// 题目缓存是可选的，Redis 不可用时直接查库
		a.Log.Warn("Redis unavailable, question cache disabled", zap.Error(err))
		return nil
	}
	return rdb
}

func (a *App) startBackgroundTasks(ctx context.Context, configDir string) {
	go a.limiter.Run(ctx)

	configFile := filepath.Join(configDir, "config.yaml")
	go func() {
		if err := configwatcher.Watch(ctx, configFile, a.Log, a.applyConfig); err != nil {
			a.Log.Warn("Config watcher disabled", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config, configDir string) *App {
	zl := logger.InitLogger(cfg)
	zl.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, zl)
	if err != nil {
		zl.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			zl.Fatal("Failed to migrate database", zap.Error(err))
		}
		zl.Info("Database migrated")
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Log:    zl,
	}
	if cfg.MigrateOnly {
		return app
	}

	app.Redis = app.initRedis(cfg)
	app.events = app.initEvents(cfg)

	repos := app.initRepositories(db, app.Redis, cfg)
	services := app.initServices(repos, cfg, db)
	app.services = services
	controllers := app.initControllers(services, db, app.Redis)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("learnhub", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			zl.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, services)

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.startBackgroundTasks(ctx, configDir)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		a.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	a.Log.Info("Server exiting")
}

// Close 停止后台任务并释放外部连接
func (a *App) Close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if p, ok := a.events.(*event.AMQPPublisher); ok {
		p.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	_ = a.Log.Sync()
}
