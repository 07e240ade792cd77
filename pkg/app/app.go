// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/firmvault/pkg/configs"
	"github.com/yeisme/firmvault/pkg/context"
	"github.com/yeisme/firmvault/pkg/internal/model"
	"github.com/yeisme/firmvault/pkg/internal/router"
	"github.com/yeisme/firmvault/pkg/internal/service"
	"github.com/yeisme/firmvault/pkg/internal/storage"
	"github.com/yeisme/firmvault/pkg/log"
	"github.com/yeisme/firmvault/pkg/metrics"
	"github.com/yeisme/firmvault/pkg/middleware"
	"github.com/yeisme/firmvault/pkg/scheduler"
)

type App struct {
	Engine  *gin.Engine
	config  *configs.AppConfig
	manager *storage.Manager
	sched   *scheduler.Scheduler
	cancel  contextPkg.CancelFunc
}

func NewApp(configPath string) *App {
	ctx, cancel := contextPkg.WithCancel(contextPkg.Background())

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	log.Init()

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	if err := manager.DB.AutoMigrate(model.AllModels()...); err != nil {
		fmt.Printf("Error migrating database schema: %v\n", err)
		os.Exit(1)
	}

	appCtx := context.WithStorageManager(ctx, manager)

	// 审计事件的异步落库
	go func() {
		if err := service.NewAuditService(appCtx).RunWriter(appCtx); err != nil {
			log.Logger().Error().Err(err).Msg("audit writer stopped")
		}
	}()

	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := scheduler.RegisterMaintenanceJobs(sched, appCtx); err != nil {
		fmt.Printf("Error registering maintenance jobs: %v\n", err)
		os.Exit(1)
	}

	sched.Start()

	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.CORSMiddleware(config.Server),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{"^/files/"})),
		middleware.GinLoggerMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.CircuitBreakerMiddleware(config.Breaker),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
	)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	router.RegisterAPIRoutes(engine)
	router.RegisterSwaggerRoute(engine)

	return &App{
		Engine:  engine,
		config:  config,
		manager: manager,
		sched:   sched,
		cancel:  cancel,
	}
}

// Run 启动 HTTP 服务并阻塞到收到退出信号，随后优雅关闭.
func (a *App) Run() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	errCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Logger().Info().Str("addr", srv.Addr).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case sig := <-quit:
		log.Logger().Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := contextPkg.WithTimeout(contextPkg.Background(), a.config.Server.GetTimeoutDuration())
	defer cancel()

	err := srv.Shutdown(ctx)
	a.shutdown()

	return err
}

// shutdown 依次停掉调度器与存储客户端.
func (a *App) shutdown() {
	if err := a.sched.Stop(); err != nil {
		log.Logger().Warn().Err(err).Msg("failed to stop scheduler")
	}

	if err := a.manager.Close(); err != nil {
		log.Logger().Warn().Err(err).Msg("failed to close storage manager")
	}

	a.cancel()
}
