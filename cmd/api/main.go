// Bookshelf API服务
//
//	@title						Bookshelf API
//	@version					1.0
//	@description				在线书店:购物车、结算、购买记录与个性化推荐
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/xiebiao/bookshelf/docs"
	appuser "github.com/xiebiao/bookshelf/internal/application/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/pkg/logger"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/tracing"
	"github.com/xiebiao/bookshelf/pkg/validator"
)

// shutdownTimeout 优雅关闭的最长等待时间
const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "配置文件路径(默认查找./config/config.yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Error().Err(err).Msg("服务异常退出")
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. 加载配置
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// 2. 日志
	if err := logger.Init(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	}); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	logger.Info().
		Int("port", cfg.Server.Port).
		Str("mode", cfg.Server.Mode).
		Str("storage", cfg.Storage.Driver).
		Str("lock", cfg.Lock.Driver).
		Msg("配置加载成功")

	// 3. 指标、参数校验、链路追踪
	metrics.InitMetrics()
	if err := validator.Register(); err != nil {
		return err
	}
	if cfg.Tracing.Enabled {
		shutdownTracer, err := tracing.InitTracer(tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
			Insecure:    cfg.Tracing.Insecure,
		})
		if err != nil {
			return fmt.Errorf("初始化链路追踪失败: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(ctx); err != nil {
				logger.Warn().Err(err).Msg("关闭链路追踪失败")
			}
		}()
	}

	// 4. 基础设施与依赖注入
	infra, cleanup, err := newInfrastructure(cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	a := newApp(cfg, infra)

	// 5. 管理员账号
	if cfg.Admin.Email != "" {
		admin, err := a.register.EnsureAdmin(context.Background(), appuser.RegisterRequest{
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
			Nickname: cfg.Admin.Nickname,
		})
		if err != nil {
			return fmt.Errorf("创建管理员失败: %w", err)
		}
		logger.Info().Uint("user_id", admin.ID).Str("email", admin.Email).Msg("管理员账号就绪")
	}

	// 6. 启动服务,收到SIGINT/SIGTERM后优雅关闭
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("服务启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭服务失败: %w", err)
	}
	logger.Info().Msg("服务已关闭")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
