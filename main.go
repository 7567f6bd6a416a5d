package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"palmera/config"
	"palmera/database"
	"palmera/logger"
	"palmera/middleware"
	"palmera/realtime"
	"palmera/router"
	"palmera/service"
	"palmera/session"
	"palmera/store"
)

// @title Palmera Estudio API
// @version 1.0
// @description 美甲工作室收入支出记账 API，支持注册登录、收入表单、支出、统计推送与数据导出
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const (
	loginAttempts = 10
	loginWindow   = time.Minute
)

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println("Palmera Estudio v1.0.0")
		return
	}

	if err := run(); err != nil {
		l := logger.Get()
		l.Fatal().Err(err).Msg("服务退出")
	}
}

func run() error {
	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	log := logger.Init(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		log.Info().Str("port", port).Msg("命令行指定端口")
	}
	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		return fmt.Errorf("数据库初始化失败: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(cfg.Realtime.Buffer)
	defer hub.Close()

	if cfg.Realtime.Redis.Enabled {
		conn, err := realtime.ConnectRedis(ctx, realtime.RedisConfig{
			Addr: cfg.Realtime.Redis.Addr,
			DB:   cfg.Realtime.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("连接 Redis 失败: %w", err)
		}
		defer conn.Close()

		bridge := realtime.NewRedisBridge(conn, hub, cfg.Realtime.Redis.Prefix, log)
		hub.SetForwarder(bridge)
		go func() {
			if err := bridge.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Redis 变更转发停止")
			}
		}()
	}

	stores := store.NewSet(database.GetDB(), hub)
	email := service.NewEmailService(&cfg.Email)

	opts := session.Options{
		Profiles:      stores.Profiles,
		Verifications: stores.Verifications,
		Secret:        cfg.JWT.Secret,
		TokenTTL:      cfg.JWT.ExpireTime,
		Logger:        log,
	}
	if email.Enabled() {
		opts.Mailer = email
	} else {
		log.Warn().Msg("邮件未启用，验证码只写入 debug 日志")
	}
	provider := session.NewProvider(opts)
	provider.Start()
	defer provider.Close()

	var scheduler *service.Scheduler
	if cfg.Scheduler.Enabled && email.Enabled() {
		scheduler = service.NewScheduler(service.SchedulerOptions{
			Spec:     cfg.Scheduler.Spec,
			Income:   stores.Income,
			Expenses: stores.Expenses,
			Members:  stores.Profiles,
			Mailer:   email,
			Logger:   log,
		})
		if err := scheduler.Start(); err != nil {
			return err
		}
	}

	limiter := middleware.NewRateLimiter(loginAttempts, loginWindow)
	go limiter.Run(ctx, loginWindow)

	r := router.SetupRouter(cfg, router.Deps{
		Stores:   stores,
		Hub:      hub,
		Provider: provider,
		Limiter:  limiter,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Port).
			Str("swagger", "/swagger/index.html").
			Str("api", "/api/v1/").
			Msg("Palmera Estudio 已启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("收到退出信号，开始关闭")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	// SSE 连接由 hub.Close 关闭订阅后结束
	hub.Close()
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭服务器失败: %w", err)
	}
	log.Info().Msg("服务已关闭")
	return nil
}
