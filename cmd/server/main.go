package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lms-certificate/backend/config"
	"lms-certificate/backend/internal/api/handler"
	"lms-certificate/backend/internal/api/router"
	"lms-certificate/backend/internal/render"
	"lms-certificate/backend/internal/repository"
	"lms-certificate/backend/internal/service"
	"lms-certificate/backend/pkg/database"
	"lms-certificate/backend/pkg/jwt"
	applogger "lms-certificate/backend/pkg/logger"
	"lms-certificate/backend/pkg/redis"
	"lms-certificate/backend/pkg/storage"
	"lms-certificate/backend/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	// 2.1 链路追踪（默认关闭）
	shutdownTracing, err := tracing.Init(context.Background(), &cfg.Tracing, logger)
	if err != nil {
		logger.Warn("链路追踪初始化失败，继续运行", zap.Error(err))
	}

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、限流与校验缓存将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 证书素材存储与渲染器
	ctx := context.Background()
	store, err := storage.NewStore(ctx, &cfg.Storage, logger)
	if err != nil {
		logger.Fatal("初始化素材存储失败", zap.Error(err))
	}
	assets := render.NewAssetLoader(store, cfg.Certificate.AssetTimeout, cfg.Certificate.MaxAssetBytes, logger)

	pdfRenderer, err := render.NewPDFRenderer(assets, cfg.Certificate.FontPath, logger)
	if err != nil {
		logger.Fatal("初始化 PDF 渲染器失败", zap.Error(err))
	}
	if cfg.Certificate.FontPath == "" {
		logger.Warn("未配置 certificate.font_path，PDF 仅能显示 cp1252 字符，非拉丁姓名将降级渲染")
	}
	previewRenderer, err := render.NewPreviewRenderer(assets, cfg.Certificate.FontPath, logger)
	if err != nil {
		logger.Fatal("初始化预览渲染器失败", zap.Error(err))
	}

	// 6. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, service.Renderers{
		PDF:      pdfRenderer,
		Preview:  previewRenderer,
		Resolver: assets,
	}, logger)
	h := handler.NewHandler(svc)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, db, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	// 证书渲染需要拉取远程素材，写超时留足余量
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Certificate.AssetTimeout*3 + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("关闭素材存储失败", zap.Error(err))
		}
	}

	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("关闭链路追踪失败", zap.Error(err))
		}
	}

	sqlDB.Close()

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
