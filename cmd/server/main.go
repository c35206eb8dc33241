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

	"mentor-hub/server/config"
	"mentor-hub/server/internal/api/handler"
	"mentor-hub/server/internal/api/router"
	"mentor-hub/server/internal/repository"
	"mentor-hub/server/internal/scheduler"
	"mentor-hub/server/internal/service"
	"mentor-hub/server/pkg/database"
	"mentor-hub/server/pkg/jwt"
	applogger "mentor-hub/server/pkg/logger"
	"mentor-hub/server/pkg/redis"
	"mentor-hub/server/pkg/storage"
	"mentor-hub/server/pkg/validation"
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
	)

	if err := validation.RegisterGin(); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
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
	version, err := database.RunMigrations(sqlDB, logger)
	if err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}
	logger.Info("数据库迁移完成", zap.Uint("version", version))

	// 4. 连接 Redis（可选：连接失败时降级为进程内实现）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，黑名单与限流不可用，预览草稿与锁使用进程内实现", zap.Error(err))
		rdb = nil
	}

	// 5. 对象存储：优先 OSS，否则写入本地目录
	var (
		uploader  storage.Uploader
		staticDir string
	)
	if cfg.Storage.Enabled() {
		ossStorage, err := storage.NewOSS(&cfg.Storage, logger)
		if err != nil {
			logger.Fatal("OSS 初始化失败", zap.Error(err))
		}
		uploader = ossStorage
	} else {
		local := storage.NewLocal(cfg.Storage.LocalDir, cfg.Server.BaseURL, cfg.Storage.Prefix)
		uploader = local
		staticDir = local.Dir()
		logger.Warn("未配置 OSS，上传文件保存在本地", zap.String("dir", staticDir))
	}

	// 6. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 7. 依赖注入: Repository → Service → Handler
	deps := service.Deps{Uploader: uploader}
	var locker scheduler.LockRunner
	if rdb != nil {
		deps.Blacklist = rdb
		deps.Drafts = rdb
		deps.Locker = rdb
		locker = rdb
	}

	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, deps, logger)
	h := handler.NewHandler(svc)

	// 8. 定时任务
	sched, err := scheduler.New(&cfg.Cron, svc.CheckIn, svc.Preview, locker, logger)
	if err != nil {
		logger.Fatal("初始化定时任务失败", zap.Error(err))
	}
	sched.Start()

	// 9. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, db, staticDir, logger)

	// 10. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 11. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	select {
	case <-sched.Stop().Done():
	case <-ctx.Done():
		logger.Warn("等待定时任务结束超时")
	}

	// 回收仍在进行的预览会话，保证最终内容写回
	if n := svc.Preview.CloseAll(ctx); n > 0 {
		logger.Info("已关闭剩余预览会话", zap.Int("count", n))
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
