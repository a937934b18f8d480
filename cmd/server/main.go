package main

import (
	"net/http"
	"time"

	"github.com/amilz/mad-raffle/api"
	"github.com/amilz/mad-raffle/internal/platform/config"
	"github.com/amilz/mad-raffle/internal/platform/database"
	"github.com/amilz/mad-raffle/internal/platform/health"
	"github.com/amilz/mad-raffle/internal/platform/logger"
	"github.com/amilz/mad-raffle/internal/platform/shutdown"
	"github.com/amilz/mad-raffle/internal/platform/startup"
	"github.com/amilz/mad-raffle/internal/scheduler"
	"github.com/amilz/mad-raffle/pkg/lifecycle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置并初始化日志
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("配置加载失败: " + err.Error())
	}
	logger.Initialize(cfg.Log)

	// 2. 初始化数据库和Redis
	database.InitDB(cfg.Database.Sqlite)
	database.InitRedis(cfg.Database.Redis)

	// 3. 阻塞式获取初始Run ID
	health.InitializeRunID()

	// 4. 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(); err != nil {
		logger.Fatal("应用初始化失败，无法启动", zap.Error(err))
	}

	// 5. 阻塞式执行一次启动后健康检查
	health.PerformCheck()

	// 6. 创建生命周期管理器并启动后台服务
	gracefulMgr := lifecycle.NewManager()
	forcefulMgr := lifecycle.NewManager()

	healthHandle, err := gracefulMgr.NewServiceHandle("redis-health-checker")
	if err != nil {
		logger.Fatal("无法注册健康检查器", zap.Error(err))
	}
	go health.StartRedisHealthCheck(healthHandle)

	schedulerHandle, err := gracefulMgr.NewServiceHandle("raffle-scheduler")
	if err != nil {
		logger.Fatal("无法注册调度器", zap.Error(err))
	}
	if err := scheduler.Start(schedulerHandle); err != nil {
		logger.Fatal("调度器启动失败", zap.Error(err))
	}

	// 7. 创建Gin引擎并注册路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Authority-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	// 8. 启动HTTP服务器并等待停机信号
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		logger.Info("服务器已准备就绪", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP服务器启动失败", zap.Error(err))
		}
	}()

	coordinator := shutdown.NewCoordinator(gracefulMgr, forcefulMgr)
	coordinator.ListenForSignalsAndShutdown(server)
}
