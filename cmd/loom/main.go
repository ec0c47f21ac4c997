package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/loom/internal/config"
	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"github.com/bitfantasy/loom/internal/fulfillment/handler"
	"github.com/bitfantasy/loom/internal/fulfillment/repository"
	"github.com/bitfantasy/loom/internal/fulfillment/service"
	"github.com/bitfantasy/loom/internal/middleware"
	"github.com/bitfantasy/loom/internal/shared/storage"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 本地开发加载.env，生产环境靠环境变量
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting loom service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := autoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化对象存储（未配置时降级）
	store, err := storage.New(storage.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init object storage", zap.Error(err))
	}

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb, zapLogger)
	handlers := handler.NewHandlers(services, store)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Manufacturer{},
		&entity.UserManufacturerAssociation{},
		&entity.Product{},
		&entity.ProductVariant{},
		&entity.Order{},
		&entity.OrderLineItem{},
		&entity.OrderLineItemManufacturer{},
		&entity.ManufacturingRecord{},
		&entity.ManufacturingUpdate{},
		&entity.UpdateLineItem{},
		&entity.ManufacturerJob{},
		&entity.ManufacturerEvent{},
	)
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	if cfg.Host == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		staffOnly := middleware.RequireAnyRole(entity.RoleAdmin, entity.RoleOps)

		// 门户配置
		authorized.GET("/config/portal", h.Config.GetPortalConfig)

		// 制造商作业
		jobs := authorized.Group("/jobs")
		{
			jobs.GET("", h.Job.ListJobs)
			jobs.POST("", h.Job.CreateJob)
			jobs.GET("/export", h.Export.ExportJobs)
			jobs.POST("/sync", staffOnly, h.Job.SyncJobs)
			jobs.GET("/:id", h.Job.GetJob)
			jobs.PATCH("/:id", h.Job.UpdateJob)
			jobs.PATCH("/:id/status", h.Job.ChangeStatus)
			jobs.GET("/:id/events", h.Job.ListEvents)
			jobs.POST("/:id/events", h.Job.AppendEvent)
		}

		// 生产记录与更新：读操作按租户过滤，写操作仅admin/ops
		records := authorized.Group("/records")
		{
			records.GET("", h.Record.ListRecords)
			records.POST("", staffOnly, h.Record.CreateRecord)
			records.GET("/:id", h.Record.GetRecord)
			records.POST("/:id/archive", staffOnly, h.Record.ArchiveRecord)
			records.GET("/:id/updates", h.Record.ListUpdates)
			records.POST("/:id/updates", staffOnly, h.Record.CreateUpdate)
		}

		// 生产更新快照
		authorized.POST("/updates/:id/refresh-line-items", staffOnly, h.Record.RefreshSnapshot)

		// 快照行
		lineItems := authorized.Group("/update-line-items")
		{
			lineItems.PATCH("/:id", h.Record.UpdateLineItem)
			lineItems.POST("/:id/confirm-sizes", h.Record.ConfirmSizes)
			lineItems.POST("/:id/complete", h.Record.MarkCompleted)
			lineItems.POST("/:id/mockup", h.Upload.UploadMockup)
		}

		// 行项-制造商分配（admin/ops）
		authorized.GET("/order-line-items/:id/assignments", staffOnly, h.Manufacturer.ListLineItemAssignments)
		authorized.POST("/order-line-items/:id/assignments", staffOnly, h.Manufacturer.AssignLineItem)

		// 制造商管理
		manufacturers := authorized.Group("/manufacturers")
		{
			manufacturers.GET("", staffOnly, h.Manufacturer.ListManufacturers)
			manufacturers.POST("", staffOnly, h.Manufacturer.CreateManufacturer)
			manufacturers.GET("/:id", h.Manufacturer.GetManufacturer)
			manufacturers.POST("/associations", staffOnly, h.Manufacturer.CreateAssociation)
			manufacturers.DELETE("/:id/associations/:userId", staffOnly, h.Manufacturer.DeleteAssociation)
		}
	}
}
