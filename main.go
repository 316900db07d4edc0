package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/logger"
	"github.com/kendall-kelly/edu-brokerage-api/middleware"
	"github.com/kendall-kelly/edu-brokerage-api/services"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	log, err := logger.Init(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		logger.L().Fatal("Failed to initialise logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting Education Brokerage API server...", zap.String("env", cfg.GoEnv))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	db := config.GetDB()
	if err := config.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database migration completed successfully")

	ctx := context.Background()

	// Object storage; an in-memory store stands in when no bucket is configured
	var store services.S3Interface
	if cfg.AWSS3Bucket != "" {
		store, err = services.InitS3Service(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to initialise S3 service", zap.Error(err))
		}
	} else {
		store = services.NewMockS3Service()
		log.Warn("AWS_S3_BUCKET is not set; attachments are kept in memory")
	}
	services.InitDocumentService(store, cfg.SignedURLTTL)

	notifier, err := services.InitNotifier(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer notifier.Close()

	auth, err := middleware.EnsureValidToken(cfg)
	if err != nil {
		log.Fatal("Failed to configure authentication", zap.Error(err))
	}

	router := SetupRouter(cfg, auth)

	addr := ":" + cfg.Port
	log.Info("Server is running", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		log.Error("Failed to start server", zap.Error(err))
		os.Exit(1)
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Education Brokerage API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.WithContext(c.Request.Context()).Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
