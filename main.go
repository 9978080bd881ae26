package main

import (
	"context"
	"log"
	"time"

	"github.com/denxi342/discord-bot-dashboard/middleware"
	"github.com/denxi342/discord-bot-dashboard/models"
	"github.com/denxi342/discord-bot-dashboard/pkg/config"
	"github.com/denxi342/discord-bot-dashboard/pkg/dm"
	"github.com/denxi342/discord-bot-dashboard/pkg/realtime"
	"github.com/denxi342/discord-bot-dashboard/pkg/services"
	"github.com/denxi342/discord-bot-dashboard/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openDatabase() (*gorm.DB, error) {
	// TranslateError turns driver duplicate-key errors into
	// gorm.ErrDuplicatedKey, which conversation creation relies on
	cfg := &gorm.Config{TranslateError: true}
	if config.DatabaseDSN != "" {
		return gorm.Open(mysql.Open(config.DatabaseDSN), cfg)
	}
	return gorm.Open(sqlite.Open(config.DatabaseFile), cfg)
}

func main() {
	db, err := openDatabase()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		log.Fatalf("failed migrate: %v", err)
	}

	middleware.SetRateLimitConfig(
		time.Duration(config.RateLimitWindowSeconds)*time.Second,
		config.RateLimitCapacity,
	)

	hub := realtime.NewHub()
	var publisher dm.Publisher = hub
	if config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr, Password: config.RedisPassword})
		bridge := realtime.NewBridge(rdb, hub)
		go bridge.Run(context.Background())
		publisher = bridge
		log.Printf("[main] redis fan-out bridge enabled (%s)", config.RedisAddr)
	}

	svc := dm.NewService(db, publisher, dm.Options{
		UserCacheTTL:      time.Duration(config.UserCacheTTLSeconds) * time.Second,
		UserCacheMaxItems: config.UserCacheMaxItems,
	})
	storage := services.NewAttachmentStorage(config.UploadBasePath, config.UploadBaseURL)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, svc, hub, storage)
	r.Run(":" + config.Port)
}
