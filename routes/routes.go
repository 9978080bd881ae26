package routes

import (
	"net/http"

	"github.com/denxi342/discord-bot-dashboard/middleware"
	"github.com/denxi342/discord-bot-dashboard/pkg/dm"
	"github.com/denxi342/discord-bot-dashboard/pkg/realtime"
	"github.com/denxi342/discord-bot-dashboard/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authRoutes "github.com/denxi342/discord-bot-dashboard/routes/auth"
	dmRoutes "github.com/denxi342/discord-bot-dashboard/routes/dm"
	profileRoutes "github.com/denxi342/discord-bot-dashboard/routes/profile"
	uploadsRoutes "github.com/denxi342/discord-bot-dashboard/routes/uploads"
	websocketRoutes "github.com/denxi342/discord-bot-dashboard/routes/websocket"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc *dm.Service, hub *realtime.Hub, storage *services.AttachmentStorage) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "community dashboard backend running"})
	})

	websocketRoutes.Register(r, hub)
	authRoutes.RegisterPublic(r, db)

	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware())
	authRoutes.RegisterProtected(protected, db)
	profileRoutes.Register(protected, db, svc)
	dmRoutes.Register(protected, svc)
	uploadsRoutes.Register(r, protected, storage)
}
