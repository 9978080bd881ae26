package profile

import (
	"github.com/denxi342/discord-bot-dashboard/controllers"
	"github.com/denxi342/discord-bot-dashboard/pkg/dm"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers protected profile routes on supplied router group
// expects the group to already have AuthMiddleware applied
func Register(g *gin.RouterGroup, db *gorm.DB, svc *dm.Service) {
	g.GET("/profile", controllers.Profile(db, svc))
	g.PUT("/profile", controllers.Profile(db, svc))
}
