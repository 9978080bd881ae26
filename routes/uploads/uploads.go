package uploads

import (
	"github.com/denxi342/discord-bot-dashboard/controllers"
	"github.com/denxi342/discord-bot-dashboard/pkg/services"

	"github.com/gin-gonic/gin"
)

func Register(r *gin.Engine, g *gin.RouterGroup, storage *services.AttachmentStorage) {
	r.Static("/uploads", "./uploads")
	g.POST("/attachments", controllers.UploadAttachment(storage))
}
