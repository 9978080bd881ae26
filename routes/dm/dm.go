package dm

import (
	"github.com/denxi342/discord-bot-dashboard/controllers"
	"github.com/denxi342/discord-bot-dashboard/middleware"
	dmsvc "github.com/denxi342/discord-bot-dashboard/pkg/dm"

	"github.com/gin-gonic/gin"
)

// Register registers DM routes (protected). Sends are rate limited; reads
// are not.
func Register(g *gin.RouterGroup, svc *dmsvc.Service) {
	g.GET("/dms", controllers.ListDirectMessages(svc))
	g.GET("/dms/:user_id/messages", controllers.DirectMessageHistory(svc))
	g.POST("/dms/:user_id/messages", middleware.RateLimit(), controllers.SendDirectMessage(svc))
	g.PATCH("/dms/messages/:message_id", controllers.EditDirectMessage(svc))
	g.PUT("/dms/messages/:message_id/pin", controllers.PinDirectMessage(svc, true))
	g.DELETE("/dms/messages/:message_id/pin", controllers.PinDirectMessage(svc, false))
}
