package websocket

import (
	"github.com/denxi342/discord-bot-dashboard/controllers"
	"github.com/denxi342/discord-bot-dashboard/pkg/realtime"

	"github.com/gin-gonic/gin"
)

func Register(r *gin.Engine, hub *realtime.Hub) {
	r.GET("/ws", controllers.DMSocket(hub))
}
