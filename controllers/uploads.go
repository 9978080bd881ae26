package controllers

import (
	"net/http"

	"github.com/denxi342/discord-bot-dashboard/middleware"
	"github.com/denxi342/discord-bot-dashboard/pkg/services"

	"github.com/gin-gonic/gin"
)

// UploadAttachment handles POST /attachments: multipart "file" in, the
// {url, filename, kind} descriptor out. The descriptor is what the client
// embeds in a subsequent send.
func UploadAttachment(storage *services.AttachmentStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "not authenticated"})
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "file is required"})
			return
		}
		defer file.Close()

		att, err := storage.SaveAttachment(uid, file, header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, att)
	}
}
