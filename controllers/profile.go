package controllers

import (
	"net/http"
	"strings"

	"github.com/denxi342/discord-bot-dashboard/middleware"
	"github.com/denxi342/discord-bot-dashboard/models"
	"github.com/denxi342/discord-bot-dashboard/pkg/dm"
	utils "github.com/denxi342/discord-bot-dashboard/pkg/utills"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Profile(db *gorm.DB, svc *dm.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "not authenticated"})
			return
		}

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
			return
		}

		if c.Request.Method == http.MethodGet {
			c.JSON(http.StatusOK, gin.H{
				"id":           user.ID,
				"email":        user.Email,
				"username":     user.Username,
				"display_name": user.DisplayName,
				"avatar_url":   user.AvatarURL,
			})
			return
		}

		// PUT
		var body struct {
			Email       string `json:"email"`
			Username    string `json:"username"`
			DisplayName string `json:"display_name"`
			AvatarURL   string `json:"avatar_url"`
			Password    string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		newEmail := strings.TrimSpace(strings.ToLower(body.Email))
		if newEmail == "" {
			newEmail = user.Email
		}
		newUsername := strings.TrimSpace(body.Username)
		if newUsername == "" {
			newUsername = user.Username
		}

		// check email uniqueness
		if newEmail != user.Email {
			var t models.User
			if err := db.Where("email = ?", newEmail).First(&t).Error; err == nil {
				c.JSON(http.StatusConflict, gin.H{"msg": "Email already exists"})
				return
			}
		}
		// check username uniqueness
		if newUsername != user.Username {
			var t models.User
			if err := db.Where("username = ?", newUsername).First(&t).Error; err == nil {
				c.JSON(http.StatusConflict, gin.H{"msg": "Username already exists"})
				return
			}
		}

		user.Email = newEmail
		user.Username = newUsername
		if body.DisplayName != "" {
			user.DisplayName = strings.TrimSpace(body.DisplayName)
		}
		if body.AvatarURL != "" {
			user.AvatarURL = strings.TrimSpace(body.AvatarURL)
		}
		if body.Password != "" {
			if !utils.HasLetter(body.Password) || !utils.HasNumber(body.Password) {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "New password must contain at least one letter and one number"})
				return
			}
			if err := user.SetPassword(body.Password); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to set password"})
				return
			}
		}
		if err := db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to update profile"})
			return
		}

		// stale name/avatar snapshots would otherwise linger in DM rendering
		svc.InvalidateUser(user.ID)

		c.JSON(http.StatusOK, gin.H{"msg": "Profile updated successfully"})
	}
}
