package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/denxi342/discord-bot-dashboard/middleware"
	"github.com/denxi342/discord-bot-dashboard/models"
	"github.com/denxi342/discord-bot-dashboard/pkg/dm"

	"github.com/gin-gonic/gin"
)

type sendDMRequest struct {
	Content     string              `json:"content"`
	ReplyToID   *uint               `json:"reply_to_id"`
	Attachments []models.Attachment `json:"attachments"`
}

// SendDirectMessage handles POST /dms/:user_id/messages.
func SendDirectMessage(svc *dm.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "not authenticated"})
			return
		}
		other, ok := pathUserID(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid user id"})
			return
		}

		var body sendDMRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		rendered, err := svc.Send(c.Request.Context(), dm.SendInput{
			SenderID:    uid,
			OtherUserID: other,
			Body:        body.Content,
			ReplyToID:   body.ReplyToID,
			Attachments: body.Attachments,
		})
		if err != nil {
			abortDMError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rendered)
	}
}

// ListDirectMessages handles GET /dms: the caller's inbox, most recent first.
func ListDirectMessages(svc *dm.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "not authenticated"})
			return
		}
		entries, err := svc.Inbox(c.Request.Context(), uid)
		if err != nil {
			abortDMError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

// DirectMessageHistory handles GET /dms/:user_id/messages. Opening a DM
// panel materializes the conversation, so this resolves-or-creates.
func DirectMessageHistory(svc *dm.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "not authenticated"})
			return
		}
		other, ok := pathUserID(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid user id"})
			return
		}

		convID, msgs, err := svc.History(c.Request.Context(), uid, other)
		if err != nil {
			abortDMError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"conversation_id": convID,
			"messages":        msgs,
		})
	}
}

// EditDirectMessage handles PATCH /dms/messages/:message_id (author only).
func EditDirectMessage(svc *dm.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "not authenticated"})
			return
		}
		msgID, ok := pathMessageID(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid message id"})
			return
		}

		var body struct {
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		rendered, err := svc.Edit(c.Request.Context(), msgID, uid, body.Content)
		if err != nil {
			abortDMError(c, err)
			return
		}
		c.JSON(http.StatusOK, rendered)
	}
}

// PinDirectMessage handles PUT and DELETE /dms/messages/:message_id/pin.
func PinDirectMessage(svc *dm.Service, pinned bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "not authenticated"})
			return
		}
		msgID, ok := pathMessageID(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid message id"})
			return
		}

		rendered, err := svc.SetPinned(c.Request.Context(), msgID, uid, pinned)
		if err != nil {
			abortDMError(c, err)
			return
		}
		c.JSON(http.StatusOK, rendered)
	}
}

func pathUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func pathMessageID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("message_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func abortDMError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dm.ErrSelfConversation):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "cannot message yourself"})
	case errors.Is(err, dm.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "message cannot be empty"})
	case errors.Is(err, dm.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"msg": "forbidden"})
	case errors.Is(err, dm.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
	}
}
