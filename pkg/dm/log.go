package dm

import (
	"errors"
	"strings"

	"github.com/denxi342/discord-bot-dashboard/models"

	"gorm.io/gorm"
)

// MessageLog owns append and ordered retrieval of the messages inside one
// conversation. Rows are immutable after insert except for the edit and pin
// fields, which have their own mutations below.
type MessageLog struct {
	db    *gorm.DB
	store *ConversationStore
}

func NewMessageLog(db *gorm.DB, store *ConversationStore) *MessageLog {
	return &MessageLog{db: db, store: store}
}

// Append inserts one message row. The author must be one of the two
// participants, and the message must carry text or at least one attachment.
// Each call produces its own row; concurrent sends from both sides are
// ordered by timestamp with insertion id as tiebreak, never by locking.
func (l *MessageLog) Append(conversationID, authorID uint, body string, ts float64, replyTo *uint, attachments []models.Attachment) (*models.Message, error) {
	low, high, err := l.store.Participants(conversationID)
	if err != nil {
		return nil, err
	}
	if authorID != low && authorID != high {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(body) == "" && len(attachments) == 0 {
		return nil, ErrEmptyMessage
	}
	if replyTo != nil {
		// reply targets stay inside the conversation
		var target models.Message
		if err := l.db.First(&target, *replyTo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if target.ConversationID != conversationID {
			return nil, ErrNotFound
		}
	}

	msg := models.Message{
		ConversationID: conversationID,
		AuthorID:       authorID,
		Content:        body,
		Timestamp:      ts,
		ReplyToID:      replyTo,
		Attachments:    attachments,
	}
	if err := l.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListAll returns the full history, ascending by timestamp then insertion id.
// No pagination; history size is bounded only by the conversation itself.
func (l *MessageLog) ListAll(conversationID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := l.db.
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// Edit replaces the body of an existing message and stamps edited_at. Only
// the author may edit; an edit may not empty a text-only message.
func (l *MessageLog) Edit(messageID, authorID uint, body string, editedAt float64) (*models.Message, error) {
	var msg models.Message
	if err := l.db.First(&msg, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if msg.AuthorID != authorID {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(body) == "" && len(msg.Attachments) == 0 {
		return nil, ErrEmptyMessage
	}

	msg.Content = body
	msg.EditedAt = &editedAt
	if err := l.db.Model(&msg).Updates(map[string]any{"content": body, "edited_at": editedAt}).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// SetPinned flips the pin flag. Any participant of the conversation may pin
// or unpin.
func (l *MessageLog) SetPinned(messageID, userID uint, pinned bool) (*models.Message, error) {
	var msg models.Message
	if err := l.db.First(&msg, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	low, high, err := l.store.Participants(msg.ConversationID)
	if err != nil {
		return nil, err
	}
	if userID != low && userID != high {
		return nil, ErrForbidden
	}

	msg.IsPinned = pinned
	if err := l.db.Model(&msg).Update("is_pinned", pinned).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}
