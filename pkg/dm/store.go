package dm

import (
	"errors"

	"github.com/denxi342/discord-bot-dashboard/models"

	"gorm.io/gorm"
)

// CanonicalPair maps an unordered pair of user ids to its stored order
// (lower id first), so that (a,b) and (b,a) always name the same
// conversation. A self pair is rejected, never stored.
func CanonicalPair(a, b uint) (low, high uint, err error) {
	if a == b {
		return 0, 0, ErrSelfConversation
	}
	if a < b {
		return a, b, nil
	}
	return b, a, nil
}

// ConversationStore owns lookup and creation of conversation rows. Creation
// is idempotent under concurrent callers: the unique index on the canonical
// pair makes the losing insert fail, and the loser re-selects the winner.
type ConversationStore struct {
	db *gorm.DB
}

func NewConversationStore(db *gorm.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// ResolveOrCreate returns the conversation id for the pair, inserting the row
// on first contact with last_activity_at = now.
func (s *ConversationStore) ResolveOrCreate(a, b uint, now float64) (uint, error) {
	low, high, err := CanonicalPair(a, b)
	if err != nil {
		return 0, err
	}

	var conv models.Conversation
	err = s.db.Where("participant_low = ? AND participant_high = ?", low, high).First(&conv).Error
	if err == nil {
		return conv.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	conv = models.Conversation{ParticipantLow: low, ParticipantHigh: high, LastActivityAt: now}
	err = s.db.Create(&conv).Error
	if err == nil {
		return conv.ID, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost the race; the winner's row exists now
		var winner models.Conversation
		if err2 := s.db.Where("participant_low = ? AND participant_high = ?", low, high).First(&winner).Error; err2 != nil {
			return 0, err2
		}
		return winner.ID, nil
	}
	return 0, err
}

// Touch updates last_activity_at. Plain last-write-wins; per-sender
// timestamps are monotonic so no max() dance is needed.
func (s *ConversationStore) Touch(conversationID uint, ts float64) error {
	return s.db.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("last_activity_at", ts).Error
}

// Summary is one inbox row: the conversation, who the other side is, and
// when it was last active.
type Summary struct {
	ConversationID uint
	OtherUserID    uint
	LastActivityAt float64
}

// ListForUser returns the user's conversations, most recently active first.
func (s *ConversationStore) ListForUser(userID uint) ([]Summary, error) {
	var convs []models.Conversation
	err := s.db.
		Where("participant_low = ? OR participant_high = ?", userID, userID).
		Order("last_activity_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(convs))
	for _, c := range convs {
		other := c.ParticipantLow
		if other == userID {
			other = c.ParticipantHigh
		}
		out = append(out, Summary{
			ConversationID: c.ID,
			OtherUserID:    other,
			LastActivityAt: c.LastActivityAt,
		})
	}
	return out, nil
}

// Participants returns the canonical pair for a conversation id.
func (s *ConversationStore) Participants(conversationID uint) (uint, uint, error) {
	var conv models.Conversation
	if err := s.db.First(&conv, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, ErrNotFound
		}
		return 0, 0, err
	}
	return conv.ParticipantLow, conv.ParticipantHigh, nil
}
