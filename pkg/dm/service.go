package dm

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/denxi342/discord-bot-dashboard/models"
	"github.com/denxi342/discord-bot-dashboard/pkg/cache"

	"gorm.io/gorm"
)

// EventNewDMMessage is the websocket event name for real-time DM delivery.
const EventNewDMMessage = "new_dm_message"

// Options tunes the author-snapshot cache. Zero values fall back to the
// defaults below.
type Options struct {
	UserCacheTTL      time.Duration
	UserCacheMaxItems int
}

// Service orchestrates a send: resolve-or-create conversation, validate,
// append, touch, fan out. Storage failures abort the send; a fan-out failure
// after the append committed is logged and swallowed, the recipient catches
// up on the next history fetch.
type Service struct {
	db      *gorm.DB
	store   *ConversationStore
	log     *MessageLog
	fanout  *Fanout
	users   *cache.Cache
	userTTL time.Duration
}

func NewService(db *gorm.DB, pub Publisher, opts Options) *Service {
	if opts.UserCacheTTL <= 0 {
		opts.UserCacheTTL = 5 * time.Minute
	}
	if opts.UserCacheMaxItems <= 0 {
		opts.UserCacheMaxItems = 500
	}
	store := NewConversationStore(db)
	return &Service{
		db:      db,
		store:   store,
		log:     NewMessageLog(db, store),
		fanout:  NewFanout(store, pub),
		users:   cache.New(opts.UserCacheMaxItems),
		userTTL: opts.UserCacheTTL,
	}
}

// Store exposes the conversation store for callers that need raw summaries.
func (s *Service) Store() *ConversationStore { return s.store }

type SendInput struct {
	SenderID    uint
	OtherUserID uint
	Body        string
	ReplyToID   *uint
	Attachments []models.Attachment
}

// RenderedMessage is the wire shape of one message: ids, the author display
// snapshot, and float epoch-seconds timestamps.
type RenderedMessage struct {
	MessageID      uint                  `json:"message_id"`
	ConversationID uint                  `json:"conversation_id"`
	AuthorID       uint                  `json:"author_id"`
	AuthorName     string                `json:"author_name"`
	Avatar         string                `json:"avatar"`
	Content        string                `json:"content"`
	Timestamp      float64               `json:"timestamp"`
	ReplyToID      *uint                 `json:"reply_to_id,omitempty"`
	Attachments    models.AttachmentList `json:"attachments,omitempty"`
	IsPinned       bool                  `json:"is_pinned,omitempty"`
	EditedAt       *float64              `json:"edited_at,omitempty"`
}

type InboxEntry struct {
	ConversationID uint    `json:"conversation_id"`
	OtherUserID    uint    `json:"other_user_id"`
	OtherName      string  `json:"other_name"`
	OtherAvatar    string  `json:"other_avatar"`
	LastActivityAt float64 `json:"last_activity_at"`
}

type dmEvent struct {
	Type string           `json:"type"`
	Data *RenderedMessage `json:"data"`
}

// Send runs the full orchestration and returns the rendered message for
// optimistic UI reconciliation.
func (s *Service) Send(ctx context.Context, in SendInput) (*RenderedMessage, error) {
	convID, err := s.store.ResolveOrCreate(in.SenderID, in.OtherUserID, now())
	if err != nil {
		return nil, err
	}

	msg, err := s.log.Append(convID, in.SenderID, in.Body, now(), in.ReplyToID, in.Attachments)
	if err != nil {
		return nil, err
	}
	if err := s.store.Touch(convID, msg.Timestamp); err != nil {
		return nil, err
	}

	rendered := s.render(msg)

	// best-effort delivery; the message is already durable
	payload, err := json.Marshal(dmEvent{Type: EventNewDMMessage, Data: rendered})
	if err == nil {
		err = s.fanout.Publish(ctx, convID, payload)
	}
	if err != nil {
		log.Printf("[dm] fanout failed for conversation %d: %v", convID, err)
	}

	return rendered, nil
}

// History returns the full ordered history with the other user, creating the
// conversation on first fetch (matches the web client contract: opening a DM
// panel materializes the conversation).
func (s *Service) History(ctx context.Context, userID, otherUserID uint) (uint, []*RenderedMessage, error) {
	convID, err := s.store.ResolveOrCreate(userID, otherUserID, now())
	if err != nil {
		return 0, nil, err
	}
	msgs, err := s.log.ListAll(convID)
	if err != nil {
		return 0, nil, err
	}
	out := make([]*RenderedMessage, 0, len(msgs))
	for i := range msgs {
		out = append(out, s.render(&msgs[i]))
	}
	return convID, out, nil
}

// Inbox returns the caller's conversation summaries, most recent first, with
// the other side's display snapshot resolved.
func (s *Service) Inbox(ctx context.Context, userID uint) ([]InboxEntry, error) {
	sums, err := s.store.ListForUser(userID)
	if err != nil {
		return nil, err
	}
	out := make([]InboxEntry, 0, len(sums))
	for _, sum := range sums {
		name, avatar := s.lookupUser(sum.OtherUserID)
		out = append(out, InboxEntry{
			ConversationID: sum.ConversationID,
			OtherUserID:    sum.OtherUserID,
			OtherName:      name,
			OtherAvatar:    avatar,
			LastActivityAt: sum.LastActivityAt,
		})
	}
	return out, nil
}

// Edit updates the body of an existing message (author only) and returns the
// re-rendered row.
func (s *Service) Edit(ctx context.Context, messageID, authorID uint, body string) (*RenderedMessage, error) {
	msg, err := s.log.Edit(messageID, authorID, body, now())
	if err != nil {
		return nil, err
	}
	return s.render(msg), nil
}

// SetPinned pins or unpins a message for both participants.
func (s *Service) SetPinned(ctx context.Context, messageID, userID uint, pinned bool) (*RenderedMessage, error) {
	msg, err := s.log.SetPinned(messageID, userID, pinned)
	if err != nil {
		return nil, err
	}
	return s.render(msg), nil
}

func (s *Service) render(m *models.Message) *RenderedMessage {
	name, avatar := s.lookupUser(m.AuthorID)
	return &RenderedMessage{
		MessageID:      m.ID,
		ConversationID: m.ConversationID,
		AuthorID:       m.AuthorID,
		AuthorName:     name,
		Avatar:         avatar,
		Content:        m.Content,
		Timestamp:      m.Timestamp,
		ReplyToID:      m.ReplyToID,
		Attachments:    m.Attachments,
		IsPinned:       m.IsPinned,
		EditedAt:       m.EditedAt,
	}
}

type userSnapshot struct {
	name   string
	avatar string
}

// lookupUser resolves the display snapshot for a user id through the bounded
// TTL cache so rendering a page of messages does not hammer the users table.
func (s *Service) lookupUser(userID uint) (string, string) {
	key := cache.KeyFromStrings("dm-user", strconv.FormatUint(uint64(userID), 10))
	if v, ok := s.users.Get(key); ok {
		if snap, ok2 := v.(userSnapshot); ok2 {
			return snap.name, snap.avatar
		}
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return "unknown", ""
	}
	snap := userSnapshot{name: user.Name(), avatar: user.AvatarURL}
	s.users.Set(key, snap, s.userTTL)
	return snap.name, snap.avatar
}

// InvalidateUser drops a cached snapshot, called after profile updates so new
// messages render with the fresh name/avatar.
func (s *Service) InvalidateUser(userID uint) {
	s.users.Delete(cache.KeyFromStrings("dm-user", strconv.FormatUint(uint64(userID), 10)))
}

func now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
