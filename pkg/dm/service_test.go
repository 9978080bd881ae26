package dm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/denxi342/discord-bot-dashboard/models"

	"gorm.io/gorm"
)

type capturingPublisher struct {
	mu       sync.Mutex
	users    []uint
	payloads [][]byte
	fail     bool
}

func (p *capturingPublisher) PublishUser(ctx context.Context, userID uint, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("transport down")
	}
	p.users = append(p.users, userID)
	p.payloads = append(p.payloads, payload)
	return nil
}

func newTestService(t *testing.T, pub Publisher) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	for _, u := range []struct {
		id     uint
		name   string
		avatar string
	}{
		{10, "alex", "http://cdn/10.png"},
		{42, "marina", "http://cdn/42.png"},
	} {
		user := models.User{
			Model:     gorm.Model{ID: u.id},
			Email:     u.name + "@example.com",
			Username:  u.name,
			AvatarURL: u.avatar,
		}
		if err := user.SetPassword("pass1word"); err != nil {
			t.Fatalf("set password: %v", err)
		}
		if err := db.Create(&user).Error; err != nil {
			t.Fatalf("create user %d: %v", u.id, err)
		}
	}
	return NewService(db, pub, Options{}), db
}

func TestSendFirstContactScenario(t *testing.T) {
	pub := &capturingPublisher{}
	svc, db := newTestService(t, pub)
	ctx := context.Background()

	rendered, err := svc.Send(ctx, SendInput{SenderID: 10, OtherUserID: 42, Body: "hi"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if rendered.AuthorID != 10 || rendered.Content != "hi" {
		t.Fatalf("unexpected rendered message: %+v", rendered)
	}
	if rendered.AuthorName != "alex" || rendered.Avatar != "http://cdn/10.png" {
		t.Fatalf("expected author snapshot, got %q %q", rendered.AuthorName, rendered.Avatar)
	}

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected one conversation row, got %d", count)
	}

	for _, uid := range []uint{10, 42} {
		inbox, err := svc.Inbox(ctx, uid)
		if err != nil {
			t.Fatalf("inbox %d: %v", uid, err)
		}
		if len(inbox) != 1 || inbox[0].ConversationID != rendered.ConversationID {
			t.Fatalf("user %d: expected one inbox entry for conversation %d, got %+v", uid, rendered.ConversationID, inbox)
		}
	}

	// reply from the other side reuses the same conversation
	back, err := svc.Send(ctx, SendInput{SenderID: 42, OtherUserID: 10, Body: "hey back"})
	if err != nil {
		t.Fatalf("reply send: %v", err)
	}
	if back.ConversationID != rendered.ConversationID {
		t.Fatalf("expected conversation reuse, got %d vs %d", back.ConversationID, rendered.ConversationID)
	}
	db.Model(&models.Conversation{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected still one conversation row, got %d", count)
	}

	_, msgs, err := svc.History(ctx, 10, 42)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "hi" || msgs[1].Content != "hey back" {
		t.Fatalf("expected both messages in send order, got %+v", msgs)
	}
}

func TestSendRejectsSelf(t *testing.T) {
	svc, db := newTestService(t, &capturingPublisher{})

	if _, err := svc.Send(context.Background(), SendInput{SenderID: 10, OtherUserID: 10, Body: "x"}); err != ErrSelfConversation {
		t.Fatalf("expected ErrSelfConversation, got %v", err)
	}
	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no conversation row for self-DM, got %d", count)
	}
}

func TestSendRejectsEmptyPayload(t *testing.T) {
	svc, _ := newTestService(t, &capturingPublisher{})
	ctx := context.Background()

	if _, err := svc.Send(ctx, SendInput{SenderID: 10, OtherUserID: 42, Body: ""}); err != ErrEmptyMessage {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	att := []models.Attachment{{URL: "http://x/a.png", Filename: "a.png", Kind: "image"}}
	rendered, err := svc.Send(ctx, SendInput{SenderID: 10, OtherUserID: 42, Body: "", Attachments: att})
	if err != nil {
		t.Fatalf("attachment-only send: %v", err)
	}

	_, msgs, err := svc.History(ctx, 42, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(msgs) != 1 || msgs[0].MessageID != rendered.MessageID || len(msgs[0].Attachments) != 1 {
		t.Fatalf("expected retrievable attachment-only message, got %+v", msgs)
	}
}

func TestFanoutReachesBothParticipants(t *testing.T) {
	pub := &capturingPublisher{}
	svc, _ := newTestService(t, pub)

	rendered, err := svc.Send(context.Background(), SendInput{SenderID: 42, OtherUserID: 10, Body: "ping"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(pub.users) != 2 {
		t.Fatalf("expected exactly two recipients, got %v", pub.users)
	}
	seen := map[uint]bool{}
	for _, u := range pub.users {
		seen[u] = true
	}
	if !seen[10] || !seen[42] {
		t.Fatalf("expected recipients {10,42}, got %v", pub.users)
	}

	var ev struct {
		Type string           `json:"type"`
		Data *RenderedMessage `json:"data"`
	}
	if err := json.Unmarshal(pub.payloads[0], &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != EventNewDMMessage {
		t.Fatalf("expected event type %q, got %q", EventNewDMMessage, ev.Type)
	}
	if ev.Data == nil || ev.Data.MessageID != rendered.MessageID || ev.Data.Content != "ping" {
		t.Fatalf("unexpected event payload: %+v", ev.Data)
	}
}

func TestPublishFailureDoesNotRollBack(t *testing.T) {
	svc, _ := newTestService(t, &capturingPublisher{fail: true})
	ctx := context.Background()

	rendered, err := svc.Send(ctx, SendInput{SenderID: 10, OtherUserID: 42, Body: "still here"})
	if err != nil {
		t.Fatalf("send must survive a transport failure: %v", err)
	}

	_, msgs, err := svc.History(ctx, 42, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(msgs) != 1 || msgs[0].MessageID != rendered.MessageID {
		t.Fatalf("expected the message to be durably stored, got %+v", msgs)
	}
}

func TestHistoryCreatesConversation(t *testing.T) {
	svc, db := newTestService(t, &capturingPublisher{})

	convID, msgs, err := svc.History(context.Background(), 10, 42)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if convID == 0 || len(msgs) != 0 {
		t.Fatalf("expected empty history with a materialized conversation, got %d %+v", convID, msgs)
	}
	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected history fetch to create the conversation, got %d rows", count)
	}
}

func TestInboxRecencyAfterSend(t *testing.T) {
	svc, db := newTestService(t, &capturingPublisher{})
	ctx := context.Background()

	third := models.User{Model: gorm.Model{ID: 77}, Email: "v@example.com", Username: "vlad"}
	if err := third.SetPassword("pass1word"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := db.Create(&third).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := svc.Send(ctx, SendInput{SenderID: 10, OtherUserID: 42, Body: "older"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Send(ctx, SendInput{SenderID: 10, OtherUserID: 77, Body: "newer"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	inbox, err := svc.Inbox(ctx, 10)
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != 2 {
		t.Fatalf("expected two conversations, got %d", len(inbox))
	}
	if inbox[0].OtherUserID != 77 || inbox[1].OtherUserID != 42 {
		t.Fatalf("expected recency order [77 42], got [%d %d]", inbox[0].OtherUserID, inbox[1].OtherUserID)
	}
	if inbox[1].OtherName != "marina" {
		t.Fatalf("expected other snapshot resolved, got %q", inbox[1].OtherName)
	}
}
