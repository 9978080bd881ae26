package realtime

import (
	"context"
	"errors"
	"testing"
)

type fakeSession struct {
	payloads [][]byte
	fail     bool
}

func (s *fakeSession) Send(payload []byte) error {
	if s.fail {
		return errors.New("session dead")
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

func TestHubPublishToAllSessions(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	a := &fakeSession{}
	b := &fakeSession{}
	hub.Attach(7, a)
	hub.Attach(7, b)

	if err := hub.PublishUser(ctx, 7, []byte("hello")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(a.payloads) != 1 || len(b.payloads) != 1 {
		t.Fatalf("expected both sessions to receive, got %d and %d", len(a.payloads), len(b.payloads))
	}
	if string(a.payloads[0]) != "hello" {
		t.Fatalf("unexpected payload %q", a.payloads[0])
	}
}

func TestHubPublishToAbsentUserIsNoop(t *testing.T) {
	hub := NewHub()
	if err := hub.PublishUser(context.Background(), 999, []byte("x")); err != nil {
		t.Fatalf("publishing to absent user must be a no-op, got %v", err)
	}
}

func TestHubDetach(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	s := &fakeSession{}
	id := hub.Attach(7, s)
	if hub.SessionCount(7) != 1 {
		t.Fatalf("expected one session, got %d", hub.SessionCount(7))
	}

	hub.Detach(7, id)
	if hub.SessionCount(7) != 0 {
		t.Fatalf("expected zero sessions after detach, got %d", hub.SessionCount(7))
	}
	if err := hub.PublishUser(ctx, 7, []byte("late")); err != nil {
		t.Fatalf("publish after detach: %v", err)
	}
	if len(s.payloads) != 0 {
		t.Fatalf("detached session must not receive, got %d payloads", len(s.payloads))
	}
}

func TestHubFailedSessionDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()

	bad := &fakeSession{fail: true}
	good := &fakeSession{}
	hub.Attach(7, bad)
	hub.Attach(7, good)

	if err := hub.PublishUser(context.Background(), 7, []byte("msg")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(good.payloads) != 1 {
		t.Fatalf("healthy session must still receive, got %d payloads", len(good.payloads))
	}
}
