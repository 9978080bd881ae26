package dm

import "context"

// Publisher delivers a payload to every live session subscribed under a user
// id. Delivery is best-effort; a user with no session is a no-op.
type Publisher interface {
	PublishUser(ctx context.Context, userID uint, payload []byte) error
}

// Fanout resolves the two participants of a conversation and publishes the
// payload to both, the sender included (other tabs of the sender render from
// the same event). Channels are keyed by user id, not conversation id, so
// one subscription covers all of a user's conversations.
type Fanout struct {
	store *ConversationStore
	pub   Publisher
}

func NewFanout(store *ConversationStore, pub Publisher) *Fanout {
	return &Fanout{store: store, pub: pub}
}

// Publish emits the payload to both participants. The last publish error is
// returned so callers can log it, but a partial delivery is not unwound.
func (f *Fanout) Publish(ctx context.Context, conversationID uint, payload []byte) error {
	low, high, err := f.store.Participants(conversationID)
	if err != nil {
		return err
	}
	var last error
	for _, uid := range [2]uint{low, high} {
		if err := f.pub.PublishUser(ctx, uid, payload); err != nil {
			last = err
		}
	}
	return last
}
