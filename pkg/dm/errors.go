package dm

import "errors"

var (
	// ErrSelfConversation rejects a DM addressed to the sender themselves.
	ErrSelfConversation = errors.New("cannot open a conversation with yourself")
	// ErrEmptyMessage rejects a message with no text and no attachments.
	ErrEmptyMessage = errors.New("message must carry text or attachments")
	// ErrForbidden rejects an author that is not a participant of the
	// target conversation.
	ErrForbidden = errors.New("not a participant of this conversation")
	// ErrNotFound covers unknown conversation and message ids.
	ErrNotFound = errors.New("not found")
)
