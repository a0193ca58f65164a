package rooms

import "errors"

var (
	ErrNotAuthenticated   = errors.New("no authenticated identity")
	ErrSelfConversation   = errors.New("cannot open a conversation with yourself")
	ErrBackendUnavailable = errors.New("data backend unavailable")
	ErrPartnerNotFound    = errors.New("conversation partner not found")
)
