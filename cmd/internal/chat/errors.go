package chat

import "errors"

// ErrChatGone is a store-level error for writes against a chat row that no
// longer exists. The service layer gates on membership first, so callers
// normally see validate.ErrNotFound instead.
var ErrChatGone = errors.New("chat does not exist")
