package token

import "errors"

// ErrBadToken is returned when a packed credential cannot be decoded.
var ErrBadToken = errors.New("missing or bad token")
