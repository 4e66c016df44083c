// Package validate holds the field validation rules shared by the auth and
// chat services, and the typed validation errors they surface.
package validate

import (
	"fmt"
	"strings"
)

const (
	AliasLengthLimit       = 30
	DisplayNameLengthLimit = 30
	PasswordMinLength      = 8
	PasswordMaxLength      = 80
	MessageTextLengthLimit = 4096
)

// Alias checks a user alias: non-empty, at most AliasLengthLimit chars,
// each from [A-Za-z0-9_]. Aliases are case-sensitive.
func Alias(alias string) error {
	for _, ch := range alias {
		if !isAliasChar(ch) {
			return InvalidInputError{
				Value:  alias,
				Reason: "alias can only contain letters, numbers and underscores",
			}
		}
	}
	if alias == "" {
		return InvalidInputError{Value: alias, Reason: "user alias cannot be empty"}
	}
	if len(alias) > AliasLengthLimit {
		return InvalidInputError{
			Value:  alias,
			Reason: fmt.Sprintf("user alias cannot be longer than %d chars", AliasLengthLimit),
		}
	}
	return nil
}

func isAliasChar(ch rune) bool {
	switch {
	case ch >= 'a' && ch <= 'z':
		return true
	case ch >= 'A' && ch <= 'Z':
		return true
	case ch >= '0' && ch <= '9':
		return true
	case ch == '_':
		return true
	}
	return false
}

// DisplayName checks a display name: already trimmed, non-empty, at most
// DisplayNameLengthLimit chars.
func DisplayName(name string) error {
	if strings.TrimSpace(name) != name {
		return InvalidInputError{
			Value:  name,
			Reason: "user display name cannot be surrounded with whitespace characters",
		}
	}
	if name == "" {
		return InvalidInputError{Value: name, Reason: "user display name cannot be empty"}
	}
	if len(name) > DisplayNameLengthLimit {
		return InvalidInputError{
			Value:  name,
			Reason: fmt.Sprintf("user display name cannot be longer than %d chars", DisplayNameLengthLimit),
		}
	}
	return nil
}

// Password checks password length bounds. There is no character-class
// constraint. The offending value is always rendered as "<password>".
func Password(pw string) error {
	if len(pw) < PasswordMinLength || len(pw) > PasswordMaxLength {
		return InvalidInputError{
			Value: "<password>",
			Reason: fmt.Sprintf("password should be at least %d and at most %d characters long",
				PasswordMinLength, PasswordMaxLength),
		}
	}
	return nil
}

// MessageText checks message content: non-empty after trimming, at most
// MessageTextLengthLimit bytes.
func MessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return InvalidInputError{Value: text, Reason: "message text cannot be empty"}
	}
	if len(text) > MessageTextLengthLimit {
		return LimitExceededError{
			Subject:   "message text",
			Unit:      "byte",
			Attempted: len(text),
			Limit:     MessageTextLengthLimit,
		}
	}
	return nil
}
