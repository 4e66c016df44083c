package auth

import "errors"

var (
	// ErrBadCredentials covers every login and refresh rejection, wrong
	// password and unknown alias alike, so responses cannot be used to
	// probe which aliases exist.
	ErrBadCredentials = errors.New("bad auth or refresh credentials")

	// ErrInterrupted means a concurrent refresh won the counter race.
	ErrInterrupted = errors.New("interrupted operation")

	// ErrExpired means the refresh token is past its TTL.
	ErrExpired = errors.New("operation is not valid anymore, likely requires session refresh or re-login")

	// ErrTokenNotFound covers an absent session and a mismatched access
	// token alike; callers cannot tell which.
	ErrTokenNotFound = errors.New("token cannot be found")

	// ErrTokenExpired means the access token is past its TTL.
	ErrTokenExpired = errors.New("token has expired")
)
