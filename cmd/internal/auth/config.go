package auth

import "time"

// Config carries the session-lifecycle knobs.
type Config struct {
	// AccessTokenTTL bounds how long a resolved access token stays valid.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL bounds how long a session can be refreshed.
	RefreshTokenTTL time.Duration

	// MaxSessionsPerUser caps live sessions per account; logins past the
	// cap evict the sessions closest to access expiry.
	MaxSessionsPerUser int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:     2 * time.Hour,
		RefreshTokenTTL:    14 * 24 * time.Hour,
		MaxSessionsPerUser: 100,
	}
}
