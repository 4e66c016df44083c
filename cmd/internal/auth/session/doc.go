// Package session persists device sessions: per-login rows holding the
// access and refresh token material, their expirations and the refresh
// counter that serializes concurrent refresh attempts.
package session
