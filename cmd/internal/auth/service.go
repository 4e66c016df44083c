package auth

import (
	"context"
	"log/slog"
	"net/netip"
	"time"

	"github.com/google/uuid"

	"walrus/cmd/identity"
	"walrus/cmd/internal/auth/session"
	"walrus/cmd/internal/validate"
	"walrus/cmd/security/password"
	"walrus/cmd/security/token"
)

// DeviceContext is the audit material the transport layer extracts from a
// login or refresh request.
type DeviceContext struct {
	IP     netip.Addr
	Device string
	OS     string
	App    string
}

// TokenExchange is the credential payload handed to a client after login
// or refresh. Both tokens are packed for transport.
type TokenExchange struct {
	SessionID uuid.UUID

	AccessToken          string
	AccessTokenExpiresAt time.Time

	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// Service owns the authentication and session lifecycle.
type Service struct {
	log      *slog.Logger
	cfg      Config
	users    identity.Store
	sessions session.Store
}

// NewService wires the auth service to its stores.
func NewService(log *slog.Logger, cfg Config, users identity.Store, sessions session.Store) *Service {
	return &Service{log: log, cfg: cfg, users: users, sessions: sessions}
}

// decoy material keeps a missing alias on the same hashing path as a
// password mismatch.
var (
	decoySalt = make([]byte, password.SaltBytes)
	decoyHash = make([]byte, password.HashBytes)
)

// InviteUser creates a user on behalf of an admin caller. The new user
// row and its personal chat commit together. An empty newRole defaults
// to regular; admins can invite other admins.
func (s *Service) InviteUser(ctx context.Context, callerID identity.UserID, alias, displayName, plaintext string, newRole identity.Role, now time.Time) (identity.UserID, error) {
	role, err := s.users.UserRole(ctx, callerID)
	if err != nil {
		return 0, err
	}
	if role != identity.RoleAdmin {
		return 0, validate.InsufficientPermissionsError{
			Current:  string(role),
			Required: string(identity.RoleAdmin),
		}
	}

	if newRole == "" {
		newRole = identity.RoleRegular
	}
	if !newRole.Valid() {
		return 0, validate.InvalidInputError{Value: string(newRole), Reason: "unknown role"}
	}
	if err := validate.Alias(alias); err != nil {
		return 0, err
	}
	if err := validate.DisplayName(displayName); err != nil {
		return 0, err
	}
	if err := validate.Password(plaintext); err != nil {
		return 0, err
	}

	salt, err := password.NewSalt()
	if err != nil {
		return 0, err
	}

	invitedBy := callerID
	userID, err := s.users.CreateUserWithSelfChat(ctx, identity.CreateUserInput{
		Alias:       alias,
		DisplayName: displayName,
		Role:        newRole,
		Salt:        salt,
		Hash:        password.Hash(plaintext, salt),
		InvitedBy:   &invitedBy,
		Now:         now,
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("auth.user.invited",
		slog.Int("user_id", int(userID)),
		slog.String("role", string(newRole)),
		slog.Int("invited_by", int(callerID)))
	return userID, nil
}

// Login checks the password and opens a session. The session insert and
// the per-user cap enforcement commit together, so the observable session
// count never exceeds the cap.
func (s *Service) Login(ctx context.Context, alias, plaintext string, dev DeviceContext, now time.Time) (TokenExchange, error) {
	creds, ok, err := s.users.CredentialsByAlias(ctx, alias)
	if err != nil {
		return TokenExchange{}, err
	}
	if !ok {
		password.Verify(plaintext, decoySalt, decoyHash)
		return TokenExchange{}, ErrBadCredentials
	}
	if !password.Verify(plaintext, creds.Salt, creds.Hash) {
		s.log.Debug("auth.login.denied", slog.Int("user_id", int(creds.UserID)))
		return TokenExchange{}, ErrBadCredentials
	}

	refreshTok, err := token.NewSessionToken()
	if err != nil {
		return TokenExchange{}, err
	}
	accessTok, err := token.NewSessionToken()
	if err != nil {
		return TokenExchange{}, err
	}
	refreshExpiry := now.Add(s.cfg.RefreshTokenTTL)
	accessExpiry := now.Add(s.cfg.AccessTokenTTL)

	sessionID, err := s.sessions.Create(ctx, session.CreateInput{
		UserID: creds.UserID,
		IP:     dev.IP,
		Device: dev.Device,
		OS:     dev.OS,
		App:    dev.App,

		RefreshToken:     refreshTok,
		RefreshExpiresAt: refreshExpiry,
		AccessToken:      accessTok,
		AccessExpiresAt:  accessExpiry,

		Now:         now,
		MaxSessions: s.cfg.MaxSessionsPerUser,
	})
	if err != nil {
		return TokenExchange{}, err
	}

	s.log.Info("auth.login",
		slog.Int("user_id", int(creds.UserID)),
		slog.String("session_id", sessionID.String()))
	return s.exchange(sessionID, accessTok, accessExpiry, refreshTok, refreshExpiry), nil
}

// ResolveAccessToken authenticates one request. An absent session and a
// mismatched token are indistinguishable to the caller.
func (s *Service) ResolveAccessToken(ctx context.Context, sessionID uuid.UUID, accessToken []byte, now time.Time) (identity.UserID, error) {
	rec, ok, err := s.sessions.AccessRecord(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrTokenNotFound
	}
	if !token.Equal(accessToken, rec.AccessToken) {
		return 0, ErrTokenNotFound
	}
	if !now.Before(rec.ExpiresAt) {
		return 0, ErrTokenExpired
	}
	return rec.UserID, nil
}

// RefreshSession rotates both tokens. The counter-conditional update lets
// exactly one of several concurrent refreshes through; the rest fail with
// ErrInterrupted and must present the winner's tokens or re-login.
func (s *Service) RefreshSession(ctx context.Context, sessionID uuid.UUID, refreshToken []byte, now time.Time) (TokenExchange, error) {
	rec, ok, err := s.sessions.RefreshRecord(ctx, sessionID)
	if err != nil {
		return TokenExchange{}, err
	}
	if !ok {
		return TokenExchange{}, ErrBadCredentials
	}
	if !token.Equal(refreshToken, rec.RefreshToken) {
		return TokenExchange{}, ErrBadCredentials
	}
	if !now.Before(rec.ExpiresAt) {
		return TokenExchange{}, ErrExpired
	}

	newRefresh, err := token.NewSessionToken()
	if err != nil {
		return TokenExchange{}, err
	}
	newAccess, err := token.NewSessionToken()
	if err != nil {
		return TokenExchange{}, err
	}
	refreshExpiry := now.Add(s.cfg.RefreshTokenTTL)
	accessExpiry := now.Add(s.cfg.AccessTokenTTL)

	won, err := s.sessions.UpdateTokens(ctx, session.UpdateInput{
		SessionID: sessionID,

		RefreshToken:     newRefresh,
		RefreshExpiresAt: refreshExpiry,
		AccessToken:      newAccess,
		AccessExpiresAt:  accessExpiry,

		ExpectedCounter: rec.Counter,
		Now:             now,
	})
	if err != nil {
		return TokenExchange{}, err
	}
	if !won {
		s.log.Debug("auth.refresh.interrupted", slog.String("session_id", sessionID.String()))
		return TokenExchange{}, ErrInterrupted
	}

	s.log.Info("auth.refresh", slog.String("session_id", sessionID.String()))
	return s.exchange(sessionID, newAccess, accessExpiry, newRefresh, refreshExpiry), nil
}

// Logout removes the session. Removing an already-removed session
// succeeds, so repeated logouts of the same session are harmless.
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.Remove(ctx, sessionID); err != nil {
		return err
	}
	s.log.Info("auth.logout", slog.String("session_id", sessionID.String()))
	return nil
}

func (s *Service) exchange(sessionID uuid.UUID, access []byte, accessExpiry time.Time, refresh []byte, refreshExpiry time.Time) TokenExchange {
	return TokenExchange{
		SessionID: sessionID,

		AccessToken:          token.Pack(sessionID, access),
		AccessTokenExpiresAt: accessExpiry,

		RefreshToken:          token.Pack(sessionID, refresh),
		RefreshTokenExpiresAt: refreshExpiry,
	}
}
