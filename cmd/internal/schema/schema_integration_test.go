package schema

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"walrus/cmd/identity"
	"walrus/cmd/internal/auth"
	"walrus/cmd/internal/auth/session"
	"walrus/cmd/internal/chat"
	"walrus/cmd/internal/validate"
	"walrus/cmd/security/token"
)

// Integration tests are enabled when WALRUS_DATABASE_URL is set. They own
// the whole schema: Init on entry, Drop on cleanup, so point them at a
// dedicated test database.

func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("WALRUS_DATABASE_URL")
	if dbURL == "" {
		t.Skip("WALRUS_DATABASE_URL is not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	// A failed earlier run may have left the schema behind.
	if err := Drop(ctx, pool); err != nil {
		t.Fatalf("Drop (pre-clean): %v", err)
	}
	if err := Init(ctx, pool); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() {
		if err := Drop(context.Background(), pool); err != nil {
			t.Errorf("Drop: %v", err)
		}
	})
	return pool
}

func testDevice() auth.DeviceContext {
	return auth.DeviceContext{IP: netip.MustParseAddr("127.0.0.1"), Device: "test", OS: "linux", App: "walrus-test/1.0"}
}

func TestPostgres_FullAuthFlow(t *testing.T) {
	ctx := context.Background()
	pool := integrationPool(t)

	users := identity.NewPostgresStore(pool)
	sessions := session.NewPostgresStore(pool)
	chats := chat.NewPostgresStore(pool)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	authSvc := auth.NewService(log, auth.DefaultConfig(), users, sessions)
	chatSvc := chat.NewService(log, chats, users)

	now := time.Now().UTC()

	// The origin admin is seeded by Init and can log in.
	originEx, err := authSvc.Login(ctx, OriginAlias, OriginPassword, testDevice(), now)
	if err != nil {
		t.Fatalf("origin login: %v", err)
	}
	originID, err := resolve(ctx, authSvc, originEx, now)
	if err != nil {
		t.Fatalf("origin resolve: %v", err)
	}

	role, err := users.UserRole(ctx, originID)
	if err != nil || role != identity.RoleAdmin {
		t.Fatalf("origin role = %v, %v, want admin", role, err)
	}

	// Invite creates the user row and its self chat together.
	userID, err := authSvc.InviteUser(ctx, originID, "user_a", "User A", "passfora1", identity.RoleRegular, now)
	if err != nil {
		t.Fatalf("InviteUser: %v", err)
	}
	selfChats, err := chatSvc.ListChats(ctx, userID, 10, 1)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(selfChats) != 1 || selfChats[0].Kind != chat.KindWithSelf {
		t.Fatalf("invited user's chats = %+v, want one with_self chat", selfChats)
	}

	// Duplicate alias rolls the whole transaction back.
	if _, err := authSvc.InviteUser(ctx, originID, "user_a", "User A", "passfora1", identity.RoleRegular, now); !errors.Is(err, validate.ErrInvalidInput) {
		t.Fatalf("duplicate alias: err = %v, want ErrInvalidInput", err)
	}

	// Login, refresh, replay, logout against the real sessions table.
	ex, err := authSvc.Login(ctx, "user_a", "passfora1", testDevice(), now)
	if err != nil {
		t.Fatalf("user login: %v", err)
	}
	sessionID, refreshTok, err := token.Unpack(ex.RefreshToken)
	if err != nil {
		t.Fatalf("unpack refresh: %v", err)
	}

	fresh, err := authSvc.RefreshSession(ctx, sessionID, refreshTok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("RefreshSession: %v", err)
	}
	if _, err := authSvc.RefreshSession(ctx, sessionID, refreshTok, now.Add(time.Minute)); !errors.Is(err, auth.ErrBadCredentials) {
		t.Fatalf("replayed refresh: err = %v, want ErrBadCredentials", err)
	}

	if _, err := resolve(ctx, authSvc, fresh, now.Add(time.Minute)); err != nil {
		t.Fatalf("resolve rotated token: %v", err)
	}
	if _, err := resolve(ctx, authSvc, ex, now.Add(time.Minute)); !errors.Is(err, auth.ErrTokenNotFound) {
		t.Fatalf("resolve pre-refresh token: err = %v, want ErrTokenNotFound", err)
	}

	if err := authSvc.Logout(ctx, sessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := authSvc.Logout(ctx, sessionID); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if _, err := resolve(ctx, authSvc, fresh, now.Add(time.Minute)); !errors.Is(err, auth.ErrTokenNotFound) {
		t.Fatalf("resolve after logout: err = %v, want ErrTokenNotFound", err)
	}
}

func TestPostgres_SessionCapAndConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	pool := integrationPool(t)

	users := identity.NewPostgresStore(pool)
	sessions := session.NewPostgresStore(pool)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := auth.DefaultConfig()
	cfg.MaxSessionsPerUser = 3
	authSvc := auth.NewService(log, cfg, users, sessions)

	now := time.Now().UTC()
	origin, err := authSvc.Login(ctx, OriginAlias, OriginPassword, testDevice(), now)
	if err != nil {
		t.Fatalf("origin login: %v", err)
	}
	originID, err := resolve(ctx, authSvc, origin, now)
	if err != nil {
		t.Fatalf("origin resolve: %v", err)
	}
	if _, err := authSvc.InviteUser(ctx, originID, "capped", "Capped", "password1", identity.RoleRegular, now); err != nil {
		t.Fatalf("InviteUser: %v", err)
	}

	var exchanges []auth.TokenExchange
	for i := 0; i <= cfg.MaxSessionsPerUser; i++ {
		ex, err := authSvc.Login(ctx, "capped", "password1", testDevice(), now.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
		exchanges = append(exchanges, ex)
	}

	resolveAt := now.Add(time.Minute)
	if _, err := resolve(ctx, authSvc, exchanges[0], resolveAt); !errors.Is(err, auth.ErrTokenNotFound) {
		t.Fatalf("evicted session: err = %v, want ErrTokenNotFound", err)
	}
	for i := 1; i < len(exchanges); i++ {
		if _, err := resolve(ctx, authSvc, exchanges[i], resolveAt); err != nil {
			t.Fatalf("session %d should resolve: %v", i, err)
		}
	}

	// The conditional update admits exactly one of two stale-counter writes.
	sessionID, _, err := token.Unpack(exchanges[1].AccessToken)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	rec, ok, err := sessions.RefreshRecord(ctx, sessionID)
	if err != nil || !ok {
		t.Fatalf("RefreshRecord: ok=%v err=%v", ok, err)
	}
	update := func() (bool, error) {
		tok, err := token.NewSessionToken()
		if err != nil {
			t.Fatalf("NewSessionToken: %v", err)
		}
		return sessions.UpdateTokens(ctx, session.UpdateInput{
			SessionID:        sessionID,
			RefreshToken:     tok,
			RefreshExpiresAt: resolveAt.Add(cfg.RefreshTokenTTL),
			AccessToken:      tok,
			AccessExpiresAt:  resolveAt.Add(cfg.AccessTokenTTL),
			ExpectedCounter:  rec.Counter,
			Now:              resolveAt,
		})
	}
	won, err := update()
	if err != nil || !won {
		t.Fatalf("first conditional update: won=%v err=%v", won, err)
	}
	won, err = update()
	if err != nil {
		t.Fatalf("second conditional update: %v", err)
	}
	if won {
		t.Fatalf("stale-counter update won")
	}
}

func resolve(ctx context.Context, svc *auth.Service, ex auth.TokenExchange, now time.Time) (identity.UserID, error) {
	sessionID, accessTok, err := token.Unpack(ex.AccessToken)
	if err != nil {
		return 0, err
	}
	return svc.ResolveAccessToken(ctx, sessionID, accessTok, now)
}
