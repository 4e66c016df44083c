// Package app wires the walrus server runtime: config, logging, stores,
// services and HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"walrus/cmd/identity"
	"walrus/cmd/internal/api"
	"walrus/cmd/internal/auth"
	"walrus/cmd/internal/auth/session"
	"walrus/cmd/internal/chat"
	"walrus/cmd/internal/schema"
	"walrus/cmd/security/password"
)

// App is the walrus server runtime.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	registry *prometheus.Registry
	handler  *api.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.Log.Level)
	}

	var (
		dbPool    *pgxpool.Pool
		dbEnabled bool

		users    identity.Store
		sessions session.Store
		chats    chat.Store
		resolver chat.AliasResolver
	)

	if cfg.DatabaseEnabled() {
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("db.enabled.postgres_store")

		dbPool = pool
		dbEnabled = true

		userStore := identity.NewPostgresStore(pool)
		users = userStore
		resolver = userStore
		sessions = session.NewPostgresStore(pool)
		chats = chat.NewPostgresStore(pool)
	} else {
		log.Info("db.disabled.inmemory_store")

		chatMem := chat.NewMemoryStore()
		userMem := identity.NewMemoryStore(chatMem)
		if err := seedOriginUser(ctx, userMem); err != nil {
			return nil, err
		}

		users = userMem
		resolver = userMem
		sessions = session.NewMemoryStore()
		chats = chatMem
	}

	authSvc := auth.NewService(log, auth.DefaultConfig(), users, sessions)
	chatSvc := chat.NewService(log, chats, resolver)

	registry := prometheus.NewRegistry()
	handler := api.NewHandler(log, authSvc, chatSvc, api.NewMetrics(registry))

	return &App{
		cfg:       cfg,
		log:       log,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		registry:  registry,
		handler:   handler,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.dbPool, a.dbEnabled, a.registry, a.handler)

	srv := &http.Server{
		Addr:              a.cfg.Server.Address,
		Handler:           WithRequestLogging(mux, a.log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.log.Info("server.start", "addr", a.cfg.Server.Address, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

// seedOriginUser gives the in-memory mode the same bootstrap admin that
// schema.Init seeds into Postgres.
func seedOriginUser(ctx context.Context, users identity.Store) error {
	salt, err := password.NewSalt()
	if err != nil {
		return err
	}
	_, err = users.CreateUserWithSelfChat(ctx, identity.CreateUserInput{
		Alias:       schema.OriginAlias,
		DisplayName: schema.OriginDisplayName,
		Role:        identity.RoleAdmin,
		Salt:        salt,
		Hash:        password.Hash(schema.OriginPassword, salt),
		Now:         time.Now().UTC(),
	})
	return err
}
