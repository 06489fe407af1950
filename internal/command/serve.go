package command

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stolasapp/gather/internal/app"
	"github.com/stolasapp/gather/internal/config"
	"github.com/stolasapp/gather/internal/devseed"
	"github.com/stolasapp/gather/internal/sec"
	"github.com/stolasapp/gather/internal/server"
	"github.com/stolasapp/gather/internal/storage"
)

// Credentials of the user created in dev mode.
const (
	devUserName     = "dev"
	devUserPassword = "password"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the event planning Web App",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			cfg, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			grp, ctx := errgroup.WithContext(cmd.Context())

			// In dev mode, make sure there is someone to log in as and
			// something to look at
			if cfg.DevMode {
				if err = seedDevData(ctx, logger, store); err != nil {
					return err
				}
			}

			sessionStore, err := newSessionStore(ctx, cfg, logger, store)
			if err != nil {
				return err
			}
			auth := sec.NewAuthenticator(store, logger)
			sessions := sec.NewSessions(
				sessionStore,
				auth,
				cfg.Session.TTL,
				logger,
				sec.WithSecureCookie(cfg.Session.SecureCookie),
			)

			appServer := app.New(cfg, logger, store, auth, sessions, sec.DefaultPolicy())
			serveApp(ctx, grp, cfg, logger, appServer)
			return grp.Wait()
		},
	}
}

func newSessionStore(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	store storage.Sessions,
) (sec.SessionStore, error) {
	if cfg.Session.Store != config.SessionStoreDatabase {
		return sec.NewMemorySessionStore(cfg.Session.TTL), nil
	}
	sessionStore := sec.NewDatabaseSessionStore(store)
	pruned, err := sessionStore.Prune(ctx)
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "pruned expired sessions", slog.Int64("count", pruned))
	return sessionStore, nil
}

func serveApp(
	ctx context.Context,
	grp *errgroup.Group,
	cfg *config.Config,
	logger *slog.Logger,
	srv *echo.Echo,
) {
	listener, err := server.Listen(ctx, cfg.WebAddress)
	if err != nil {
		grp.Go(func() error { return err })
		return
	}

	logger.InfoContext(ctx,
		"starting app server...",
		slog.String("address", listener.Addr().String()),
	)
	server.Serve(ctx, grp, srv.Server, listener, cfg.Server)
}

func seedDevData(ctx context.Context, logger *slog.Logger, store storage.Store) error {
	user, err := devseed.EnsureUser(ctx, store, devUserName, devUserPassword)
	if err != nil {
		return err
	}
	logger.WarnContext(ctx, "dev mode user available",
		slog.String("login_name", devUserName),
		slog.String("password", devUserPassword),
	)

	existing, err := store.ListEvents(ctx, 0, 1)
	if err != nil {
		return err
	} else if len(existing) > 0 {
		return nil
	}

	seed := devseed.Seed()
	events, err := devseed.Populate(ctx, store, devseed.New(seed, time.Now()), user.ID, devseed.DefaultCount)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "seeded dev events",
		slog.Int("count", len(events)),
		slog.Uint64("seed", seed),
	)
	return nil
}
