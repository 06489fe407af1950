// Package uitest drives the web app end to end: a real server on a loopback
// port, a browser-like client that follows links and submits forms, and
// goquery assertions over the rendered pages.
package uitest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/stolasapp/gather/internal/app"
	"github.com/stolasapp/gather/internal/config"
	"github.com/stolasapp/gather/internal/devseed"
	"github.com/stolasapp/gather/internal/sec"
	"github.com/stolasapp/gather/internal/server"
	"github.com/stolasapp/gather/internal/storage"
)

// TestSeed is the fixed seed used for reproducible test data.
const TestSeed uint64 = 12345

// Credentials of the seeded organizer.
const (
	TestUser     = "organizer"
	TestPassword = "organizer-password"
	TestEvents   = 30
)

// Server is a test server that runs the app with database-backed sessions.
type Server struct {
	baseURL string
	cancel  context.CancelFunc
	grp     *errgroup.Group
	store   storage.Store
}

// newTestServer creates and starts a new test server over the database at
// dbPath. It panics on errors so it can be used outside of a test.
func newTestServer(dbPath string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	grp, ctx := errgroup.WithContext(ctx)

	logger := slog.New(slog.DiscardHandler)

	cfg := testConfig(dbPath)
	store, err := storage.NewDB(ctx, cfg, logger)
	if err != nil {
		cancel()
		panic(fmt.Sprintf("failed to create storage: %v", err))
	}

	auth := sec.NewAuthenticator(store, logger)
	sessions := sec.NewSessions(sec.NewDatabaseSessionStore(store), auth, cfg.Session.TTL, logger)
	appServer := app.New(cfg, logger, store, auth, sessions, sec.DefaultPolicy())
	appAddr, err := startAppServer(ctx, grp, cfg, appServer)
	if err != nil {
		cancel()
		_ = store.Close()
		panic(fmt.Sprintf("failed to start app server: %v", err))
	}

	return &Server{
		baseURL: "http://" + appAddr,
		cancel:  cancel,
		grp:     grp,
		store:   store,
	}
}

// BaseURL returns the base URL of the test server.
func (s *Server) BaseURL() string {
	return s.baseURL
}

// Close shuts down the test server.
// Errors are ignored since this runs during test cleanup where failures
// are typically unrecoverable and already logged by the errgroup.
func (s *Server) Close() {
	s.cancel()
	_ = s.grp.Wait()
	_ = s.store.Close()
}

// Seed creates the test organizer and their generated events.
func (s *Server) Seed(ctx context.Context) error {
	user, err := devseed.EnsureUser(ctx, s.store, TestUser, TestPassword)
	if err != nil {
		return err
	}
	now := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err = devseed.Populate(ctx, s.store, devseed.New(TestSeed, now), user.ID, TestEvents)
	return err
}

func testConfig(dbPath string) *config.Config {
	cfg := config.Default()
	cfg.LogLevel = config.LogLevelDebug
	cfg.DevMode = true
	cfg.Database.Filepath = dbPath
	cfg.Session.Store = config.SessionStoreDatabase
	return cfg
}

func startAppServer(
	ctx context.Context,
	grp *errgroup.Group,
	cfg *config.Config,
	srv *echo.Echo,
) (string, error) {
	listener, err := server.Listen(ctx, "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	addr := listener.Addr().String()

	server.Serve(ctx, grp, srv.Server, listener, cfg.Server)

	return addr, nil
}

// URL constructs a full URL from the server base URL and a path.
func (s *Server) URL(path string) string {
	return fmt.Sprintf("%s%s", s.baseURL, path)
}

// dbPath returns the database file in dir.
func dbPath(dir string) string {
	return filepath.Join(dir, "db.sqlite")
}
