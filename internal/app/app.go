// Package app contains the web front-end.
package app

import (
	"embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/stolasapp/gather/internal/app/component"
	"github.com/stolasapp/gather/internal/config"
	"github.com/stolasapp/gather/internal/sec"
	"github.com/stolasapp/gather/internal/storage"
)

const csrfContextKey = "csrf"

//go:embed static
var staticFiles embed.FS

// New creates a web front-end server. Requests resolve their session through
// sessions, and are authorized against policy before reaching a handler.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	store storage.Store,
	identities sec.IdentityProvider,
	sessions *sec.Sessions,
	policy sec.Policy,
) *echo.Echo {
	srv := echo.New()

	srv.HideBanner = true
	srv.HidePort = true
	srv.Logger.SetLevel(log.OFF)

	if cfg.DevMode {
		srv.Debug = true
		srv.Use(logRequests(logger))
	} else {
		srv.Use(middleware.Recover())
	}

	srv.Use(
		middleware.Decompress(),
		middleware.Gzip(),
		middleware.Secure(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Generator: uuid.NewString,
		}),
		middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "form:" + component.FieldCSRF + ",header:" + echo.HeaderXCSRFToken,
			ContextKey:     csrfContextKey,
			CookieName:     component.FieldCSRF,
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   cfg.Session.SecureCookie,
			CookieSameSite: http.SameSiteLaxMode,
		}),
		decodeForms(logger),
		resolveSession(sessions),
		authorize(policy, component.PathLogin, component.PathLogout),
	)

	handler{
		logger:     logger,
		store:      store,
		identities: identities,
		sessions:   sessions,
		hash:       sec.HashPassword[string],
	}.register(srv)

	srv.StaticFS("/css", echo.MustSubFS(staticFiles, "static/css"))
	srv.StaticFS("/js", echo.MustSubFS(staticFiles, "static/js"))
	return srv
}

func logRequests(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("uri", req.RequestURI),
				slog.String("route", c.Path()),
				slog.Duration("latency", latency),
				slog.Int("status", res.Status),
				slog.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			}
			if user := sec.GetAuthenticatedUser(req.Context()); !user.IsAnonymous() {
				attrs = append(attrs, slog.String("login_name", user.LoginName))
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			logger.LogAttrs(
				req.Context(),
				slog.LevelDebug,
				"request handled",
				attrs...,
			)
			return err
		}
	}
}
