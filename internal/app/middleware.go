package app

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stolasapp/gather/internal/app/component"
	"github.com/stolasapp/gather/internal/content"
	"github.com/stolasapp/gather/internal/sec"
)

// resolveSession binds the identity of the request's session, if any, to the
// request context. Requests without a valid session continue anonymously.
func resolveSession(sessions *sec.Sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(sec.SessionCookie)
			if err != nil {
				return next(c)
			}
			ctx := c.Request().Context()
			if identity, ok := sessions.Resolve(ctx, cookie.Value); ok {
				ctx = sec.SetAuthenticatedUser(ctx, identity)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// authorize applies policy to every request path except skipped, redirecting
// anonymous requests for protected paths to the login form. The router matches
// the escaped path while the policy sees it decoded, so a request must pass
// under both forms.
func authorize(policy sec.Policy, skipped ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			paths := []string{req.URL.Path}
			if routed := echo.GetPath(req); routed != req.URL.Path {
				paths = append(paths, routed)
			}
			if !slices.ContainsFunc(paths, func(p string) bool { return !slices.Contains(skipped, p) }) {
				return next(c)
			}
			authenticated := !sec.GetAuthenticatedUser(req.Context()).IsAnonymous()
			for _, p := range paths {
				if policy.Authorize(p, authenticated) == sec.RequireAuthentication {
					return c.Redirect(http.StatusFound, component.PathLoginForm)
				}
			}
			return next(c)
		}
	}
}

// decodeForms converts submitted form values to valid UTF-8 according to the
// charset declared by the request.
func decodeForms(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			contentType := req.Header.Get(echo.HeaderContentType)
			if req.Method != http.MethodPost ||
				!strings.HasPrefix(contentType, echo.MIMEApplicationForm) {
				return next(c)
			}

			form, err := c.FormParams()
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "malformed form").WithInternal(err)
			}
			decode := content.UTF8Transformer(contentType)
			for key, values := range form {
				for i, value := range values {
					decoded, err := decode([]byte(value))
					if err != nil {
						logger.DebugContext(req.Context(), "failed to decode form value",
							slog.String("field", key), slog.Any("error", err))
						return echo.NewHTTPError(http.StatusBadRequest, "malformed form").WithInternal(err)
					}
					values[i] = string(decoded)
				}
			}
			return next(c)
		}
	}
}
