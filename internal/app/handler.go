package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/stolasapp/gather/internal/app/component"
	"github.com/stolasapp/gather/internal/content"
	"github.com/stolasapp/gather/internal/pagination"
	"github.com/stolasapp/gather/internal/sec"
	"github.com/stolasapp/gather/internal/storage"
	"github.com/stolasapp/gather/internal/storage/db"
)

const defaultPageSize = 25

type handler struct {
	logger     *slog.Logger
	store      storage.Store
	identities sec.IdentityProvider
	sessions   *sec.Sessions
	hash       func(password string) ([]byte, error)
}

func (h handler) register(e *echo.Echo) {
	e.GET(component.PathRoot, h.index)
	e.GET(component.PathIndex, h.index)

	// form login processing, reachable without a session
	e.POST(component.PathLogin, h.login)
	e.GET(component.PathLogout, h.logout)

	users := e.Group("/users")
	users.GET("/loginForm", h.loginForm)
	users.GET("/register", h.registerForm)
	users.POST("/register", h.registerUser)
	users.GET("/", h.home)
	users.GET("/logout", h.userLogout)

	events := e.Group("/events")
	events.GET("", h.listEvents)
	events.GET("/create", h.createEventForm)
	events.POST("/create", h.createEvent)
	events.GET("/edit/:id", h.editEventForm)
	events.POST("/edit/:id", h.editEvent)
	events.GET("/delete/:id", h.deleteEvent)
	events.GET("/search", h.searchForm)
	events.POST("/search", h.search)
}

func (h handler) index(c echo.Context) error {
	user := sec.GetAuthenticatedUser(c.Request().Context())
	return page(c, http.StatusOK, "", component.Index(user.LoginName))
}

func (h handler) loginForm(c echo.Context) error {
	return page(c, http.StatusOK, "Login", component.LoginForm(component.LoginFormProps{
		CSRF:   csrfToken(c),
		Failed: c.QueryParam(component.QueryError) == "true",
	}))
}

func (h handler) login(c echo.Context) error {
	ctx := c.Request().Context()
	identity, err := h.identities.Authenticate(
		ctx,
		c.FormValue(component.FieldLoginName),
		c.FormValue(component.FieldPassword),
	)
	if failure := (*sec.AuthFailure)(nil); errors.As(err, &failure) {
		return c.Redirect(http.StatusFound, component.LoginFailedURL())
	} else if err != nil {
		return err
	}

	// never carry a prior session over to the new identity
	if err = h.endSession(c); err != nil {
		return err
	}
	session, err := h.sessions.Create(ctx, identity)
	if err != nil {
		return err
	}
	c.SetCookie(h.sessions.Cookie(session))
	h.logger.InfoContext(ctx, "user logged in", slog.String("login_name", identity.LoginName))
	return c.Redirect(http.StatusFound, component.PathHome)
}

func (h handler) logout(c echo.Context) error {
	if err := h.endSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, component.PathIndex)
}

func (h handler) userLogout(c echo.Context) error {
	if err := h.endSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, component.PathLoginForm)
}

// endSession destroys the session carried by the request, if any, and clears
// the session cookie.
func (h handler) endSession(c echo.Context) error {
	cookie, err := c.Cookie(sec.SessionCookie)
	if err != nil {
		return nil //nolint:nilerr // no session to end
	}
	if err = h.sessions.Destroy(c.Request().Context(), cookie.Value); err != nil {
		return err
	}
	c.SetCookie(h.sessions.ExpiredCookie())
	return nil
}

type registration struct {
	LoginName string `form:"loginName" validate:"required"`
	Password  string `form:"password"  validate:"required"`
}

func (h handler) registerForm(c echo.Context) error {
	return page(c, http.StatusOK, "Register", component.RegisterForm(component.RegisterFormProps{
		CSRF: csrfToken(c),
	}))
}

func (h handler) registerUser(c echo.Context) error {
	ctx := c.Request().Context()
	var form registration
	errs, err := bindForm(c, &form)
	if err != nil {
		return err
	}
	rerender := func(msg string, errs map[string]string) error {
		return page(c, http.StatusOK, "Register", component.RegisterForm(component.RegisterFormProps{
			CSRF:      csrfToken(c),
			LoginName: form.LoginName,
			Error:     msg,
			Errors:    errs,
		}))
	}
	if len(errs) > 0 {
		return rerender("", errs)
	}

	if _, err = h.store.GetUserByName(ctx, form.LoginName); err == nil {
		return rerender(component.MessageUserExists, nil)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	hash, err := h.hash(form.Password)
	if err != nil {
		return err
	}

	// a concurrent registration may claim the name between lookup and insert
	_, err = h.store.CreateUser(ctx, db.User{
		LoginName:    form.LoginName,
		PasswordHash: hash,
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		return rerender(component.MessageUserExists, nil)
	} else if err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "user registered", slog.String("login_name", form.LoginName))
	return c.Redirect(http.StatusFound, component.PathLoginForm)
}

func (h handler) home(c echo.Context) error {
	user := sec.GetAuthenticatedUser(c.Request().Context())
	return page(c, http.StatusOK, "Home", component.Home(user.LoginName))
}

func (h handler) listEvents(c echo.Context) error {
	ctx := c.Request().Context()
	var afterID uint64
	if tkn := c.QueryParam(component.QueryPage); tkn != "" {
		cursor, err := pagination.FromToken[pagination.EventsToken](tkn)
		if err != nil {
			return toHTTPError(err)
		}
		afterID = cursor.AfterID
	}

	events, err := h.store.ListEvents(ctx, afterID, defaultPageSize+1)
	if err != nil {
		return err
	}
	var next string
	if len(events) > defaultPageSize {
		events = events[:defaultPageSize]
		next, err = pagination.ToToken(pagination.EventsToken{AfterID: events[len(events)-1].ID})
		if err != nil {
			return err
		}
	}
	return h.renderEvents(c, component.MessageAllEvents, events, next)
}

func (h handler) createEventForm(c echo.Context) error {
	return page(c, http.StatusOK, "Create Event", component.EventForm(component.EventFormProps{
		Action: component.PathEventCreate,
		Submit: "Create",
		CSRF:   csrfToken(c),
	}))
}

func (h handler) createEvent(c echo.Context) error {
	ctx := c.Request().Context()
	var values component.EventValues
	errs, err := bindForm(c, &values)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return page(c, http.StatusOK, "Create Event", component.EventForm(component.EventFormProps{
			Action: component.PathEventCreate,
			Submit: "Create",
			CSRF:   csrfToken(c),
			Values: values,
			Errors: errs,
		}))
	}

	organizer, err := h.store.GetUserByName(ctx, sec.GetAuthenticatedUser(ctx).LoginName)
	if err != nil {
		return fmt.Errorf("failed to load organizer: %w", err)
	}
	event, err := h.store.CreateEvent(ctx, db.Event{
		Name:        values.Name,
		Date:        values.Date,
		Location:    values.Location,
		Description: values.Description,
		OrganizerID: organizer.ID,
	})
	if err != nil {
		return err
	}
	h.logger.DebugContext(ctx, "event created", slog.Uint64("event_id", event.ID))
	return c.Redirect(http.StatusFound, component.PathEvents)
}

func (h handler) editEventForm(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := eventID(c)
	if err != nil {
		return err
	}
	event, err := h.store.GetEvent(ctx, id)
	if err != nil {
		return toHTTPError(err)
	}
	return page(c, http.StatusOK, "Edit Event", component.EventForm(component.EventFormProps{
		Action: component.EditEventURL(id),
		Submit: "Save",
		CSRF:   csrfToken(c),
		Values: component.EventValuesOf(event),
	}))
}

func (h handler) editEvent(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := eventID(c)
	if err != nil {
		return err
	}
	var values component.EventValues
	errs, err := bindForm(c, &values)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return page(c, http.StatusOK, "Edit Event", component.EventForm(component.EventFormProps{
			Action: component.EditEventURL(id),
			Submit: "Save",
			CSRF:   csrfToken(c),
			Values: values,
			Errors: errs,
		}))
	}

	err = h.store.UpdateEvent(ctx, db.Event{
		ID:          id,
		Name:        values.Name,
		Date:        values.Date,
		Location:    values.Location,
		Description: values.Description,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Redirect(http.StatusFound, component.PathEvents)
}

func (h handler) deleteEvent(c echo.Context) error {
	id, err := eventID(c)
	if err != nil {
		return err
	}
	if err = h.store.DeleteEvent(c.Request().Context(), id); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, component.PathEvents)
}

func (h handler) searchForm(c echo.Context) error {
	return page(c, http.StatusOK, "Search Events", component.SearchForm(component.SearchFormProps{
		CSRF: csrfToken(c),
	}))
}

func (h handler) search(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest).WithInternal(err)
	}
	if !form.Has(component.FieldSearchString) {
		return echo.NewHTTPError(http.StatusBadRequest, "missing "+component.FieldSearchString)
	}
	raw := form.Get(component.FieldSearchString)
	term := content.SanitizeSearch([]byte(raw))

	events, err := h.store.SearchEvents(c.Request().Context(), string(term))
	if err != nil {
		return err
	}
	return h.renderEvents(c, component.MessageSearchPrefix+raw, events, "")
}

func (h handler) renderEvents(c echo.Context, message string, events []db.Event, next string) error {
	items := make([]component.EventItem, 0, len(events))
	for _, event := range events {
		description, err := content.RenderDescription([]byte(event.Description))
		if err != nil {
			return fmt.Errorf("failed to render description of event %d: %w", event.ID, err)
		}
		items = append(items, component.EventItem{
			Event:           event,
			DescriptionHTML: string(description),
		})
	}
	return page(c, http.StatusOK, "Events", component.EventList(component.EventListProps{
		Message:  message,
		Events:   items,
		NextPage: next,
	}))
}

// eventID parses the event ID path parameter. Unparseable IDs cannot name an
// event, so they are reported as not found.
func eventID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusNotFound).WithInternal(err)
	}
	return id, nil
}

func csrfToken(c echo.Context) string {
	token, _ := c.Get(csrfContextKey).(string)
	return token
}

func toHTTPError(err error) error {
	if err == nil {
		return nil
	}

	// Already an HTTP error - pass through
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var tokenErr pagination.TokenError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound).WithInternal(err)
	case errors.As(err, &tokenErr):
		return echo.NewHTTPError(http.StatusBadRequest, tokenErr.Error()).WithInternal(err)
	}

	// Unknown error - return as-is for default handling
	return err
}

// page renders body within the site layout.
func page(c echo.Context, status int, title string, body templ.Component) error {
	user := sec.GetAuthenticatedUser(c.Request().Context())
	layout := component.Layout{Title: title, LoginName: user.LoginName}
	return render(c.Request().Context(), component.Page(layout, body), c.Response(), status)
}

var renderBufferPool = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

func render(ctx context.Context, component templ.Component, w *echo.Response, status int) error {
	buf := renderBufferPool.Get().(*bytes.Buffer) //nolint:forcetypeassert // guaranteed by impl
	defer renderBufferPool.Put(buf)
	buf.Reset()

	if err := component.Render(ctx, buf); err != nil {
		return toHTTPError(err)
	}
	w.Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	w.WriteHeader(status)
	_, err := io.Copy(w, buf)
	return toHTTPError(err)
}
