package app

import (
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/gather/internal/app/component"
	"github.com/stolasapp/gather/internal/config"
	"github.com/stolasapp/gather/internal/sec"
	"github.com/stolasapp/gather/internal/storage"
	"github.com/stolasapp/gather/internal/storage/db"
)

type testApp struct {
	t      *testing.T
	server *httptest.Server
	store  *storage.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	cfg := config.Default()
	cfg.Database.Filepath = filepath.Join(t.TempDir(), "db.sqlite")

	store, err := storage.NewDB(t.Context(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	auth := sec.NewAuthenticator(store, logger)
	sessions := sec.NewSessions(sec.NewMemorySessionStore(cfg.Session.TTL), auth, cfg.Session.TTL, logger)
	server := httptest.NewServer(New(cfg, logger, store, auth, sessions, sec.DefaultPolicy()))
	t.Cleanup(server.Close)

	return &testApp{t: t, server: server, store: store}
}

// createUser registers a user directly in the store.
func (a *testApp) createUser(name, password string) db.User {
	a.t.Helper()
	hash, err := sec.HashPassword(password)
	require.NoError(a.t, err)
	user, err := a.store.CreateUser(a.t.Context(), db.User{LoginName: name, PasswordHash: hash})
	require.NoError(a.t, err)
	return user
}

func (a *testApp) createEvent(organizer db.User, name, description string) db.Event {
	a.t.Helper()
	event, err := a.store.CreateEvent(a.t.Context(), db.Event{
		Name:        name,
		Date:        "2030-01-02",
		Location:    "Town Hall",
		Description: description,
		OrganizerID: organizer.ID,
	})
	require.NoError(a.t, err)
	return event
}

// client is a browser-like HTTP client: it keeps cookies and does not follow
// redirects so tests can assert on them.
type client struct {
	t    *testing.T
	base *url.URL
	http *http.Client
}

func (a *testApp) client(t *testing.T) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	base, err := url.Parse(a.server.URL)
	require.NoError(t, err)
	return &client{
		t:    t,
		base: base,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *client) do(req *http.Request) *http.Response {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (c *client) get(path string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequestWithContext(c.t.Context(), http.MethodGet, c.base.String()+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

func (c *client) document(path string) *goquery.Document {
	c.t.Helper()
	resp := c.get(path)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	return parse(c.t, resp)
}

// post submits form with the client's CSRF token.
func (c *client) post(path string, form url.Values) *http.Response {
	c.t.Helper()
	return c.postEncoded(path, formContentType, form)
}

const formContentType = "application/x-www-form-urlencoded"

func (c *client) postEncoded(path, contentType string, form url.Values) *http.Response {
	c.t.Helper()
	values := url.Values{}
	for key, vals := range form {
		values[key] = vals
	}
	if !values.Has(component.FieldCSRF) {
		values.Set(component.FieldCSRF, c.csrfToken())
	}
	req, err := http.NewRequestWithContext(c.t.Context(), http.MethodPost,
		c.base.String()+path, strings.NewReader(values.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

func (c *client) csrfToken() string {
	c.t.Helper()
	if token := c.cookie(component.FieldCSRF); token != "" {
		return token
	}
	doc := c.document(component.PathLoginForm)
	token, ok := doc.Find("input[name=" + component.FieldCSRF + "]").Attr("value")
	require.True(c.t, ok)
	return token
}

func (c *client) cookie(name string) string {
	for _, cookie := range c.http.Jar.Cookies(c.base) {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

func (c *client) login(name, password string) *http.Response {
	c.t.Helper()
	return c.post(component.PathLogin, url.Values{
		component.FieldLoginName: {name},
		component.FieldPassword:  {password},
	})
}

func parse(t *testing.T, resp *http.Response) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

func TestPublicPaths(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	paths := []string{
		component.PathRoot,
		component.PathIndex,
		component.PathLoginForm,
		component.PathRegister,
		component.PathCSS,
		component.PathJS,
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			resp := app.client(t).get(path)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestProtectedPaths(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	paths := []string{
		component.PathHome,
		component.PathUserLogout,
		component.PathEvents,
		component.PathEventCreate,
		component.PathEventSearch,
		component.EditEventURL(1),
		component.DeleteEventURL(1),
		"/unknown",
		"/users/../events",
		"/events/edit/..%2F..%2Fcss%2Fapp.css",
		"/events/..%2Fjs%2Fapp.js",
		"/users/..%2Fevents",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			resp := app.client(t).get(path)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, component.PathLoginForm, resp.Header.Get("Location"))
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.createUser("alice", "correct horse")

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		c := app.client(t)
		resp := c.login("alice", "correct horse")
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, component.PathHome, resp.Header.Get("Location"))
		assert.NotEmpty(t, c.cookie(sec.SessionCookie))

		doc := c.document(component.PathHome)
		assert.Equal(t, "alice", doc.Find("#"+component.IDCurrentUser).Text())

		resp = c.get(component.PathEvents)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name      string
			loginName string
			password  string
		}{
			{name: "unknown user", loginName: "mallory", password: "correct horse"},
			{name: "wrong password", loginName: "alice", password: "wrong"},
			{name: "wrong case", loginName: "Alice", password: "correct horse"},
			{name: "empty", loginName: "", password: ""},
		}
		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				t.Parallel()
				c := app.client(t)
				resp := c.login(test.loginName, test.password)
				assert.Equal(t, http.StatusFound, resp.StatusCode)
				assert.Equal(t, component.LoginFailedURL(), resp.Header.Get("Location"))
				assert.Empty(t, c.cookie(sec.SessionCookie))
			})
		}
	})

	t.Run("failure message", func(t *testing.T) {
		t.Parallel()
		doc := app.client(t).document(component.LoginFailedURL())
		assert.Equal(t, component.MessageLoginFailed, doc.Find("#"+component.IDFormError).Text())

		doc = app.client(t).document(component.PathLoginForm)
		assert.Zero(t, doc.Find("#"+component.IDFormError).Length())
	})

	t.Run("requires csrf token", func(t *testing.T) {
		t.Parallel()
		c := app.client(t)
		resp := c.post(component.PathLogin, url.Values{
			component.FieldCSRF:      {"forged"},
			component.FieldLoginName: {"alice"},
			component.FieldPassword:  {"correct horse"},
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Empty(t, c.cookie(sec.SessionCookie))
	})

	t.Run("replaces existing session", func(t *testing.T) {
		t.Parallel()
		c := app.client(t)
		c.login("alice", "correct horse")
		first := c.cookie(sec.SessionCookie)
		c.login("alice", "correct horse")
		second := c.cookie(sec.SessionCookie)
		require.NotEmpty(t, second)
		assert.NotEqual(t, first, second)

		stale := app.client(t)
		stale.http.Jar.SetCookies(stale.base, []*http.Cookie{{Name: sec.SessionCookie, Value: first}})
		resp := stale.get(component.PathEvents)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.createUser("bob", "password")

	tests := []struct {
		name     string
		path     string
		location string
	}{
		{name: "logout", path: component.PathLogout, location: component.PathIndex},
		{name: "user logout", path: component.PathUserLogout, location: component.PathLoginForm},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			c := app.client(t)
			c.login("bob", "password")
			token := c.cookie(sec.SessionCookie)
			require.NotEmpty(t, token)

			resp := c.get(test.path)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, test.location, resp.Header.Get("Location"))
			assert.Empty(t, c.cookie(sec.SessionCookie))

			// the token is dead server side, not only dropped by the client
			replay := app.client(t)
			replay.http.Jar.SetCookies(replay.base, []*http.Cookie{{Name: sec.SessionCookie, Value: token}})
			resp = replay.get(component.PathHome)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, component.PathLoginForm, resp.Header.Get("Location"))
		})
	}

	t.Run("without session", func(t *testing.T) {
		t.Parallel()
		c := app.client(t)
		for range 2 {
			resp := c.get(component.PathLogout)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, component.PathIndex, resp.Header.Get("Location"))
		}
	})
}

func TestRegister(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.createUser("taken", "original")

	t.Run("creates user", func(t *testing.T) {
		t.Parallel()
		c := app.client(t)
		resp := c.post(component.PathRegister, url.Values{
			component.FieldLoginName: {"newcomer"},
			component.FieldPassword:  {"s3cret"},
		})
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, component.PathLoginForm, resp.Header.Get("Location"))

		user, err := app.store.GetUserByName(t.Context(), "newcomer")
		require.NoError(t, err)
		assert.NotEqual(t, []byte("s3cret"), user.PasswordHash)

		resp = c.login("newcomer", "s3cret")
		assert.Equal(t, component.PathHome, resp.Header.Get("Location"))
	})

	t.Run("duplicate", func(t *testing.T) {
		t.Parallel()
		before, err := app.store.GetUserByName(t.Context(), "taken")
		require.NoError(t, err)

		c := app.client(t)
		resp := c.post(component.PathRegister, url.Values{
			component.FieldLoginName: {"taken"},
			component.FieldPassword:  {"replacement"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		doc := parse(t, resp)
		assert.Equal(t, component.MessageUserExists, doc.Find("#"+component.IDFormError).Text())
		value, _ := doc.Find("input[name=" + component.FieldLoginName + "]").Attr("value")
		assert.Equal(t, "taken", value)

		after, err := app.store.GetUserByName(t.Context(), "taken")
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Equal(t, component.LoginFailedURL(), c.login("taken", "replacement").Header.Get("Location"))
	})

	t.Run("any login name", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"jo", "alice@example.com", "Jane Doe", "émilie"} {
			c := app.client(t)
			resp := c.post(component.PathRegister, url.Values{
				component.FieldLoginName: {name},
				component.FieldPassword:  {"password"},
			})
			require.Equal(t, http.StatusFound, resp.StatusCode, name)
			_, err := app.store.GetUserByName(t.Context(), name)
			require.NoError(t, err, name)
			assert.Equal(t, component.PathHome, c.login(name, "password").Header.Get("Location"), name)
		}
	})

	t.Run("long password", func(t *testing.T) {
		t.Parallel()
		password := strings.Repeat("x", 80)
		c := app.client(t)
		resp := c.post(component.PathRegister, url.Values{
			component.FieldLoginName: {"longpass"},
			component.FieldPassword:  {password},
		})
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, component.PathHome, c.login("longpass", password).Header.Get("Location"))
		assert.Equal(t, component.LoginFailedURL(),
			app.client(t).login("longpass", strings.Repeat("x", 72)).Header.Get("Location"))
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name      string
			loginName string
			password  string
			field     string
		}{
			{name: "missing login name", password: "password", field: component.FieldLoginName},
			{name: "missing password", loginName: "nopassword", field: component.FieldPassword},
		}
		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				t.Parallel()
				resp := app.client(t).post(component.PathRegister, url.Values{
					component.FieldLoginName: {test.loginName},
					component.FieldPassword:  {test.password},
				})
				require.Equal(t, http.StatusOK, resp.StatusCode)
				doc := parse(t, resp)
				assert.Equal(t, 1, doc.Find("."+component.ClassFieldError).Length())

				_, err := app.store.GetUserByName(t.Context(), test.loginName)
				assert.ErrorIs(t, err, storage.ErrNotFound)
			})
		}
	})
}

func TestRegister_DuplicateSkipsHashing(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.createUser("taken", "original")

	var hashed int
	h := handler{
		logger: slog.New(slog.DiscardHandler),
		store:  app.store,
		hash: func(password string) ([]byte, error) {
			hashed++
			return sec.HashPassword(password)
		},
	}
	srv := echo.New()
	register := func(loginName string) *httptest.ResponseRecorder {
		form := url.Values{
			component.FieldLoginName: {loginName},
			component.FieldPassword:  {"password"},
		}
		req := httptest.NewRequest(http.MethodPost, component.PathRegister, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := httptest.NewRecorder()
		require.NoError(t, h.registerUser(srv.NewContext(req, rec)))
		return rec
	}

	rec := register("taken")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), component.MessageUserExists)
	assert.Zero(t, hashed)

	rec = register("fresh")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, 1, hashed)
}

func TestEvents(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.createUser("carol", "password")
	faker := gofakeit.New(0)

	c := app.client(t)
	c.login("carol", "password")

	name := faker.Sentence(3)
	resp := c.post(component.PathEventCreate, url.Values{
		component.FieldName:        {name},
		component.FieldDate:        {"2030-05-06"},
		component.FieldLocation:    {faker.City()},
		component.FieldDescription: {"Bring **snacks**.\n\n<script>alert(1)</script>"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, component.PathEvents, resp.Header.Get("Location"))

	doc := c.document(component.PathEvents)
	items := doc.Find("#" + component.IDEventList + " ." + component.ClassEvent)
	require.Equal(t, 1, items.Length())
	assert.Equal(t, name, items.Find("h2").Text())
	assert.Equal(t, "snacks", items.Find("."+component.ClassDescription+" strong").Text())
	assert.Zero(t, items.Find("script").Length())

	id, ok := items.Attr(component.DataAttrEventID)
	require.True(t, ok)
	events, err := app.store.ListEvents(t.Context(), 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	event := events[0]
	assert.Equal(t, component.EditEventURL(event.ID), component.PathEventEdit+id)
	carol, err := app.store.GetUserByName(t.Context(), "carol")
	require.NoError(t, err)
	assert.Equal(t, carol.ID, event.OrganizerID)

	doc = c.document(component.EditEventURL(event.ID))
	value, _ := doc.Find("input[name=" + component.FieldName + "]").Attr("value")
	assert.Equal(t, name, value)

	resp = c.post(component.EditEventURL(event.ID), url.Values{
		component.FieldName:        {"Renamed"},
		component.FieldDate:        {"2030-05-07"},
		component.FieldLocation:    {"Park"},
		component.FieldDescription: {"Updated"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	updated, err := app.store.GetEvent(t.Context(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "2030-05-07", updated.Date)
	assert.Equal(t, carol.ID, updated.OrganizerID)

	resp = c.get(component.DeleteEventURL(event.ID))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, component.PathEvents, resp.Header.Get("Location"))
	_, err = app.store.GetEvent(t.Context(), event.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, c.get(component.EditEventURL(event.ID)).StatusCode)
	assert.Equal(t, http.StatusNotFound, c.get(component.PathEventEdit+"abc").StatusCode)
}

func TestEvents_Validation(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.createUser("dave", "password")
	c := app.client(t)
	c.login("dave", "password")

	resp := c.post(component.PathEventCreate, url.Values{
		component.FieldName:     {"Picnic"},
		component.FieldDate:     {"next tuesday"},
		component.FieldLocation: {""},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := parse(t, resp)
	assert.Equal(t, 3, doc.Find("."+component.ClassFieldError).Length())
	value, _ := doc.Find("input[name=" + component.FieldName + "]").Attr("value")
	assert.Equal(t, "Picnic", value)

	events, err := app.store.ListEvents(t.Context(), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

// Any authenticated user may edit or delete any event; there is no
// per-organizer ownership check.
func TestEvents_NoOwnershipCheck(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	owner := app.createUser("owner", "password")
	app.createUser("other", "password")
	event := app.createEvent(owner, "Owned", "mine")

	c := app.client(t)
	c.login("other", "password")
	resp := c.post(component.EditEventURL(event.ID), url.Values{
		component.FieldName:        {"Taken over"},
		component.FieldDate:        {event.Date},
		component.FieldLocation:    {event.Location},
		component.FieldDescription: {event.Description},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	resp = c.get(component.DeleteEventURL(event.ID))
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	_, err := app.store.GetEvent(t.Context(), event.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEvents_Pagination(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	user := app.createUser("erin", "password")
	faker := gofakeit.New(0)
	for range defaultPageSize + 1 {
		app.createEvent(user, faker.Sentence(2), faker.Sentence(6))
	}
	c := app.client(t)
	c.login("erin", "password")

	doc := c.document(component.PathEvents)
	assert.Equal(t, defaultPageSize, doc.Find("."+component.ClassEvent).Length())
	next, ok := doc.Find("." + component.ClassPagination + " a").Attr("href")
	require.True(t, ok)

	doc = c.document(next)
	assert.Equal(t, 1, doc.Find("."+component.ClassEvent).Length())
	assert.Zero(t, doc.Find("."+component.ClassPagination).Length())

	resp := c.get(component.EventsURL("not-a-token"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearch(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	user := app.createUser("frank", "password")
	app.createEvent(user, "Jazz night", "live jazz music")
	app.createEvent(user, "Book club", "Reading group")

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{name: "single word", search: "jazz", want: []string{"Jazz night"}},
		{name: "case insensitive", search: "READING", want: []string{"Book club"}},
		{name: "keywords stripped", search: "DROP jazz;--", want: []string{"Jazz night"}},
		// spaces are stripped too, so multi-word terms never match
		{name: "multiple words collapse", search: "live jazz", want: nil},
		{name: "empty matches everything", search: "", want: []string{"Jazz night", "Book club"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			c := app.client(t)
			c.login("frank", "password")
			resp := c.post(component.PathEventSearch, url.Values{
				component.FieldSearchString: {test.search},
			})
			require.Equal(t, http.StatusOK, resp.StatusCode)
			doc := parse(t, resp)
			assert.Equal(t, component.MessageSearchPrefix+test.search,
				doc.Find("."+component.ClassMessage).Text())

			var got []string
			doc.Find("." + component.ClassEvent + " h2").Each(func(_ int, s *goquery.Selection) {
				got = append(got, s.Text())
			})
			assert.ElementsMatch(t, test.want, got)
		})
	}

	t.Run("missing search string", func(t *testing.T) {
		t.Parallel()
		c := app.client(t)
		c.login("frank", "password")
		resp := c.post(component.PathEventSearch, url.Values{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDecodeForms(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.createUser("gina", "password")
	c := app.client(t)
	c.login("gina", "password")

	resp := c.postEncoded(component.PathEventCreate, formContentType+"; charset=windows-1252", url.Values{
		component.FieldName:        {"Caf\xe9 meetup"},
		component.FieldDate:        {"2030-01-01"},
		component.FieldLocation:    {"Caf\xe9"},
		component.FieldDescription: {"Coffee"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	events, err := app.store.ListEvents(t.Context(), 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Café meetup", events[0].Name)
	assert.Equal(t, "Café", events[0].Location)
}
