package component

import (
	"net/url"
	"strconv"
)

// Application paths.
const (
	PathRoot        = "/"
	PathIndex       = "/index"
	PathLogin       = "/login"
	PathLogout      = "/logout"
	PathLoginForm   = "/users/loginForm"
	PathRegister    = "/users/register"
	PathHome        = "/users/"
	PathUserLogout  = "/users/logout"
	PathEvents      = "/events"
	PathEventCreate = "/events/create"
	PathEventEdit   = "/events/edit/"
	PathEventDelete = "/events/delete/"
	PathEventSearch = "/events/search"
	PathCSS         = "/css/app.css"
	PathJS          = "/js/app.js"
)

// QueryError flags a failed login on the login form.
const QueryError = "error"

// QueryPage carries the events list pagination token.
const QueryPage = "page"

// LoginFailedURL is where failed logins are sent.
func LoginFailedURL() string {
	return PathLoginForm + "?" + url.Values{QueryError: {"true"}}.Encode()
}

// EventsURL returns the events list URL for the page starting at pageToken.
// An empty token is the first page.
func EventsURL(pageToken string) string {
	if pageToken == "" {
		return PathEvents
	}
	return PathEvents + "?" + url.Values{QueryPage: {pageToken}}.Encode()
}

// EditEventURL returns the edit form URL for an event.
func EditEventURL(id uint64) string {
	return PathEventEdit + strconv.FormatUint(id, 10)
}

// DeleteEventURL returns the delete URL for an event.
func DeleteEventURL(id uint64) string {
	return PathEventDelete + strconv.FormatUint(id, 10)
}
