// Package component provides the views rendered by the gather web app.
package component

// Element IDs.
const (
	IDLoginForm    = "login-form"
	IDRegisterForm = "register-form"
	IDEventForm    = "event-form"
	IDSearchForm   = "search-form"
	IDEventList    = "event-list"
	IDFormError    = "form-error"
	IDCurrentUser  = "current-user"
)

// Form field names.
const (
	FieldCSRF         = "_csrf"
	FieldLoginName    = "loginName"
	FieldPassword     = "password"
	FieldName         = "name"
	FieldDate         = "date"
	FieldLocation     = "location"
	FieldDescription  = "description"
	FieldSearchString = "searchString"
)

// Data attribute names.
const (
	AttrEventID     = "event-id"
	DataAttrEventID = "data-" + AttrEventID
)

// CSS class names.
const (
	ClassSiteHeader  = "site-header"
	ClassSiteTitle   = "site-title"
	ClassEvent       = "event"
	ClassFieldError  = "field-error"
	ClassPagination  = "pagination"
	ClassDescription = "description"
	ClassMessage     = "message"
)

// User-facing messages.
const (
	MessageLoginFailed  = "Invalid login name or password."
	MessageUserExists   = "User already exists!"
	MessageAllEvents    = "Showing all events"
	MessageSearchPrefix = "Search results for "
)
