package component

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Index is the public landing page.
func Index(loginName string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<p>Plan events and find what is happening near you.</p><p>`)
		if loginName == "" {
			h.navLink(PathLoginForm, "Log in")
			h.raw(` or `)
			h.navLink(PathRegister, "create an account")
			h.raw(`.`)
		} else {
			h.navLink(PathEvents, "Browse events")
		}
		h.raw(`</p>`)
		return h.err
	})
}

// LoginFormProps configures [LoginForm].
type LoginFormProps struct {
	CSRF string
	// Failed shows the generic login failure message.
	Failed bool
}

// LoginForm posts credentials to the login endpoint.
func LoginForm(props LoginFormProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		if props.Failed {
			h.raw(`<p id="`, IDFormError, `" role="alert">`)
			h.text(MessageLoginFailed)
			h.raw(`</p>`)
		}
		h.raw(`<form id="`, IDLoginForm, `" method="post"`)
		h.attr("action", PathLogin)
		h.raw(`>`)
		h.csrf(props.CSRF)
		h.field("Login name", "text", FieldLoginName, "", "")
		h.field("Password", "password", FieldPassword, "", "")
		h.raw(`<button type="submit">Log in</button></form><p>No account? `)
		h.navLink(PathRegister, "Register")
		h.raw(`</p>`)
		return h.err
	})
}

// RegisterFormProps configures [RegisterForm].
type RegisterFormProps struct {
	CSRF      string
	LoginName string
	// Error is a form-level message, such as a duplicate login name.
	Error  string
	Errors map[string]string
}

// RegisterForm creates a new account.
func RegisterForm(props RegisterFormProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		if props.Error != "" {
			h.raw(`<p id="`, IDFormError, `" role="alert">`)
			h.text(props.Error)
			h.raw(`</p>`)
		}
		h.raw(`<form id="`, IDRegisterForm, `" method="post"`)
		h.attr("action", PathRegister)
		h.raw(`>`)
		h.csrf(props.CSRF)
		h.field("Login name", "text", FieldLoginName, props.LoginName, props.Errors[FieldLoginName])
		h.field("Password", "password", FieldPassword, "", props.Errors[FieldPassword])
		h.raw(`<button type="submit">Register</button></form>`)
		return h.err
	})
}

// Home is the landing page for signed in users.
func Home(loginName string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<p class="`, ClassMessage, `">Welcome, `)
		h.text(loginName)
		h.raw(`!</p><ul><li>`)
		h.navLink(PathEvents, "Browse events")
		h.raw(`</li><li>`)
		h.navLink(PathEventCreate, "Create an event")
		h.raw(`</li><li>`)
		h.navLink(PathEventSearch, "Search events")
		h.raw(`</li><li>`)
		h.navLink(PathUserLogout, "Log out")
		h.raw(`</li></ul>`)
		return h.err
	})
}
