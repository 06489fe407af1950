package component

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Layout describes the page chrome around a view.
type Layout struct {
	Title string
	// LoginName is the signed in user, or empty when anonymous.
	LoginName string
}

// Page wraps body in the site layout.
func Page(layout Layout, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		if layout.Title != "" {
			h.text(layout.Title + " | ")
		}
		h.raw(`gather</title><link rel="stylesheet"`)
		h.href(PathCSS)
		h.raw(`><script defer`)
		h.attr("src", PathJS)
		h.raw(`></script></head><body>`)

		h.raw(`<header class="`, ClassSiteHeader, `"><a class="`, ClassSiteTitle, `"`)
		h.href(PathIndex)
		h.raw(`>gather</a><nav>`)
		if layout.LoginName == "" {
			h.navLink(PathLoginForm, "Log in")
			h.navLink(PathRegister, "Register")
		} else {
			h.navLink(PathHome, "Home")
			h.navLink(PathEvents, "Events")
			h.navLink(PathEventCreate, "New event")
			h.navLink(PathEventSearch, "Search")
			h.raw(`<span id="`, IDCurrentUser, `">`)
			h.text(layout.LoginName)
			h.raw(`</span>`)
			h.navLink(PathLogout, "Log out")
		}
		h.raw(`</nav></header><main>`)
		if layout.Title != "" {
			h.raw(`<h1>`)
			h.text(layout.Title)
			h.raw(`</h1>`)
		}
		h.render(body)
		h.raw(`</main></body></html>`)
		return h.err
	})
}

func (h *htmlWriter) navLink(url, label string) {
	h.raw(`<a`)
	h.href(url)
	h.raw(`>`)
	h.text(label)
	h.raw(`</a>`)
}
