package component

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// htmlWriter accumulates the first write error so views can emit markup
// without checking every call.
type htmlWriter struct {
	ctx context.Context //nolint:containedctx // scoped to a single render
	w   io.Writer
	err error
}

func newHTMLWriter(ctx context.Context, w io.Writer) *htmlWriter {
	return &htmlWriter{ctx: ctx, w: w}
}

func (h *htmlWriter) raw(parts ...string) {
	for _, part := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, part)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// attr writes ` name="value"` with value escaped.
func (h *htmlWriter) attr(name, value string) {
	h.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

// href writes an href attribute, replacing unsafe URLs.
func (h *htmlWriter) href(url string) {
	h.attr("href", string(templ.URL(url)))
}

func (h *htmlWriter) render(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

func (h *htmlWriter) csrf(token string) {
	h.raw(`<input type="hidden"`)
	h.attr("name", FieldCSRF)
	h.attr("value", token)
	h.raw(">")
}

// field writes a labelled input with its validation message, if any.
func (h *htmlWriter) field(label, typ, name, value, errMsg string) {
	h.raw(`<label>`)
	h.text(label)
	h.raw(`<input`)
	h.attr("type", typ)
	h.attr("name", name)
	if typ != "password" {
		h.attr("value", value)
	}
	h.raw(`></label>`)
	if errMsg != "" {
		h.raw(`<span class="`, ClassFieldError, `">`)
		h.text(errMsg)
		h.raw(`</span>`)
	}
}

// textarea writes a labelled textarea with its validation message, if any.
func (h *htmlWriter) textarea(label, name, value, errMsg string) {
	h.raw(`<label>`)
	h.text(label)
	h.raw(`<textarea`)
	h.attr("name", name)
	h.raw(`>`)
	h.text(value)
	h.raw(`</textarea></label>`)
	if errMsg != "" {
		h.raw(`<span class="`, ClassFieldError, `">`)
		h.text(errMsg)
		h.raw(`</span>`)
	}
}
