package component

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/stolasapp/gather/internal/storage/db"
)

// EventItem is an event prepared for display. DescriptionHTML must already be
// sanitized.
type EventItem struct {
	db.Event

	DescriptionHTML string
}

const displayDateLayout = "Mon, Jan 2 2006"

// displayDate formats the event date for reading, falling back to the stored
// value if it does not parse.
func displayDate(event db.Event) string {
	date, err := event.ParseDate()
	if err != nil {
		return event.Date
	}
	return date.Format(displayDateLayout)
}

// EventListProps configures [EventList].
type EventListProps struct {
	Message  string
	Events   []EventItem
	NextPage string
}

// EventList shows events with edit and delete actions.
func EventList(props EventListProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<p class="`, ClassMessage, `">`)
		h.text(props.Message)
		h.raw(`</p><ul id="`, IDEventList, `">`)
		for _, event := range props.Events {
			h.raw(`<li class="`, ClassEvent, `"`)
			h.attr(DataAttrEventID, strconv.FormatUint(event.ID, 10))
			h.raw(`><article><h2>`)
			h.text(event.Name)
			h.raw(`</h2><p><time`)
			h.attr("datetime", event.Date)
			h.raw(`>`)
			h.text(displayDate(event.Event))
			h.raw(`</time> at `)
			h.text(event.Location)
			h.raw(`</p><div class="`, ClassDescription, `">`)
			h.render(templ.Raw(event.DescriptionHTML))
			h.raw(`</div><p>`)
			h.navLink(EditEventURL(event.ID), "Edit")
			h.raw(` `)
			h.navLink(DeleteEventURL(event.ID), "Delete")
			h.raw(`</p></article></li>`)
		}
		h.raw(`</ul>`)
		if props.NextPage != "" {
			h.raw(`<nav class="`, ClassPagination, `">`)
			h.navLink(EventsURL(props.NextPage), "Next page")
			h.raw(`</nav>`)
		}
		return h.err
	})
}

// EventValues are the editable fields of an event as submitted.
type EventValues struct {
	Name        string `form:"name"        validate:"required,max=200"`
	Date        string `form:"date"        validate:"required,datetime=2006-01-02"`
	Location    string `form:"location"    validate:"required,max=200"`
	Description string `form:"description" validate:"required,max=10000"`
}

// EventValuesOf returns the editable fields of event.
func EventValuesOf(event db.Event) EventValues {
	return EventValues{
		Name:        event.Name,
		Date:        event.Date,
		Location:    event.Location,
		Description: event.Description,
	}
}

// EventFormProps configures [EventForm].
type EventFormProps struct {
	Action string
	Submit string
	CSRF   string
	Values EventValues
	Errors map[string]string
}

// EventForm creates or edits an event.
func EventForm(props EventFormProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<form id="`, IDEventForm, `" method="post"`)
		h.attr("action", props.Action)
		h.raw(`>`)
		h.csrf(props.CSRF)
		h.field("Name", "text", FieldName, props.Values.Name, props.Errors[FieldName])
		h.field("Date", "date", FieldDate, props.Values.Date, props.Errors[FieldDate])
		h.field("Location", "text", FieldLocation, props.Values.Location, props.Errors[FieldLocation])
		h.textarea("Description (Markdown)", FieldDescription, props.Values.Description, props.Errors[FieldDescription])
		h.raw(`<button type="submit">`)
		h.text(props.Submit)
		h.raw(`</button></form>`)
		return h.err
	})
}

// SearchFormProps configures [SearchForm].
type SearchFormProps struct {
	CSRF         string
	SearchString string
}

// SearchForm searches event descriptions.
func SearchForm(props SearchFormProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<form id="`, IDSearchForm, `" method="post"`)
		h.attr("action", PathEventSearch)
		h.raw(`>`)
		h.csrf(props.CSRF)
		h.field("Description contains", "search", FieldSearchString, props.SearchString, "")
		h.raw(`<button type="submit">Search</button></form>`)
		return h.err
	})
}
