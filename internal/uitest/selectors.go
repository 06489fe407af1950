package uitest

import (
	"fmt"

	"github.com/stolasapp/gather/internal/app/component"
)

// CSS selectors built from component constants.
// These ensure test selectors stay in sync with the component DOM structure.

// Element selectors.
var (
	// SelectorSiteHeader selects the site header by class.
	SelectorSiteHeader = "header." + component.ClassSiteHeader

	// SelectorSiteHeaderNav selects the nav inside the site header.
	SelectorSiteHeaderNav = SelectorSiteHeader + " nav"

	// SelectorSiteTitle selects the site title by class.
	SelectorSiteTitle = "." + component.ClassSiteTitle

	// SelectorCurrentUser selects the signed in user's name.
	SelectorCurrentUser = "#" + component.IDCurrentUser

	// SelectorFormError selects the form-level error message.
	SelectorFormError = "#" + component.IDFormError

	// SelectorMessage selects the page message.
	SelectorMessage = "p." + component.ClassMessage

	// SelectorPagination selects the pagination nav by class.
	SelectorPagination = "nav." + component.ClassPagination

	// SelectorNextPage selects the next page link.
	SelectorNextPage = SelectorPagination + " a"
)

// Form selectors.
var (
	SelectorLoginForm    = "form#" + component.IDLoginForm
	SelectorRegisterForm = "form#" + component.IDRegisterForm
	SelectorEventForm    = "form#" + component.IDEventForm
	SelectorSearchForm   = "form#" + component.IDSearchForm
)

// List selectors.
var (
	// SelectorEventItem selects any event in the list.
	SelectorEventItem = "#" + component.IDEventList + " > li." + component.ClassEvent

	// SelectorEventName selects event names in the list.
	SelectorEventName = SelectorEventItem + " h2"
)

// EventItem returns a selector for the list item of one event.
func EventItem(id string) string {
	return fmt.Sprintf("%s[%s='%s']", SelectorEventItem, component.DataAttrEventID, id)
}

// NavLink returns a selector for a header navigation link to path.
func NavLink(path string) string {
	return fmt.Sprintf("%s a[href='%s']", SelectorSiteHeaderNav, path)
}

// EventAction returns a selector for an event's link whose URL starts with
// prefix, such as [component.PathEventEdit].
func EventAction(id, prefix string) string {
	return fmt.Sprintf("%s a[href='%s%s']", EventItem(id), prefix, id)
}
