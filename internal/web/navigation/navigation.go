// Package navigation builds the console menu and breadcrumbs of a page.
package navigation

const (
	// SectionAdmin groups the access control pages.
	SectionAdmin = "admin"
	// SectionSettings groups the console settings pages.
	SectionSettings = "settings"
)

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// MenuItem is one entry of the console menu.
type MenuItem struct {
	Section string
	Page    string
	Title   string
	URL     string
	Active  bool
}

// menu lists the console pages in display order.
var menu = []MenuItem{
	{Section: SectionAdmin, Page: "user", Title: "Users", URL: "/admin/user"},
	{Section: SectionAdmin, Page: "role", Title: "Roles", URL: "/admin/role"},
	{Section: SectionAdmin, Page: "department", Title: "Departments", URL: "/admin/department"},
	{Section: SectionAdmin, Page: "audit-log", Title: "Audit Log", URL: "/admin/audit-log"},
	{Section: SectionSettings, Page: "backend", Title: "Backend", URL: "/settings/backend"},
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	PageTitle     string
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
	}
}

// ForPage creates the context of a console menu page, with the
// "Console > Section > Page" breadcrumbs filled in.
func ForPage(section, page string) *Context {
	for _, item := range menu {
		if item.Section != section || item.Page != page {
			continue
		}

		return NewContext(item.Title, section, page).
			AddBreadcrumb("Console", "/", false).
			AddBreadcrumb(sectionTitle(section), "#", false).
			AddBreadcrumb(item.Title, item.URL, true)
	}

	return NewContext(page, section, page)
}

func sectionTitle(section string) string {
	if section == SectionSettings {
		return "Settings"
	}

	return "Access Control"
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// Menu returns the console menu with the current page marked active.
func (c *Context) Menu() []MenuItem {
	out := make([]MenuItem, len(menu))

	for i, item := range menu {
		item.Active = c.IsActive(item.Section, item.Page)
		out[i] = item
	}

	return out
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}
