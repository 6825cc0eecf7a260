// Package nav derives the site navigation: the top menu built from pages and
// the year-grouped sidebar built from posts.
package nav

import (
	"sort"
	"strconv"
	"time"
)

// DefaultOrder is the menu position of a page that does not specify one.
const DefaultOrder = 99

// Link is a titled URL.
type Link struct {
	Title string
	URL   string
}

// Group is a labelled list of links. The sidebar uses one group per year.
type Group struct {
	Label string
	Links []Link
}

// Sidebar is an ordered list of groups.
type Sidebar []Group

// Len returns the number of links across all groups.
func (s Sidebar) Len() int {
	n := 0
	for _, g := range s {
		n += len(g.Links)
	}
	return n
}

// Entry is what the builder needs to know about a page or post.
type Entry struct {
	Link
	Order  int
	Date   time.Time
	Hidden bool
}

// Model is the navigation for one build.
type Model struct {
	Menu    []Link
	Sidebar Sidebar
}

// Build computes the menu from pages and the sidebar from posts.
func Build(pages, posts []Entry) Model {
	return Model{
		Menu:    TopMenu(pages),
		Sidebar: BuildSidebar(posts),
	}
}

// TopMenu returns the visible pages sorted by ascending order. Pages with
// equal order keep the order they were given in.
func TopMenu(pages []Entry) []Link {
	visible := make([]Entry, 0, len(pages))
	for _, p := range pages {
		if !p.Hidden {
			visible = append(visible, p)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Order < visible[j].Order
	})
	menu := make([]Link, len(visible))
	for i, p := range visible {
		menu[i] = p.Link
	}
	return menu
}

// BuildSidebar groups visible posts by year, most recent year first. Within a
// year posts are newest first; posts on the same day are ordered by URL.
func BuildSidebar(posts []Entry) Sidebar {
	visible := make([]Entry, 0, len(posts))
	for _, p := range posts {
		if !p.Hidden {
			visible = append(visible, p)
		}
	}
	SortByDate(visible)

	var sidebar Sidebar
	for _, p := range visible {
		label := strconv.Itoa(p.Date.Year())
		if n := len(sidebar); n == 0 || sidebar[n-1].Label != label {
			sidebar = append(sidebar, Group{Label: label})
		}
		g := &sidebar[len(sidebar)-1]
		g.Links = append(g.Links, p.Link)
	}
	return sidebar
}

// SortByDate sorts entries newest first, breaking ties by URL.
func SortByDate(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.URL < b.URL
	})
}
