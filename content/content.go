// Package content loads the posts and pages of the site and knows how to
// turn each of them into an HTML body.
package content

import (
	"bytes"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/team1091/website/markdown"
	"github.com/team1091/website/nav"
)

// Entry holds what every post and page has in common.
type Entry struct {
	Title      string
	URL        string // site-relative link
	OutputPath string // slash separated, relative to the output root
	Source     string // file the entry was loaded from
	Markdown   []byte
	Hidden     bool
}

// Link returns the navigation link for the entry.
func (e *Entry) Link() nav.Link {
	return nav.Link{Title: e.Title, URL: e.URL}
}

// An Item is anything the builder renders to its own output file.
type Item interface {
	// Meta returns the shared fields of the item.
	Meta() *Entry
	// Body converts the item into the HTML placed in the page template.
	Body(conv markdown.Converter) (template.HTML, error)
	// Sidebar returns the sidebar shown next to the body. def is the
	// site-wide post index. A nil result selects the single column layout.
	Sidebar(def nav.Sidebar) nav.Sidebar
}

// Post is a dated blog entry.
type Post struct {
	Entry
	Slug string
	Date time.Time
}

func (p *Post) Meta() *Entry { return &p.Entry }

func (p *Post) Body(conv markdown.Converter) (template.HTML, error) {
	return conv.Convert(p.Markdown)
}

func (p *Post) Sidebar(def nav.Sidebar) nav.Sidebar { return def }

// NavEntry returns the post as seen by the navigation builder.
func (p *Post) NavEntry() nav.Entry {
	return nav.Entry{Link: p.Link(), Date: p.Date, Hidden: p.Hidden}
}

// Page is a standalone page listed in the top menu.
type Page struct {
	Entry
	Order     int
	NoSidebar bool   // set by "sidebar: none"
	Calendar  string // calendar embed URL appended after the body, if any
}

func (p *Page) Meta() *Entry { return &p.Entry }

func (p *Page) Body(conv markdown.Converter) (template.HTML, error) {
	body, err := conv.Convert(p.Markdown)
	if err != nil {
		return "", err
	}
	if p.Calendar == "" {
		return body, nil
	}
	cal, err := calendarEmbed(p.Calendar)
	if err != nil {
		return "", err
	}
	return body + cal, nil
}

func (p *Page) Sidebar(def nav.Sidebar) nav.Sidebar {
	if p.NoSidebar {
		return nil
	}
	return def
}

// NavEntry returns the page as seen by the navigation builder.
func (p *Page) NavEntry() nav.Entry {
	return nav.Entry{Link: p.Link(), Order: p.Order, Hidden: p.Hidden}
}

// Blog is the synthesized page that shows every visible post, newest first.
// Its sidebar links to the posts on the page itself.
type Blog struct {
	Page
	Posts []*Post
}

func (b *Blog) Body(conv markdown.Converter) (template.HTML, error) {
	var buf bytes.Buffer
	for _, p := range b.Posts {
		body, err := p.Body(conv)
		if err != nil {
			return "", &Error{Path: p.Source, Err: err}
		}
		err = articleTpl.Execute(&buf, article{Post: p, Content: body})
		if err != nil {
			return "", err
		}
	}
	return template.HTML(buf.String()), nil
}

func (b *Blog) Sidebar(nav.Sidebar) nav.Sidebar {
	entries := make([]nav.Entry, len(b.Posts))
	for i, p := range b.Posts {
		entries[i] = p.NavEntry()
		entries[i].URL = b.URL + "#" + p.Slug
	}
	return nav.BuildSidebar(entries)
}

// Set is the content of one build.
type Set struct {
	Posts []*Post // discovery order
	Pages []*Page // discovery order
	Blog  *Blog   // nil when disabled
}

// Items returns everything to render: pages in discovery order, the blog
// page, then posts newest first.
func (s *Set) Items() []Item {
	items := make([]Item, 0, len(s.Pages)+len(s.Posts)+1)
	for _, p := range s.Pages {
		items = append(items, p)
	}
	if s.Blog != nil {
		items = append(items, s.Blog)
	}
	for _, p := range newestFirst(s.Posts) {
		items = append(items, p)
	}
	return items
}

// Navigation builds the menu and default sidebar. The blog page is part of
// the menu like any other page.
func (s *Set) Navigation() nav.Model {
	pages := make([]nav.Entry, 0, len(s.Pages)+1)
	for _, p := range s.Pages {
		pages = append(pages, p.NavEntry())
	}
	if s.Blog != nil {
		pages = append(pages, s.Blog.NavEntry())
	}
	posts := make([]nav.Entry, len(s.Posts))
	for i, p := range s.Posts {
		posts[i] = p.NavEntry()
	}
	return nav.Build(pages, posts)
}

// newestFirst returns a sorted copy using the sidebar ordering.
func newestFirst(posts []*Post) []*Post {
	sorted := append([]*Post(nil), posts...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.URL < b.URL
	})
	return sorted
}

type article struct {
	*Post
	Content template.HTML
}

var articleTpl = template.Must(template.New("article").Funcs(template.FuncMap{
	"iso":  func(t time.Time) string { return t.Format(time.DateOnly) },
	"long": func(t time.Time) string { return t.Format("January 2, 2006") },
}).Parse(strings.TrimSpace(`
<article class="post" id="{{.Slug}}">
<h2><a href="{{.URL}}">{{.Title}}</a></h2>
<p class="date"><time datetime="{{iso .Date}}">{{long .Date}}</time></p>
{{.Content}}
</article>
`) + "\n"))

var calendarTpl = template.Must(template.New("calendar").Parse(
	`<div class="calendar"><iframe class="calendar" src="{{.}}" width="800" height="600" style="border: 0" frameborder="0" scrolling="no"></iframe></div>` + "\n"))

// calendarEmbed returns the iframe markup for a calendar URL. The URL is
// escaped as an attribute value, so query strings survive intact.
func calendarEmbed(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := calendarTpl.Execute(&buf, src); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
