package content

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/team1091/website/frontmatter"
	"github.com/team1091/website/nav"
)

// IndexStem is the page file name that maps to the site root.
const IndexStem = "index"

// BlogOutput is where the synthesized blog page is written.
const BlogOutput = "blog.html"

// nameRegexp restricts file names to ones that are safe in a URL and on disk.
var nameRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Options tells Load where content lives.
type Options struct {
	PostsDir string
	PagesDir string
	Calendar string // default URL for pages that carry a bare calendar key
	Blog     BlogOptions
}

// BlogOptions configures the synthesized blog page.
type BlogOptions struct {
	Title    string
	Order    int
	Hidden   bool
	Disabled bool
}

// Load reads every post and page below the configured directories. It stops
// at the first file that cannot be read or is malformed.
func Load(fsys fs.FS, opts Options) (*Set, error) {
	var (
		set Set
		err error
	)
	set.Posts, err = loadPosts(fsys, opts.PostsDir)
	if err != nil {
		return nil, err
	}
	set.Pages, err = loadPages(fsys, opts.PagesDir, opts.Calendar)
	if err != nil {
		return nil, err
	}
	if !opts.Blog.Disabled {
		set.Blog = newBlog(opts.Blog, set.Posts)
	}
	if err = checkOutputs(set.Items()); err != nil {
		return nil, err
	}
	return &set, nil
}

func loadPosts(fsys fs.FS, dir string) ([]*Post, error) {
	years, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("loadPosts: %w", err)
	}
	var posts []*Post
	for _, year := range years {
		if skip(year.Name()) {
			continue
		}
		if !year.IsDir() {
			log.Printf("loadPosts: ignoring %s, posts belong in a year directory", path.Join(dir, year.Name()))
			continue
		}
		yearDir := path.Join(dir, year.Name())
		files, err := fs.ReadDir(fsys, yearDir)
		if err != nil {
			return nil, fmt.Errorf("loadPosts: %w", err)
		}
		for _, f := range files {
			if f.IsDir() || skip(f.Name()) || path.Ext(f.Name()) != ".md" {
				continue
			}
			p, err := readPost(fsys, path.Join(yearDir, f.Name()))
			if err != nil {
				return nil, err
			}
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func loadPages(fsys fs.FS, dir, calendar string) ([]*Page, error) {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("loadPages: %w", err)
	}
	var pages []*Page
	for _, f := range files {
		if skip(f.Name()) || path.Ext(f.Name()) != ".md" {
			continue
		}
		if f.IsDir() {
			log.Printf("loadPages: ignoring directory %s", path.Join(dir, f.Name()))
			continue
		}
		p, err := readPage(fsys, path.Join(dir, f.Name()), calendar)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// skip reports whether a directory entry is hidden.
func skip(name string) bool {
	return strings.HasPrefix(name, ".")
}

// readEntry parses name and fills in the fields shared by posts and pages.
func readEntry(fsys fs.FS, name string) (*frontmatter.Metadata, Entry, string, error) {
	var e Entry
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, e, "", fmt.Errorf("readEntry: %w", err)
	}
	stem := strings.TrimSuffix(path.Base(name), ".md")
	if !nameRegexp.MatchString(stem) {
		return nil, e, "", &Error{Path: name, Err: ErrBadName}
	}
	m, body, err := frontmatter.Parse(b)
	if err != nil {
		return nil, e, "", &Error{Path: name, Err: err}
	}
	e.Source = name
	e.Markdown = body
	e.Hidden = m.Has("hide")
	e.Title, err = m.Require("title")
	if err != nil {
		return nil, e, "", fieldError(name, err)
	}
	return m, e, stem, nil
}

func readPost(fsys fs.FS, name string) (*Post, error) {
	m, e, stem, err := readEntry(fsys, name)
	if err != nil {
		return nil, err
	}
	date, err := m.Date("date", time.DateOnly)
	if err != nil {
		return nil, fieldError(name, err)
	}
	e.OutputPath = "blog/" + stem + ".html"
	e.URL = "/" + e.OutputPath
	return &Post{Entry: e, Slug: stem, Date: date}, nil
}

func readPage(fsys fs.FS, name, calendar string) (*Page, error) {
	m, e, stem, err := readEntry(fsys, name)
	if err != nil {
		return nil, err
	}
	order, err := m.Int("order", nav.DefaultOrder)
	if err != nil {
		return nil, fieldError(name, err)
	}
	if stem == IndexStem {
		e.OutputPath = "index.html"
		e.URL = "/"
	} else {
		e.OutputPath = stem + ".html"
		e.URL = "/" + e.OutputPath
	}
	p := &Page{Entry: e, Order: order}
	if v, ok := m.Lookup("sidebar"); ok && strings.EqualFold(v, "none") {
		p.NoSidebar = true
	}
	if v, ok := m.Lookup("calendar"); ok {
		p.Calendar = v
		if v == "" {
			p.Calendar = calendar
		}
		if p.Calendar == "" {
			return nil, &Error{Path: name, Field: "calendar", Err: frontmatter.ErrMissingKey}
		}
	}
	return p, nil
}

func newBlog(opts BlogOptions, posts []*Post) *Blog {
	title := opts.Title
	if title == "" {
		title = "Blog"
	}
	var visible []*Post
	for _, p := range newestFirst(posts) {
		if !p.Hidden {
			visible = append(visible, p)
		}
	}
	return &Blog{
		Page: Page{
			Entry: Entry{
				Title:      title,
				URL:        "/" + BlogOutput,
				OutputPath: BlogOutput,
				Source:     "(blog)",
				Hidden:     opts.Hidden,
			},
			Order: opts.Order,
		},
		Posts: visible,
	}
}

// checkOutputs fails when two items would be written to the same file.
func checkOutputs(items []Item) error {
	seen := make(map[string]string, len(items))
	for _, item := range items {
		e := item.Meta()
		if first, ok := seen[e.OutputPath]; ok {
			return &Error{Path: e.Source, Err: fmt.Errorf("%w: %s is also written by %s", ErrDuplicate, e.OutputPath, first)}
		}
		seen[e.OutputPath] = e.Source
	}
	return nil
}

// fieldError converts a metadata error into an *Error naming the key.
func fieldError(name string, err error) error {
	var ke *frontmatter.KeyError
	if errors.As(err, &ke) {
		return &Error{Path: name, Field: ke.Key, Err: ke.Err}
	}
	return &Error{Path: name, Err: err}
}
