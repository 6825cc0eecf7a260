package content

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/team1091/website/markdown"
	"github.com/team1091/website/nav"
)

var testOptions = Options{
	PostsDir: "posts",
	PagesDir: "pages",
	Calendar: "https://calendar.google.com/calendar/embed?src=frcteam1091%40gmail.com&ctz=America%2FChicago",
	Blog:     BlogOptions{Title: "Blog", Order: 99},
}

func file(s string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(s)}
}

func testSite() fstest.MapFS {
	return fstest.MapFS{
		"posts/2023/2023-04-01-kickoff.md": file("---\ntitle: Kickoff\ndate: 2023-04-01\n---\n# Hello\n"),
		"posts/2023/2023-06-10-offseason.md": file("---\ntitle: Offseason\ndate: 2023-06-10\n---\nSummer.\n"),
		"posts/2022/2022-03-01-regional.md":  file("---\ntitle: Regional\ndate: 2022-03-01\n---\nWe went.\n"),
		"posts/2022/2022-12-24-draft.md":     file("---\ntitle: Draft\ndate: 2022-12-24\nhide\n---\nNot yet.\n"),
		"posts/2022/notes.txt":               file("ignored"),
		"posts/.git/HEAD":                    file("ignored"),
		"pages/contact.md":                   file("---\ntitle: Contact\n---\nMail us.\n"),
		"pages/about.md":                     file("---\ntitle: About\norder: 1\n---\nWho we are.\n"),
		"pages/index.md":                     file("---\ntitle: Home\norder: 0\nsidebar: none\n---\nWelcome.\n"),
		"pages/calendar.md":                  file("---\ntitle: Calendar\norder: 5\ncalendar\n---\nEvents.\n"),
		"pages/secret.md":                    file("---\ntitle: Secret\nhide\n---\nShh.\n"),
	}
}

func TestLoad(t *testing.T) {
	set, err := Load(testSite(), testOptions)
	require.NoError(t, err)
	require.Len(t, set.Posts, 4)
	require.Len(t, set.Pages, 5)
	require.NotNil(t, set.Blog)

	var names []string
	for _, p := range set.Pages {
		names = append(names, p.Title)
	}
	require.Equal(t, []string{"About", "Calendar", "Contact", "Home", "Secret"}, names, "discovery order")

	kickoff := set.Posts[2]
	require.Equal(t, "Kickoff", kickoff.Title)
	require.Equal(t, "/blog/2023-04-01-kickoff.html", kickoff.URL)
	require.Equal(t, "blog/2023-04-01-kickoff.html", kickoff.OutputPath)
	require.Equal(t, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), kickoff.Date)
	require.Equal(t, "posts/2023/2023-04-01-kickoff.md", kickoff.Source)
	require.Equal(t, "# Hello\n", string(kickoff.Markdown))

	home := set.Pages[3]
	require.Equal(t, "/", home.URL)
	require.Equal(t, "index.html", home.OutputPath)
	require.True(t, home.NoSidebar)

	contact := set.Pages[2]
	require.Equal(t, nav.DefaultOrder, contact.Order)
	require.Equal(t, "/contact.html", contact.URL)

	require.True(t, set.Pages[4].Hidden)
	require.Equal(t, testOptions.Calendar, set.Pages[1].Calendar)
}

func TestNavigation(t *testing.T) {
	set, err := Load(testSite(), testOptions)
	require.NoError(t, err)
	m := set.Navigation()
	require.Equal(t, []nav.Link{
		{Title: "Home", URL: "/"},
		{Title: "About", URL: "/about.html"},
		{Title: "Calendar", URL: "/calendar.html"},
		{Title: "Contact", URL: "/contact.html"},
		{Title: "Blog", URL: "/blog.html"},
	}, m.Menu)
	require.Equal(t, nav.Sidebar{
		{Label: "2023", Links: []nav.Link{
			{Title: "Offseason", URL: "/blog/2023-06-10-offseason.html"},
			{Title: "Kickoff", URL: "/blog/2023-04-01-kickoff.html"},
		}},
		{Label: "2022", Links: []nav.Link{
			{Title: "Regional", URL: "/blog/2022-03-01-regional.html"},
		}},
	}, m.Sidebar)
}

func TestItems(t *testing.T) {
	set, err := Load(testSite(), testOptions)
	require.NoError(t, err)
	var outputs []string
	for _, item := range set.Items() {
		outputs = append(outputs, item.Meta().OutputPath)
	}
	require.Equal(t, []string{
		"about.html", "calendar.html", "contact.html", "index.html", "secret.html",
		"blog.html",
		"blog/2023-06-10-offseason.html", "blog/2023-04-01-kickoff.html",
		"blog/2022-12-24-draft.html", "blog/2022-03-01-regional.html",
	}, outputs, "hidden items are still rendered")
}

func TestBlog(t *testing.T) {
	set, err := Load(testSite(), testOptions)
	require.NoError(t, err)
	conv, err := markdown.New(markdown.Blackfriday)
	require.NoError(t, err)

	body, err := set.Blog.Body(conv)
	require.NoError(t, err)
	s := string(body)
	require.NotContains(t, s, "Not yet.")
	first := strings.Index(s, "Summer.")
	second := strings.Index(s, "<h1>Hello</h1>")
	third := strings.Index(s, "We went.")
	require.True(t, first >= 0 && first < second && second < third, s)
	require.Contains(t, s, `<a href="/blog/2023-04-01-kickoff.html">Kickoff</a>`)
	require.Contains(t, s, `<time datetime="2023-04-01">April 1, 2023</time>`)
	require.Contains(t, s, `id="2023-04-01-kickoff"`)

	sidebar := set.Blog.Sidebar(nil)
	require.Len(t, sidebar, 2)
	require.Equal(t, "/blog.html#2023-06-10-offseason", sidebar[0].Links[0].URL)
}

func TestBlogDisabled(t *testing.T) {
	opts := testOptions
	opts.Blog.Disabled = true
	set, err := Load(testSite(), opts)
	require.NoError(t, err)
	require.Nil(t, set.Blog)
	require.Len(t, set.Items(), 9)
}

func TestCalendar(t *testing.T) {
	set, err := Load(testSite(), testOptions)
	require.NoError(t, err)
	conv, err := markdown.New(markdown.Blackfriday)
	require.NoError(t, err)
	body, err := set.Pages[1].Body(conv)
	require.NoError(t, err)
	require.Contains(t, string(body), `src="https://calendar.google.com/calendar/embed?src=frcteam1091%40gmail.com&amp;ctz=America%2FChicago"`)
	require.Contains(t, string(body), "<p>Events.</p>")

	body, err = set.Pages[2].Body(conv)
	require.NoError(t, err)
	require.NotContains(t, string(body), "iframe")
}

func TestSidebarOverride(t *testing.T) {
	set, err := Load(testSite(), testOptions)
	require.NoError(t, err)
	def := set.Navigation().Sidebar
	require.Nil(t, set.Pages[3].Sidebar(def), "home opts out")
	require.Equal(t, def, set.Pages[0].Sidebar(def))
	require.Equal(t, def, set.Posts[0].Sidebar(def))
}

func TestLoadErrors(t *testing.T) {
	var tests = []struct {
		name  string
		files fstest.MapFS
		path  string
		field string
		is    error
	}{
		{
			name:  "missing title",
			files: fstest.MapFS{"pages/about.md": file("---\norder: 1\n---\nbody\n")},
			path:  "pages/about.md",
			field: "title",
		},
		{
			name:  "missing date",
			files: fstest.MapFS{"posts/2023/a.md": file("---\ntitle: A\n---\nbody\n")},
			path:  "posts/2023/a.md",
			field: "date",
		},
		{
			name:  "bad date",
			files: fstest.MapFS{"posts/2023/a.md": file("---\ntitle: A\ndate: April 1\n---\nbody\n")},
			path:  "posts/2023/a.md",
			field: "date",
		},
		{
			name:  "bad order",
			files: fstest.MapFS{"pages/a.md": file("---\ntitle: A\norder: first\n---\n")},
			path:  "pages/a.md",
			field: "order",
		},
		{
			name:  "no front matter",
			files: fstest.MapFS{"pages/a.md": file("# A\n")},
			path:  "pages/a.md",
		},
		{
			name:  "unsafe name",
			files: fstest.MapFS{"pages/my page.md": file("---\ntitle: A\n---\n")},
			path:  "pages/my page.md",
			is:    ErrBadName,
		},
		{
			name: "duplicate output",
			files: fstest.MapFS{
				"posts/2022/launch.md": file("---\ntitle: A\ndate: 2022-01-01\n---\n"),
				"posts/2023/launch.md": file("---\ntitle: B\ndate: 2023-01-01\n---\n"),
			},
			path: "posts/2022/launch.md",
			is:   ErrDuplicate,
		},
		{
			name:  "page named like the blog",
			files: fstest.MapFS{"pages/blog.md": file("---\ntitle: Blog\n---\n")},
			path:  "(blog)",
			is:    ErrDuplicate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{
				"posts/.keep": file(""),
				"pages/.keep": file(""),
			}
			for k, v := range tt.files {
				fsys[k] = v
			}
			_, err := Load(fsys, testOptions)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrMalformed)
			var ce *Error
			require.True(t, errors.As(err, &ce))
			require.Equal(t, tt.path, ce.Path)
			require.Equal(t, tt.field, ce.Field)
			if tt.is != nil {
				require.ErrorIs(t, err, tt.is)
			}
			require.Contains(t, err.Error(), tt.path)
			require.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(fstest.MapFS{"pages/a.md": file("---\ntitle: A\n---\n")}, testOptions)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrMalformed))
}
