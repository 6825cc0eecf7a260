package build

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/team1091/website/config"
	"github.com/team1091/website/metrics"
)

// writeSite creates a small site in a temporary directory.
func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, data := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(data), 0644))
	}
	return root
}

func siteFiles() map[string]string {
	return map[string]string{
		"content/posts/2023/2023-04-01-kickoff.md": "---\ntitle: Kickoff\ndate: 2023-04-01\n---\n# Hello\n",
		"content/posts/2023/2023-02-11-reveal.md":  "---\ntitle: Reveal\ndate: 2023-02-11\n---\nRobot reveal.\n",
		"content/posts/2022/2022-12-24-draft.md":   "---\ntitle: Draft\ndate: 2022-12-24\nhide\n---\nNot yet.\n",
		"content/pages/index.md":                   "---\ntitle: Home\norder: 0\n---\nWelcome.\n",
		"content/pages/contact.md":                 "---\ntitle: Contact\n---\nMail us.\n",
		"content/pages/about.md":                   "---\ntitle: About\norder: 1\n---\nWho we are.\n",
		"css/main.css":                             "body { color: orange; }\n",
		"favicon.ico":                              "icon",
		"images/logo.png":                          "png",
		"images/.DS_Store":                         "junk",
		"files/rules/manual.pdf":                   "pdf",
	}
}

// snapshot reads every file below dir.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		files[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	require.NoError(t, err)
	return files
}

func readOutput(t *testing.T, root, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, "www", filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(b)
}

func TestBuild(t *testing.T) {
	root := writeSite(t, siteFiles())
	b, err := New(root)
	require.NoError(t, err)
	r, err := b.Build()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(root, "www"), r.Output)
	require.Equal(t, 3, r.Posts)
	require.Equal(t, 4, r.Pages)
	require.Equal(t, 8, r.Rendered)
	require.Equal(t, 4, r.Assets)
	require.NotEmpty(t, r.BuildID)

	out := snapshot(t, r.Output)
	for _, name := range []string{
		"index.html", "about.html", "contact.html", "blog.html", "404.html",
		"blog/2023-04-01-kickoff.html", "blog/2023-02-11-reveal.html", "blog/2022-12-24-draft.html",
		"css/main.css", "favicon.ico", "images/logo.png", "files/rules/manual.pdf", "sitemap.txt",
	} {
		require.Contains(t, out, name)
	}
	require.NotContains(t, out, "images/.DS_Store")
	require.NotContains(t, out, "js/main.js")
	require.Len(t, out, 13)

	kickoff := out["blog/2023-04-01-kickoff.html"]
	require.Contains(t, kickoff, "<h1>Hello</h1>")
	require.Contains(t, kickoff, "<title>Kickoff | Team 1091</title>")
	require.Contains(t, kickoff, "<h3>2023</h3>")
	require.Contains(t, kickoff, `<li><a href="/blog/2023-04-01-kickoff.html">Kickoff</a></li>`)
	require.Contains(t, kickoff, `<link rel="stylesheet" href="/css/main.css">`)
	require.Contains(t, kickoff, `<link rel="icon" href="/favicon.ico">`)
	require.NotContains(t, kickoff, "/js/main.js", "missing optional script is not linked")
	require.NotContains(t, kickoff, "Draft", "hidden posts stay out of the sidebar")

	require.True(t, strings.Index(kickoff, ">About<") < strings.Index(kickoff, ">Contact<"))
	require.Less(t, strings.Index(kickoff, ">Kickoff</a></li>"), strings.Index(kickoff, ">Reveal</a></li>"), "newest first")

	require.Contains(t, out["blog/2022-12-24-draft.html"], "Not yet.", "hidden posts are still published")
	require.Equal(t, "/\n/about.html\n/blog.html\n/blog/2023-02-11-reveal.html\n/blog/2023-04-01-kickoff.html\n/contact.html\n", out["sitemap.txt"])
	require.Contains(t, out["404.html"], "Page not found")
}

func TestBuildIdempotent(t *testing.T) {
	root := writeSite(t, siteFiles())
	b, err := New(root)
	require.NoError(t, err)
	r, err := b.Build()
	require.NoError(t, err)
	first := snapshot(t, r.Output)
	r, err = b.Build()
	require.NoError(t, err)
	require.Equal(t, first, snapshot(t, r.Output))
}

func TestBuildReplacesOutput(t *testing.T) {
	files := siteFiles()
	files["www/stale.html"] = "old"
	files["www.staging-123/index.html"] = "left over"
	root := writeSite(t, files)
	b, err := New(root)
	require.NoError(t, err)
	_, err = b.Build()
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "www", "stale.html"))
	require.True(t, errors.Is(err, fs.ErrNotExist))
	leftovers, _ := filepath.Glob(filepath.Join(root, "www.*"))
	require.Empty(t, leftovers)
}

func TestBuildMalformedKeepsOutput(t *testing.T) {
	root := writeSite(t, siteFiles())
	b, err := New(root)
	require.NoError(t, err)
	r, err := b.Build()
	require.NoError(t, err)
	before := snapshot(t, r.Output)

	bad := filepath.Join(root, "content", "pages", "sponsors.md")
	require.NoError(t, os.WriteFile(bad, []byte("---\norder: 2\n---\nThanks!\n"), 0644))
	_, err = b.Build()
	require.Error(t, err)
	require.True(t, IsMalformed(err))
	require.False(t, errors.Is(err, ErrFilesystem))
	var se *StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, StageLoad, se.Stage)
	require.Contains(t, err.Error(), "content/pages/sponsors.md")
	require.Contains(t, err.Error(), "title")

	require.Equal(t, before, snapshot(t, r.Output))
	leftovers, _ := filepath.Glob(filepath.Join(root, "www.*"))
	require.Empty(t, leftovers)
}

func TestBuildMissingRequiredAsset(t *testing.T) {
	files := siteFiles()
	delete(files, "favicon.ico")
	root := writeSite(t, files)
	b, err := New(root)
	require.NoError(t, err)
	_, err = b.Build()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrFilesystem)
	require.False(t, IsMalformed(err))
	var se *StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, StageAssets, se.Stage)
	require.Contains(t, err.Error(), "favicon")
	_, err = os.Stat(filepath.Join(root, "www"))
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestBuildMissingContentDir(t *testing.T) {
	files := siteFiles()
	delete(files, "content/pages/index.md")
	delete(files, "content/pages/contact.md")
	delete(files, "content/pages/about.md")
	root := writeSite(t, files)
	b, err := New(root)
	require.NoError(t, err)
	_, err = b.Build()
	require.ErrorIs(t, err, ErrFilesystem)
}

func TestBuildConfigFile(t *testing.T) {
	files := siteFiles()
	files["site.toml"] = "name = \"Oriole Assault\"\noutput = \"public/site\"\nmarkdown = \"goldmark\"\nbaseurl = \"https://www.team1091.com/\"\n[blog]\ntitle = \"News\"\norder = 2\n"
	root := writeSite(t, files)
	b, err := New(root)
	require.NoError(t, err)
	r, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "public", "site"), r.Output)

	out := snapshot(t, r.Output)
	require.Contains(t, out["blog.html"], "<title>News | Oriole Assault</title>")
	require.Contains(t, out["sitemap.txt"], "https://www.team1091.com/about.html\n")

	// the config is read again on every build
	require.NoError(t, os.WriteFile(filepath.Join(root, "site.toml"), []byte("name = \"Renamed\"\noutput = \"public/site\"\n"), 0644))
	_, err = b.Build()
	require.NoError(t, err)
	require.Contains(t, snapshot(t, r.Output)["about.html"], "<title>About | Renamed</title>")
}

func TestBuildFixedConfig(t *testing.T) {
	root := writeSite(t, siteFiles())
	cfg := config.Default()
	cfg.Blog.Disabled = true
	cfg.Assets.Script = ""
	b, err := New(root, WithConfig(cfg))
	require.NoError(t, err)
	r, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, 3, r.Pages)
	_, err = os.Stat(filepath.Join(r.Output, "blog.html"))
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestBuildHiddenPage(t *testing.T) {
	files := siteFiles()
	files["content/pages/sponsors.md"] = "---\ntitle: Sponsors\norder: 2\nhide\n---\nThank you.\n"
	root := writeSite(t, files)
	b, err := New(root)
	require.NoError(t, err)
	r, err := b.Build()
	require.NoError(t, err)

	out := snapshot(t, r.Output)
	require.Contains(t, out["sponsors.html"], "Thank you.", "hidden pages are still published")
	require.Contains(t, out["sponsors.html"], "<title>Sponsors | Team 1091</title>")
	for _, name := range []string{"index.html", "about.html", "sponsors.html", "blog/2023-04-01-kickoff.html"} {
		require.NotContains(t, out[name], `href="/sponsors.html"`, name)
		require.Contains(t, out[name], `<a class="nav-link" href="/about.html">About</a>`, name)
	}
	require.NotContains(t, out["sitemap.txt"], "sponsors")
}

func TestBuildOutputOverlapsSources(t *testing.T) {
	root := writeSite(t, siteFiles())
	before := snapshot(t, filepath.Join(root, "content"))
	for _, output := range []string{"content", "content/posts", "content/pages/www", "images"} {
		cfg := config.Default()
		cfg.Output = output
		b, err := New(root, WithConfig(cfg))
		require.NoError(t, err)
		_, err = b.Build()
		require.Error(t, err, output)
		require.Contains(t, err.Error(), "overlaps")
	}
	require.Equal(t, before, snapshot(t, filepath.Join(root, "content")))
	require.FileExists(t, filepath.Join(root, "images", "logo.png"))
	_, err := os.Stat(filepath.Join(root, "www"))
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestBuildConcurrent(t *testing.T) {
	root := writeSite(t, siteFiles())
	b, err := New(root)
	require.NoError(t, err)
	const count = 4
	var (
		wg   sync.WaitGroup
		errs = make([]error, count)
	)
	wg.Add(count)
	for i := 0; i < count; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.Build()
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Contains(t, readOutput(t, root, "index.html"), "Welcome.")
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes map[metrics.ResultLabel]int
	stages   map[string]int
}

func (c *countingRecorder) IncBuildOutcome(outcome metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[outcome]++
}

func (c *countingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages[stage+"/"+string(result)]++
}

func TestBuildRecorder(t *testing.T) {
	root := writeSite(t, siteFiles())
	rec := &countingRecorder{outcomes: map[metrics.ResultLabel]int{}, stages: map[string]int{}}
	b, err := New(root, WithRecorder(rec))
	require.NoError(t, err)
	_, err = b.Build()
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, "css", "main.css")))
	_, err = b.Build()
	require.Error(t, err)

	require.Equal(t, 1, rec.outcomes[metrics.ResultSuccess])
	require.Equal(t, 1, rec.outcomes[metrics.ResultFailed])
	require.Equal(t, 2, rec.stages["render/success"])
	require.Equal(t, 1, rec.stages["assets/failed"])
	require.Equal(t, 1, rec.stages["promote/success"])
}

func TestPromote(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "www")

	dir, err := prepareStaging(out)
	require.NoError(t, err)
	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.Equal(t, fs.FileMode(0755), fi.Mode().Perm())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte("a"), 0644))
	require.NoError(t, promote(dir, out))

	dir, err = prepareStaging(out)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.html"), []byte("b"), 0644))
	require.NoError(t, promote(dir, out))

	require.Equal(t, map[string]string{"b.html": "b"}, snapshot(t, out))
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestReportDuration(t *testing.T) {
	root := writeSite(t, siteFiles())
	b, err := New(root)
	require.NoError(t, err)
	r, err := b.Build()
	require.NoError(t, err)
	require.Greater(t, r.Duration, time.Duration(0))
}
