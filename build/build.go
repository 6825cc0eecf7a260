// Package build turns a site directory into the published output directory.
//
// A build runs its stages in order and stops at the first failure:
//
//	clear      create an empty staging directory next to the output
//	load       read posts and pages
//	navigation derive the menu and sidebar
//	render     convert and assemble every page into the staging directory
//	assets     copy stylesheet, script, images, files and favicon
//	sitemap    write sitemap.txt
//	promote    swap the staging directory in for the output directory
//
// The output directory is only touched by the promote stage, so a failed
// build leaves the previous site in place.
package build

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/team1091/website/config"
	"github.com/team1091/website/content"
	"github.com/team1091/website/markdown"
	"github.com/team1091/website/metrics"
	"github.com/team1091/website/nav"
	"github.com/team1091/website/page"
)

// NotFoundFile is rendered when the site has no page of its own for it.
const NotFoundFile = "404.html"

// Report describes a finished build.
type Report struct {
	BuildID  string
	Output   string // absolute output directory
	Posts    int
	Pages    int // including the blog page
	Rendered int // HTML files written
	Assets   int // asset files copied
	Duration time.Duration
}

// A Builder builds one site. Builds are serialized: a call to Build while
// another is running waits for it to finish.
type Builder struct {
	mu         sync.Mutex
	root       string
	fsys       fs.FS
	configFile string
	cfg        *config.Config // fixed configuration, or nil to read configFile
	conv       markdown.Converter
	recorder   metrics.Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithConfig uses cfg for every build instead of reading the config file.
func WithConfig(cfg *config.Config) Option {
	return func(b *Builder) { b.cfg = cfg }
}

// WithConfigFile sets the config file read at the start of every build.
func WithConfigFile(name string) Option {
	return func(b *Builder) { b.configFile = name }
}

// WithConverter overrides the markdown engine named in the configuration.
func WithConverter(conv markdown.Converter) Option {
	return func(b *Builder) { b.conv = conv }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// New returns a Builder for the site in root.
func New(root string, opts ...Option) (*Builder, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("build.New: %w", err)
	}
	b := &Builder{
		root:       abs,
		fsys:       os.DirFS(abs),
		configFile: config.DefaultFile,
		recorder:   metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Root returns the absolute site directory.
func (b *Builder) Root() string {
	return b.root
}

// Config returns the configuration the next build will use.
func (b *Builder) Config() (*config.Config, error) {
	if b.cfg != nil {
		return b.cfg, nil
	}
	return config.Load(b.fsys, b.configFile)
}

// OutputDir returns the absolute output directory for cfg.
func (b *Builder) OutputDir(cfg *config.Config) string {
	return filepath.Join(b.root, filepath.FromSlash(path.Clean(cfg.Output)))
}

// Build runs a complete build.
func (b *Builder) Build() (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	r := &Report{BuildID: uuid.NewString()}
	err := b.build(r)
	r.Duration = time.Since(start)
	b.recorder.ObserveBuildDuration(r.Duration)
	if err != nil {
		b.recorder.IncBuildOutcome(metrics.ResultFailed)
		log.Printf("Build %s failed after %s: %s", r.BuildID, r.Duration, err)
		return nil, err
	}
	b.recorder.IncBuildOutcome(metrics.ResultSuccess)
	b.recorder.SetItems("posts", r.Posts)
	b.recorder.SetItems("pages", r.Pages)
	log.Printf("Build %s wrote %d pages (%d posts) and %d assets to %q in %s", r.BuildID, r.Rendered, r.Posts, r.Assets, r.Output, r.Duration)
	return r, nil
}

// run times one stage and wraps its error.
func (b *Builder) run(stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	b.recorder.ObserveStageDuration(string(stage), time.Since(start))
	if err != nil {
		b.recorder.IncStageResult(string(stage), metrics.ResultFailed)
		return &StageError{Stage: stage, Err: err}
	}
	b.recorder.IncStageResult(string(stage), metrics.ResultSuccess)
	return nil
}

func (b *Builder) build(r *Report) error {
	var (
		cfg   *config.Config
		conv  markdown.Converter
		stage string
		set   *content.Set
		model nav.Model
		items []content.Item
	)
	err := b.run(StageConfig, func() error {
		var err error
		cfg, err = b.Config()
		if err != nil {
			return err
		}
		if err = cfg.Validate(); err != nil {
			return err
		}
		conv = b.conv
		if conv == nil {
			conv, err = markdown.New(cfg.Markdown)
		}
		return err
	})
	if err != nil {
		return err
	}
	r.Output = b.OutputDir(cfg)

	err = b.run(StageClear, func() error {
		var err error
		stage, err = prepareStaging(r.Output)
		return err
	})
	if err != nil {
		return err
	}
	promoted := false
	defer func() {
		if !promoted {
			abortStaging(stage)
		}
	}()

	err = b.run(StageLoad, func() error {
		var err error
		set, err = content.Load(b.fsys, content.Options{
			PostsDir: path.Clean(cfg.Posts),
			PagesDir: path.Clean(cfg.Pages),
			Calendar: cfg.Calendar,
			Blog: content.BlogOptions{
				Title:    cfg.Blog.Title,
				Order:    cfg.Blog.Order,
				Hidden:   cfg.Blog.Hide,
				Disabled: cfg.Blog.Disabled,
			},
		})
		return err
	})
	if err != nil {
		return err
	}
	items = set.Items()
	r.Posts = len(set.Posts)
	r.Pages = len(items) - len(set.Posts)

	err = b.run(StageNavigation, func() error {
		model = set.Navigation()
		return nil
	})
	if err != nil {
		return err
	}

	assets := assetList(cfg.Assets)
	err = b.run(StageRender, func() error {
		site, err := b.site(cfg, assets)
		if err != nil {
			return err
		}
		a, err := page.New(site)
		if err != nil {
			return err
		}
		r.Rendered, err = render(a, conv, model, items, stage)
		return err
	})
	if err != nil {
		return err
	}

	err = b.run(StageAssets, func() error {
		var err error
		r.Assets, err = copyAssets(b.fsys, assets, stage)
		return err
	})
	if err != nil {
		return err
	}

	err = b.run(StageSitemap, func() error {
		return writeSitemap(stage, cfg.BaseURL, items)
	})
	if err != nil {
		return err
	}

	err = b.run(StagePromote, func() error {
		return promote(stage, r.Output)
	})
	if err != nil {
		return err
	}
	promoted = true
	return nil
}

// site returns the fixed parts of every page. Optional assets that are
// missing are not linked.
func (b *Builder) site(cfg *config.Config, assets []asset) (page.Site, error) {
	site := page.Site{
		Name:        cfg.Name,
		Tagline:     cfg.Tagline,
		Footer:      cfg.Footer,
		Stylesheets: append([]string(nil), cfg.Stylesheets...),
		Scripts:     append([]string(nil), cfg.Scripts...),
	}
	for _, a := range assets {
		ok, err := a.present(b.fsys)
		if err != nil {
			return site, err
		}
		if !ok {
			continue
		}
		switch a.key {
		case "stylesheet":
			site.Stylesheets = append(site.Stylesheets, "/"+a.dest)
		case "script":
			site.Scripts = append(site.Scripts, "/"+a.dest)
		case "favicon":
			site.Favicon = "/" + a.dest
		}
	}
	return site, nil
}

// render writes every item to dir and returns the number of files written.
func render(a *page.Assembler, conv markdown.Converter, model nav.Model, items []content.Item, dir string) (int, error) {
	count := 0
	notFound := true
	for _, item := range items {
		e := item.Meta()
		body, err := item.Body(conv)
		if err != nil {
			if errors.Is(err, content.ErrMalformed) {
				return count, err
			}
			return count, fmt.Errorf("render %s: %w", e.Source, err)
		}
		b, err := a.Assemble(body, e.Title, model.Menu, item.Sidebar(model.Sidebar))
		if err != nil {
			return count, fmt.Errorf("render %s: %w", e.Source, err)
		}
		if err = writeFile(dir, e.OutputPath, b); err != nil {
			return count, err
		}
		if e.OutputPath == NotFoundFile {
			notFound = false
		}
		count++
	}
	if notFound {
		b, err := a.Assemble("<h1>Page not found</h1>\n<p>Sorry, there is nothing here. Try the menu above.</p>\n", "Not Found", model.Menu, nil)
		if err != nil {
			return count, fmt.Errorf("render %s: %w", NotFoundFile, err)
		}
		if err = writeFile(dir, NotFoundFile, b); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func writeFile(dir, name string, b []byte) error {
	target := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("writeFile: %w", err)
	}
	if err := os.WriteFile(target, b, 0644); err != nil {
		return fmt.Errorf("writeFile: %w", err)
	}
	return nil
}
