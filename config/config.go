// Package config reads the site.toml file that describes the site: its
// branding, where content and assets live, and how the output is served.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is the name of the configuration file in the site root.
const DefaultFile = "site.toml"

// Config contains configuration data from the site.toml file.
type Config struct {
	Name     string `toml:"name" comment:"Site name, used in titles and the banner"`
	Tagline  string `toml:"tagline" comment:"Line shown under the banner"`
	Footer   string `toml:"footer" comment:"Footer text"`
	BaseURL  string `toml:"baseurl" comment:"Absolute URL prefix used in sitemap.txt"`
	Output   string `toml:"output" comment:"Output directory, replaced on every build"`
	Posts    string `toml:"posts" comment:"Directory holding one subdirectory of posts per year"`
	Pages    string `toml:"pages" comment:"Directory holding the standalone pages"`
	Markdown string `toml:"markdown" comment:"Markdown engine: blackfriday or goldmark"`
	Calendar string `toml:"calendar" comment:"Default calendar embed URL for pages with a calendar key"`

	Blog   Blog   `toml:"blog"`
	Assets Assets `toml:"assets"`

	Stylesheets []string `toml:"stylesheets" comment:"External stylesheets linked from every page"`
	Scripts     []string `toml:"scripts" comment:"External scripts loaded by every page"`

	Expires       Duration          `toml:"expires" comment:"Expires header for pages when serving"`
	StaticExpires Duration          `toml:"staticexpires" comment:"Expires header for assets when serving"`
	Headers       map[string]string `toml:"headers" comment:"Extra response headers when serving"`
}

// Blog configures the synthesized page listing every post.
type Blog struct {
	Title    string `toml:"title"`
	Order    int    `toml:"order"`
	Hide     bool   `toml:"hide"`
	Disabled bool   `toml:"disabled"`
}

// Assets names the files copied next to the rendered pages.
type Assets struct {
	Images     string `toml:"images" comment:"Optional directory copied to images/"`
	Stylesheet string `toml:"stylesheet" comment:"Required stylesheet copied to css/"`
	Script     string `toml:"script" comment:"Optional script copied to js/"`
	Files      string `toml:"files" comment:"Optional directory copied to files/"`
	Favicon    string `toml:"favicon" comment:"Required icon copied to the output root"`
}

// Default returns the configuration used when no site.toml exists.
func Default() *Config {
	return &Config{
		Name:     "Team 1091",
		Tagline:  "Hartford Union Highschool First Robotics Team",
		Footer:   "Team 1091 Oriole Assault",
		Output:   "www",
		Posts:    "content/posts",
		Pages:    "content/pages",
		Markdown: "blackfriday",
		Calendar: "https://calendar.google.com/calendar/embed?src=frcteam1091%40gmail.com&ctz=America%2FChicago",
		Blog: Blog{
			Title: "Blog",
			Order: 99,
		},
		Assets: Assets{
			Images:     "images",
			Stylesheet: "css/main.css",
			Script:     "js/main.js",
			Files:      "files",
			Favicon:    "favicon.ico",
		},
		Stylesheets: []string{
			"https://maxcdn.bootstrapcdn.com/bootstrap/4.0.0/css/bootstrap.min.css",
		},
		Scripts: []string{
			"https://maxcdn.bootstrapcdn.com/bootstrap/4.0.0/js/bootstrap.min.js",
		},
		Expires:       Duration(5 * time.Minute),
		StaticExpires: Duration(24 * time.Hour),
	}
}

// Load reads the named file from fsys on top of the defaults.
// It is not an error if the file does not exist.
func Load(fsys fs.FS, name string) (*Config, error) {
	cfg := Default()
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("Cannot read config file: %w", err)
	}
	err = toml.Unmarshal(b, cfg)
	if err != nil {
		return nil, fmt.Errorf("Cannot parse config file: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the directories are usable paths below the site root.
func (c *Config) Validate() error {
	dirs := []struct{ key, value string }{
		{"output", c.Output},
		{"posts", c.Posts},
		{"pages", c.Pages},
	}
	for _, d := range dirs {
		if d.value == "" {
			return fmt.Errorf("config: %s must not be empty", d.key)
		}
		if !fs.ValidPath(path.Clean(d.value)) || path.Clean(d.value) == "." {
			return fmt.Errorf("config: %s %q must be a relative path inside the site", d.key, d.value)
		}
	}
	if c.Assets.Stylesheet == "" {
		return errors.New("config: assets.stylesheet is required")
	}
	if c.Assets.Favicon == "" {
		return errors.New("config: assets.favicon is required")
	}
	return c.checkOutput()
}

// Suffixes of the directories a build creates next to the output.
const (
	StagingSuffix = ".staging-"
	PrevSuffix    = ".prev"
)

// within reports whether a and b are the same path or one contains the other.
func within(a, b string) bool {
	return a == b || strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

// checkOutput rejects an output directory that overlaps a source. A build
// replaces the output and its siblings wholesale, which would delete the
// source.
func (c *Config) checkOutput() error {
	out := path.Clean(c.Output)
	sources := []struct{ key, value string }{
		{"posts", c.Posts},
		{"pages", c.Pages},
		{"assets.images", c.Assets.Images},
		{"assets.stylesheet", c.Assets.Stylesheet},
		{"assets.script", c.Assets.Script},
		{"assets.files", c.Assets.Files},
		{"assets.favicon", c.Assets.Favicon},
		{"config file", DefaultFile},
	}
	for _, s := range sources {
		if s.value == "" {
			continue
		}
		src := path.Clean(s.value)
		if within(out, src) || within(out+PrevSuffix, src) || strings.HasPrefix(src, out+StagingSuffix) {
			return fmt.Errorf("config: output %q overlaps %s %q", c.Output, s.key, s.value)
		}
	}
	return nil
}
