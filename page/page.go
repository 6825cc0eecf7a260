// Package page assembles complete HTML documents from a converted body,
// the site menu and the sidebar.
package page

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/team1091/website/nav"
)

//go:embed default.html
var defaultTemplate string

// Site holds the parts of every page that do not change between pages.
type Site struct {
	Name        string
	Tagline     string
	Footer      string
	Favicon     string   // site-relative URL
	Stylesheets []string // in link order
	Scripts     []string // in load order
}

// data is what is passed to the page template.
type data struct {
	Site    Site
	Title   string
	Menu    []nav.Link
	Sidebar nav.Sidebar
	Body    template.HTML
}

// An Assembler renders pages with the built-in template.
type Assembler struct {
	site Site
	tpl  *template.Template
}

// New parses the template for site.
func New(site Site) (*Assembler, error) {
	tpl, err := template.New("page").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("page.New: %w", err)
	}
	return &Assembler{site: site, tpl: tpl}, nil
}

// Assemble returns the document for one page. The body is trusted HTML and
// is embedded as is. A nil or empty sidebar gives a single column layout.
// The result depends only on the arguments.
func (a *Assembler) Assemble(body template.HTML, title string, menu []nav.Link, sidebar nav.Sidebar) ([]byte, error) {
	var buf bytes.Buffer
	err := a.tpl.Execute(&buf, data{
		Site:    a.site,
		Title:   title,
		Menu:    menu,
		Sidebar: sidebar,
		Body:    body,
	})
	if err != nil {
		return nil, fmt.Errorf("Assemble: %w", err)
	}
	return buf.Bytes(), nil
}
