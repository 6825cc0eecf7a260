package build

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/team1091/website/content"
)

// SitemapFile is the plain text sitemap written to the output root.
const SitemapFile = "sitemap.txt"

// writeSitemap lists the absolute URL of every visible item, one per line.
func writeSitemap(dir, baseURL string, items []content.Item) error {
	baseURL = strings.TrimSuffix(baseURL, "/")
	urls := make([]string, 0, len(items))
	for _, item := range items {
		e := item.Meta()
		if e.Hidden {
			continue
		}
		urls = append(urls, baseURL+e.URL)
	}
	sort.Strings(urls)
	var buf bytes.Buffer
	for _, u := range urls {
		buf.WriteString(u)
		buf.WriteByte('\n')
	}
	err := os.WriteFile(filepath.Join(dir, SitemapFile), buf.Bytes(), 0644)
	if err != nil {
		return fmt.Errorf("writeSitemap: %w", err)
	}
	return nil
}
