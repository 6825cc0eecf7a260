package web

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
)

// SiteOptions controls how the built site is served.
type SiteOptions struct {
	Expires       time.Duration
	StaticExpires time.Duration
	Headers       map[string]string
	NotFound      string // page served with 404 responses
}

// SiteHandler serves the files in fsys with compression, expiry and custom
// headers.
func SiteHandler(fsys fs.FS, opts SiteOptions) http.Handler {
	var pages map[int]string
	if opts.NotFound != "" {
		pages = map[int]string{http.StatusNotFound: opts.NotFound}
	}
	return HeaderHandler(
		ExpiresHandler(
			gziphandler.GzipHandler(
				ErrorHandler(
					http.FileServer(http.FS(fsys)),
					fsys,
					pages,
				),
			),
			opts.Expires,
			opts.StaticExpires,
		),
		opts.Headers)
}
