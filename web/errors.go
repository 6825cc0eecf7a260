package web

import (
	"io/fs"
	"net/http"
)

// ErrorHandler replaces the body of error responses with a page from fsys.
// pages maps a status code to a file name, such as 404 to "404.html".
// Status codes without a page, or whose page is missing, pass through.
func ErrorHandler(h http.Handler, fsys fs.FS, pages map[int]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer := &responseWriter{
			ResponseWriter: w,
			fsys:           fsys,
			pages:          pages,
		}
		h.ServeHTTP(writer, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	fsys    fs.FS
	pages   map[int]string
	noWrite bool
	err     error
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.noWrite {
		return len(b), w.err
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if name, ok := w.pages[statusCode]; ok {
		b, err := fs.ReadFile(w.fsys, name)
		if err == nil {
			h := w.Header()
			h.Set("Content-Type", "text/html; charset=utf-8")
			h.Del("Content-Length")
			h.Del("X-Content-Type-Options")
			w.ResponseWriter.WriteHeader(statusCode)
			w.noWrite = true
			_, w.err = w.ResponseWriter.Write(b)
			return
		}
	}
	w.ResponseWriter.WriteHeader(statusCode)
}
