package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

var gmtZone *time.Location

func init() {
	var err error
	gmtZone, err = time.LoadLocation("GMT")
	if err != nil {
		gmtZone = time.UTC
	}
}

// HeaderHandler returns an http.Handler that adds the given headers to the response.
func HeaderHandler(h http.Handler, headers map[string]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		h.ServeHTTP(w, r)
	})
}

// NoStoreHandler marks every response of h as uncacheable.
func NoStoreHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		h.ServeHTTP(w, r)
	})
}

// isPage reports whether a request path names generated content rather
// than a copied asset. Pages change with every build.
func isPage(p string) bool {
	return strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html") || p == "/sitemap.txt"
}

// ExpiresHandler adds Expires and Cache-Control headers, using expires for
// generated pages and staticExpires for assets. Error responses and a zero
// duration get no caching headers.
func ExpiresHandler(h http.Handler, expires, staticExpires time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expiry := staticExpires
		if isPage(r.URL.Path) {
			expiry = expires
		}
		if expiry <= 0 {
			h.ServeHTTP(w, r)
			return
		}
		h.ServeHTTP(&expiresWriter{ResponseWriter: w, expiry: expiry}, r)
	})
}

type expiresWriter struct {
	http.ResponseWriter
	expiry      time.Duration
	wroteHeader bool
}

func (w *expiresWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if statusCode < http.StatusBadRequest {
		h := w.Header()
		h.Set("Expires", time.Now().Add(w.expiry).In(gmtZone).Format(time.RFC1123))
		if h.Get("Cache-Control") == "" {
			h.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(w.expiry/time.Second)))
		}
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *expiresWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
