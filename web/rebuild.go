package web

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/team1091/website/content"
)

// RebuildHandler runs rebuild for every GET or POST and answers "OK" when it
// succeeds. A failed build answers 422 when the content is at fault and 500
// otherwise, with the error as the body.
func RebuildHandler(rebuild func() error) http.Handler {
	return NoStoreHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		err := rebuild()
		if err != nil {
			log.Printf("RebuildHandler: %s", err)
			status := http.StatusInternalServerError
			if errors.Is(err, content.ErrMalformed) {
				status = http.StatusUnprocessableEntity
			}
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "OK")
	}))
}
