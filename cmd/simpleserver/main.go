// Command simpleserver serves an already built site without rebuilding it.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/groupcache"

	"github.com/team1091/website/build"
	"github.com/team1091/website/cache"
	"github.com/team1091/website/config"
	"github.com/team1091/website/web"
)

func main() {
	root := flag.String("root", ".", "Root of web site sources.")
	addr := flag.String("addr", ":9000", "Server address")

	flag.Parse()

	// Setup groupcache (in this example with no peers)
	groupcache.RegisterPeerPicker(func() groupcache.PeerPicker { return groupcache.NoPeers{} })

	cfg, err := config.Load(os.DirFS(*root), config.DefaultFile)
	if err != nil {
		log.Fatal(err)
	}
	out := filepath.Join(*root, filepath.FromSlash(cfg.Output))
	if _, err := os.Stat(filepath.Join(out, "index.html")); err != nil {
		log.Fatalf("No built site in %q: %s", out, err)
	}

	// Cache the output with a 10MB cache
	site := cache.New(os.DirFS(out), "simple", 10*1024*1024)

	handler := web.SiteHandler(site, web.SiteOptions{
		Expires:       time.Duration(cfg.Expires),
		StaticExpires: time.Duration(cfg.StaticExpires),
		Headers:       cfg.Headers,
		NotFound:      build.NotFoundFile,
	})

	// run the server
	log.Printf("Serving %q on %s", out, *addr)
	log.Fatal(http.ListenAndServe(*addr, handler))
}
