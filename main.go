package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookgo/flagenv"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/team1091/website/build"
	"github.com/team1091/website/cache"
	"github.com/team1091/website/metrics"
	"github.com/team1091/website/web"
)

// main is where it all begins. 😀
func main() {
	// Setup flags
	var (
		fPort              = flag.Int("port", 9000, "Port to listen on.")
		fReadTimeout       = flag.Duration("readtimeout", 10*time.Second, "HTTP server read timeout.")
		fReadHeaderTimeout = flag.Duration("readheadertimeout", 5*time.Second, "HTTP server read header timeout.")
		fWriteTimeout      = flag.Duration("writetimeout", 60*time.Second, "HTTP server write timeout.")
		fRoot              = flag.String("root", ".", "Root of web site sources.")
		fConfig            = flag.String("config", "site.toml", "Site configuration file, relative to root.")
		fServe             = flag.Bool("serve", false, "Serve the site and accept /rebuild requests after building.")
		fWatch             = flag.Bool("watch", false, "Rebuild when sources change. Implies -serve.")
		fMetrics           = flag.String("metrics", "", "Address for the Prometheus metrics listener, like :9090.")
		fCacheSize         = flag.Int64("cachesize", 64*1024*1024, "Bytes of memory used to cache the built site.")
	)
	flag.Parse()
	flagenv.Parse()

	// Switch to site folder
	err := os.Chdir(*fRoot)
	if err != nil {
		log.Printf("Cannot switch to root %q: %s", *fRoot, err)
		os.Exit(1)
	}
	log.Printf("Changed to %q directory", *fRoot)

	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		reg      *prom.Registry
	)
	if *fMetrics != "" {
		reg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	builder, err := build.New(".", build.WithConfigFile(*fConfig), build.WithRecorder(recorder))
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
	report, err := builder.Build()
	if err != nil {
		log.Printf("Build failed: %s", err)
		os.Exit(2)
	}
	if !*fServe && !*fWatch {
		return
	}

	cfg, err := builder.Config()
	if err != nil {
		log.Printf("Cannot load config: %s", err)
		os.Exit(3)
	}
	site := cache.New(os.DirFS(report.Output), "site", *fCacheSize)
	rebuild := func(source string) error {
		recorder.IncRebuildRequest(source)
		_, err := builder.Build()
		if err != nil {
			return err
		}
		site.Invalidate()
		return nil
	}

	// Setup handlers
	mux := http.NewServeMux()
	mux.Handle("/rebuild", web.RebuildHandler(func() error { return rebuild("http") }))
	mux.Handle("/", web.SiteHandler(site, web.SiteOptions{
		Expires:       time.Duration(cfg.Expires),
		StaticExpires: time.Duration(cfg.StaticExpires),
		Headers:       cfg.Headers,
		NotFound:      build.NotFoundFile,
	}))
	log.Print("Created handlers")

	// Create HTTP server
	var srv = http.Server{
		Addr:              fmt.Sprintf(":%d", *fPort),
		Handler:           mux,
		ReadTimeout:       *fReadTimeout,
		WriteTimeout:      *fWriteTimeout,
		ReadHeaderTimeout: *fReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsSrv *http.Server
	if reg != nil {
		metricsSrv = &http.Server{
			Addr:              *fMetrics,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: *fReadHeaderTimeout,
		}
		go func() {
			log.Printf("Metrics on %s", *fMetrics)
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Metrics server: %v", err)
			}
		}()
	}

	if *fWatch {
		sw, err := newSiteWatcher(builder.Root(), cfg.Output, 500*time.Millisecond, func() {
			if err := rebuild("watch"); err != nil {
				log.Printf("Rebuild after change failed: %s", err)
			}
		})
		if err != nil {
			log.Printf("Cannot watch %q: %s", builder.Root(), err)
			os.Exit(4)
		}
		go sw.Run(ctx)
		log.Print("Watching for changes")
	}

	// Shut down gracefully on interrupt or SIGTERM
	go func() {
		<-ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			// Error from closing listeners, or context timeout:
			log.Printf("HTTP server Shutdown: %v", err)
		}
		if metricsSrv != nil {
			metricsSrv.Shutdown(ctx)
		}
	}()

	// Listen for requests
	log.Printf("Listening for requests on %s", srv.Addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Printf("HTTP server: %v", err)
		os.Exit(5)
	}
	log.Print("Goodbye.")
}
