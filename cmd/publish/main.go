// Command publish uploads the built site to the web host over FTP.
//
// Settings come from flags or FTP_ environment variables, which may also be
// kept in a .env file:
//
//	FTP_HOST=ftp.example.com
//	FTP_USER=team1091
//	FTP_PASS=secret
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/facebookgo/flagenv"
	"github.com/joho/godotenv"

	"github.com/team1091/website/build"
	"github.com/team1091/website/publish"
)

func main() {
	var (
		fHost    = flag.String("host", "", "FTP server, host or host:port.")
		fUser    = flag.String("user", "", "FTP user name.")
		fPass    = flag.String("pass", "", "FTP password.")
		fRemote  = flag.String("remote", "/domains/team1091.com/public_html", "Remote directory to replace, created when missing.")
		fRoot    = flag.String("root", ".", "Root of the site sources.")
		fDir     = flag.String("dir", "", "Local directory to upload. Defaults to the configured output.")
		fBuild   = flag.Bool("build", true, "Build the site before uploading.")
		fTimeout = flag.Duration("timeout", 30*time.Second, "FTP dial timeout.")
		fEnv     = flag.String("env", ".env", "File with environment settings, ignored when missing.")
	)
	flag.Parse()
	if err := godotenv.Load(*fEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Cannot read %s: %s", *fEnv, err)
		os.Exit(1)
	}
	flagenv.Prefix = "FTP_"
	flagenv.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder, err := build.New(*fRoot)
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
	local := *fDir
	if *fBuild {
		r, err := builder.Build()
		if err != nil {
			log.Printf("Build failed: %s", err)
			os.Exit(2)
		}
		if local == "" {
			local = r.Output
		}
	}
	if local == "" {
		cfg, err := builder.Config()
		if err != nil {
			log.Printf("Cannot load config: %s", err)
			os.Exit(1)
		}
		local = builder.OutputDir(cfg)
	}
	if fi, err := os.Stat(local); err != nil || !fi.IsDir() {
		log.Printf("Nothing to upload in %q", local)
		os.Exit(1)
	}

	log.Printf("Connecting to %s", *fHost)
	c, err := publish.Connect(ctx, publish.Server{
		Host:     *fHost,
		User:     *fUser,
		Password: *fPass,
		Timeout:  *fTimeout,
	})
	if err != nil {
		log.Print(err)
		os.Exit(3)
	}
	defer c.Quit()

	start := time.Now()
	st, err := publish.Mirror(c, os.DirFS(local), *fRemote)
	if err != nil {
		log.Printf("Upload failed: %s", err)
		c.Quit()
		os.Exit(4)
	}
	abs, _ := filepath.Abs(local)
	log.Printf("Uploaded %d files (%d bytes) from %q to %s in %s; removed %d stale files and %d directories",
		st.Uploaded, st.Bytes, abs, *fRemote, time.Since(start), st.Deleted, st.Removed)
}
