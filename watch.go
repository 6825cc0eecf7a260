package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// siteWatcher rebuilds the site when its sources change. Every directory
// below the site root is watched except the output and the directories the
// builder creates next to it.
type siteWatcher struct {
	root    string
	output  string // output directory name relative to root
	delay   time.Duration
	rebuild func()
	w       *fsnotify.Watcher
}

func newSiteWatcher(root, output string, delay time.Duration, rebuild func()) (*siteWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	sw := &siteWatcher{
		root:    root,
		output:  filepath.ToSlash(filepath.Clean(output)),
		delay:   delay,
		rebuild: rebuild,
		w:       w,
	}
	if err = sw.addTree(root); err != nil {
		w.Close()
		return nil, err
	}
	return sw, nil
}

// ignored reports whether changes to the named path should not trigger a
// build.
func (sw *siteWatcher) ignored(name string) bool {
	rel, err := filepath.Rel(sw.root, name)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return false
	}
	if strings.HasPrefix(rel, "../") {
		return true
	}
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") || strings.HasPrefix(part, "_") {
			return true
		}
	}
	return rel == sw.output ||
		strings.HasPrefix(rel, sw.output+"/") ||
		strings.HasPrefix(rel, sw.output+".staging-") ||
		strings.HasPrefix(rel, sw.output+".prev")
}

// addTree watches dir and every directory below it.
func (sw *siteWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if sw.ignored(p) {
			return filepath.SkipDir
		}
		return sw.w.Add(p)
	})
}

// Run delivers changes until ctx is done.
func (sw *siteWatcher) Run(ctx context.Context) {
	defer sw.w.Close()
	changes := make(chan struct{}, 1)
	go debounce(ctx, changes, sw.delay, sw.rebuild)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sw.w.Events:
			if !ok {
				return
			}
			if sw.ignored(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if err := sw.addTree(ev.Name); err != nil {
					log.Printf("siteWatcher: %s", err)
				}
			}
			select {
			case changes <- struct{}{}:
			default:
			}
		case err, ok := <-sw.w.Errors:
			if !ok {
				return
			}
			log.Printf("siteWatcher: %s", err)
		}
	}
}

// debounce calls fn once changes have been quiet for delay. Calls never
// overlap; changes arriving during a call schedule another one.
func debounce(ctx context.Context, changes <-chan struct{}, delay time.Duration, fn func()) {
	timer := time.NewTimer(delay)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-changes:
			timer.Reset(delay)
		case <-timer.C:
			fn()
		}
	}
}
