// Package cache serves the built site from memory. Files are cached in a
// groupcache group under the current build generation; Invalidate moves to
// a new generation so the next request reads the fresh output.
package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/golang/groupcache"
)

// An FS provides cached access to a hierarchical file system.
type FS struct {
	fs    fs.FS
	gen   atomic.Int64
	cache *groupcache.Group
}

// New creates a cached FS around innerFS using groupcache with the given
// groupName and sizeInBytes. Group names must be unique within a process.
func New(innerFS fs.FS, groupName string, sizeInBytes int64) *FS {
	cfs := &FS{fs: innerFS}
	cfs.cache = groupcache.NewGroup(groupName, sizeInBytes, groupcache.GetterFunc(cfs.load))
	return cfs
}

// Invalidate starts a new generation. Entries cached before the call are
// no longer returned and age out of the cache.
func (cfs *FS) Invalidate() {
	cfs.gen.Add(1)
}

// Generation returns the current generation.
func (cfs *FS) Generation() int64 {
	return cfs.gen.Load()
}

// Open opens the named file.
func (cfs *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	var (
		buf groupcache.ByteView
		q   = make(url.Values, 2)
		f   file
	)
	q.Set("g", strconv.FormatInt(cfs.Generation(), 10))
	q.Set("path", name)
	err := cfs.cache.Get(context.Background(), q.Encode(), groupcache.ByteViewSink(&buf))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	err = gob.NewDecoder(buf.Reader()).Decode(&f)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &f, nil
}

// load fills dest with the gob encoded file named in key.
func (cfs *FS) load(ctx context.Context, key string, dest groupcache.Sink) error {
	q, err := url.ParseQuery(key)
	if err != nil {
		return fmt.Errorf("Invalid cache key: %w", err)
	}
	f, err := cfs.fs.Open(q.Get("path"))
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	result := file{
		FI: fileInfo{
			Nm: info.Name(),
			Sz: info.Size(),
			Md: info.Mode(),
			Mt: info.ModTime(),
		},
	}
	if info.IsDir() {
		rd, ok := f.(fs.ReadDirFile)
		if !ok {
			return fmt.Errorf("%s: directory cannot be listed", q.Get("path"))
		}
		entries, err := rd.ReadDir(-1)
		if err != nil {
			return err
		}
		result.Dirs = make([]dirEntry, len(entries))
		for i, entry := range entries {
			fi, err := entry.Info()
			if err != nil {
				return err
			}
			result.Dirs[i].FI = fileInfo{
				Nm: fi.Name(),
				Sz: fi.Size(),
				Md: fi.Mode(),
				Mt: fi.ModTime(),
			}
		}
	} else {
		result.Data, err = io.ReadAll(f)
		if err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err = gob.NewEncoder(&buf).Encode(result); err != nil {
		return err
	}
	return dest.SetBytes(buf.Bytes())
}
