// Package publish mirrors the built site to a remote FTP directory. The
// remote directory is emptied first and then the local tree is uploaded
// with the same layout.
package publish

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"path"

	"github.com/jlaffaye/ftp"
)

// Client is the part of *ftp.ServerConn used for mirroring.
type Client interface {
	List(path string) ([]*ftp.Entry, error)
	Delete(path string) error
	RemoveDir(path string) error
	MakeDir(path string) error
	Stor(path string, r io.Reader) error
}

var _ Client = (*ftp.ServerConn)(nil)

// Stats counts what a mirror did.
type Stats struct {
	Deleted  int   // remote files deleted
	Removed  int   // remote directories removed
	Created  int   // remote directories created
	Uploaded int   // files uploaded
	Bytes    int64 // bytes uploaded
}

// Mirror replaces the contents of remote with the files in local. A missing
// remote directory is created, along with its parents.
func Mirror(c Client, local fs.FS, remote string) (Stats, error) {
	var st Stats
	if _, err := c.List(remote); err != nil {
		if merr := makeDirAll(c, remote, &st); merr != nil {
			return st, fmt.Errorf("Mirror: %s is not usable: list: %v; mkdir: %w", remote, err, merr)
		}
		log.Printf("Created remote directory %s", remote)
	} else if err = Prune(c, remote, &st); err != nil {
		return st, err
	}
	if err := Upload(c, local, remote, &st); err != nil {
		return st, err
	}
	return st, nil
}

// Prune deletes everything below dir. dir itself is kept.
func Prune(c Client, dir string, st *Stats) error {
	entries, err := c.List(dir)
	if err != nil {
		return fmt.Errorf("Prune: list %s: %w", dir, err)
	}
	for _, e := range entries {
		name := path.Base(e.Name)
		if name == "." || name == ".." {
			continue
		}
		p := path.Join(dir, name)
		if e.Type == ftp.EntryTypeFolder {
			if err = Prune(c, p, st); err != nil {
				return err
			}
			if err = c.RemoveDir(p); err != nil {
				return fmt.Errorf("Prune: remove %s: %w", p, err)
			}
			log.Printf("Removed directory %s", p)
			st.Removed++
			continue
		}
		if err = c.Delete(p); err != nil {
			return fmt.Errorf("Prune: delete %s: %w", p, err)
		}
		st.Deleted++
	}
	return nil
}

// makeDirAll creates dir and any missing parents. Only the error for dir
// itself counts; parents usually exist already and refuse a second MKD.
func makeDirAll(c Client, dir string, st *Stats) error {
	dir = path.Clean(dir)
	var parents []string
	for p := path.Dir(dir); p != "/" && p != "."; p = path.Dir(p) {
		parents = append(parents, p)
	}
	for i := len(parents) - 1; i >= 0; i-- {
		if err := c.MakeDir(parents[i]); err == nil {
			st.Created++
		}
	}
	if err := c.MakeDir(dir); err != nil {
		return err
	}
	st.Created++
	return nil
}

// Upload copies every file in local to the same relative path below remote,
// creating directories as it goes.
func Upload(c Client, local fs.FS, remote string, st *Stats) error {
	return fs.WalkDir(local, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := path.Join(remote, p)
		if d.IsDir() {
			if p == "." {
				return nil
			}
			if err = c.MakeDir(target); err != nil {
				return fmt.Errorf("Upload: mkdir %s: %w", target, err)
			}
			st.Created++
			return nil
		}
		if !d.Type().IsRegular() {
			log.Printf("Upload: skipping %s, not a regular file", p)
			return nil
		}
		f, err := local.Open(p)
		if err != nil {
			return fmt.Errorf("Upload: %w", err)
		}
		defer f.Close()
		cr := &countingReader{r: f}
		if err = c.Stor(target, cr); err != nil {
			return fmt.Errorf("Upload: store %s: %w", target, err)
		}
		st.Uploaded++
		st.Bytes += cr.n
		return nil
	})
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.n += int64(n)
	return n, err
}
