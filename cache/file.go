package cache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"
)

// file is a cached file or directory. It implements fs.ReadDirFile and
// io.Seeker, which is what http.FS needs to serve it.
type file struct {
	Data []byte
	FI   fileInfo
	Dirs []dirEntry
	pos  int
}

func (f *file) Stat() (fs.FileInfo, error) {
	return f.FI, nil
}

func (f *file) Read(b []byte) (int, error) {
	if f.FI.IsDir() {
		return 0, &fs.PathError{Op: "read", Path: f.FI.Name(), Err: errors.New("is a directory")}
	}
	if f.pos >= len(f.Data) {
		return 0, io.EOF
	}
	n := copy(b, f.Data[f.pos:])
	f.pos += n
	return n, nil
}

// Seek moves the read position. Seeking past the end stops at the end.
func (f *file) Seek(offset int64, whence int) (int64, error) {
	if f.FI.IsDir() {
		return 0, fmt.Errorf("Cannot Seek on a directory")
	}
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(f.pos) + offset
	case io.SeekEnd:
		pos = int64(len(f.Data)) + offset
	default:
		return int64(f.pos), fmt.Errorf("Invalid whence value for Seek: %d", whence)
	}
	if pos < 0 {
		return int64(f.pos), fmt.Errorf("Cannot Seek before start of file: %d", pos)
	}
	if pos > int64(len(f.Data)) {
		pos = int64(len(f.Data))
	}
	f.pos = int(pos)
	return pos, nil
}

func (f *file) Close() error {
	return nil
}

// ReadDir follows the fs.ReadDirFile contract: n <= 0 returns everything
// that is left, n > 0 returns at most n entries and io.EOF at the end.
func (f *file) ReadDir(n int) ([]fs.DirEntry, error) {
	if !f.FI.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: f.FI.Name(), Err: fmt.Errorf("Not a directory: %w", fs.ErrInvalid)}
	}
	rest := f.Dirs[f.pos:]
	if n > 0 {
		if len(rest) == 0 {
			return nil, io.EOF
		}
		if n < len(rest) {
			rest = rest[:n]
		}
	}
	result := make([]fs.DirEntry, len(rest))
	for i := range rest {
		result[i] = rest[i]
	}
	f.pos += len(rest)
	return result, nil
}

// fileInfo is the gob friendly form of fs.FileInfo.
type fileInfo struct {
	Nm string
	Sz int64
	Md fs.FileMode
	Mt time.Time
}

func (fi fileInfo) Name() string       { return fi.Nm }
func (fi fileInfo) Size() int64        { return fi.Sz }
func (fi fileInfo) Mode() fs.FileMode  { return fi.Md }
func (fi fileInfo) ModTime() time.Time { return fi.Mt }
func (fi fileInfo) IsDir() bool        { return fi.Md.IsDir() }
func (fi fileInfo) Sys() any           { return nil }

// dirEntry is a directory listing entry with the info captured when the
// directory was cached.
type dirEntry struct {
	FI fileInfo
}

func (di dirEntry) Name() string               { return di.FI.Name() }
func (di dirEntry) IsDir() bool                { return di.FI.IsDir() }
func (di dirEntry) Type() fs.FileMode          { return di.FI.Mode().Type() }
func (di dirEntry) Info() (fs.FileInfo, error) { return di.FI, nil }
