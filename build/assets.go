package build

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/team1091/website/config"
)

// asset is one entry of the [assets] table.
type asset struct {
	key      string // config key, for messages
	src      string // slash path below the site root
	dest     string // slash path below the output root
	required bool
}

// assetList maps the configuration to copy operations.
func assetList(a config.Assets) []asset {
	list := []asset{
		{key: "images", src: a.Images, dest: "images"},
		{key: "stylesheet", src: a.Stylesheet, dest: "css/" + path.Base(a.Stylesheet), required: true},
		{key: "script", src: a.Script, dest: "js/" + path.Base(a.Script)},
		{key: "files", src: a.Files, dest: "files"},
		{key: "favicon", src: a.Favicon, dest: path.Base(a.Favicon), required: true},
	}
	result := list[:0]
	for _, x := range list {
		if x.src != "" {
			x.src = path.Clean(x.src)
			result = append(result, x)
		}
	}
	return result
}

// present reports whether an optional asset exists. Required assets are
// always reported present so that copying fails loudly.
func (a asset) present(fsys fs.FS) (bool, error) {
	if a.required {
		return true, nil
	}
	_, err := fs.Stat(fsys, a.src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// copyAssets copies the configured assets from fsys into dir and returns the
// number of files copied. Missing optional assets are logged and skipped.
func copyAssets(fsys fs.FS, assets []asset, dir string) (int, error) {
	count := 0
	for _, a := range assets {
		ok, err := a.present(fsys)
		if err != nil {
			return count, fmt.Errorf("copyAssets: %w", err)
		}
		if !ok {
			log.Printf("copyAssets: skipping missing %s %q", a.key, a.src)
			continue
		}
		n, err := copyTree(fsys, a.src, filepath.Join(dir, filepath.FromSlash(a.dest)))
		if err != nil {
			return count, fmt.Errorf("copyAssets: %s: %w", a.key, err)
		}
		count += n
	}
	return count, nil
}

// copyTree copies a file or a directory tree. Dot files are skipped.
func copyTree(fsys fs.FS, src, dest string) (int, error) {
	count := 0
	err := fs.WalkDir(fsys, src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != src && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, src), "/")
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		count++
		return copyFile(fsys, p, target)
	})
	return count, err
}

func copyFile(fsys fs.FS, src, dest string) error {
	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err = os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
