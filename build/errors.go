package build

import (
	"errors"
	"io/fs"
	"os"

	"github.com/team1091/website/content"
)

// Stage names a step of the build.
type Stage string

const (
	StageConfig     Stage = "config"
	StageClear      Stage = "clear"
	StageLoad       Stage = "load"
	StageNavigation Stage = "navigation"
	StageRender     Stage = "render"
	StageAssets     Stage = "assets"
	StageSitemap    Stage = "sitemap"
	StagePromote    Stage = "promote"
)

// ErrFilesystem matches stage errors caused by reading or writing files.
var ErrFilesystem = errors.New("filesystem failure")

// StageError reports the stage a build failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is reports ErrFilesystem for failures that came from the file system
// rather than from the content.
func (e *StageError) Is(target error) bool {
	if target != ErrFilesystem {
		return false
	}
	if errors.Is(e.Err, content.ErrMalformed) {
		return false
	}
	var (
		pathErr *fs.PathError
		linkErr *os.LinkError
		sysErr  *os.SyscallError
	)
	return errors.As(e.Err, &pathErr) || errors.As(e.Err, &linkErr) || errors.As(e.Err, &sysErr)
}

// IsMalformed reports whether err was caused by bad content rather than by
// the environment.
func IsMalformed(err error) bool {
	return errors.Is(err, content.ErrMalformed)
}
