package build

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/team1091/website/config"
)

const (
	stagingSuffix = config.StagingSuffix
	prevSuffix    = config.PrevSuffix
)

// prepareStaging creates an empty directory next to out for the new build
// and removes directories left behind by builds that did not finish.
func prepareStaging(out string) (string, error) {
	parent := filepath.Dir(out)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", fmt.Errorf("prepareStaging: %w", err)
	}
	stale, _ := filepath.Glob(out + stagingSuffix + "*")
	for _, dir := range stale {
		log.Printf("prepareStaging: removing stale %s", dir)
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("prepareStaging: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, filepath.Base(out)+stagingSuffix)
	if err != nil {
		return "", fmt.Errorf("prepareStaging: %w", err)
	}
	if err = os.Chmod(dir, 0755); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("prepareStaging: %w", err)
	}
	return dir, nil
}

// promote replaces out with dir. The previous output is moved aside first
// and put back if dir cannot be moved into place.
func promote(dir, out string) error {
	prev := out + prevSuffix
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("promote: %w", err)
	}
	hadPrev := true
	if err := os.Rename(out, prev); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("promote: %w", err)
		}
		hadPrev = false
	}
	if err := os.Rename(dir, out); err != nil {
		if hadPrev {
			if rerr := os.Rename(prev, out); rerr != nil {
				log.Printf("promote: cannot restore %s: %s", out, rerr)
			}
		}
		return fmt.Errorf("promote: %w", err)
	}
	if hadPrev {
		if err := os.RemoveAll(prev); err != nil {
			log.Printf("promote: %s", err)
		}
	}
	return nil
}

// abortStaging discards a build that failed.
func abortStaging(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("abortStaging: %s", err)
	}
}
